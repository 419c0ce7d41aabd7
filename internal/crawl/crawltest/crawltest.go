// Package crawltest provides an upstream stand-in and a ready crawl.Env for
// getter tests.
package crawltest

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"golang.org/x/sync/semaphore"

	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/crawl"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/fetch"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/observe"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/storage"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/pkg/transcript"
)

// Upstream serves fixed bodies by path and counts requests.
type Upstream struct {
	*httptest.Server

	mu     sync.Mutex
	bodies map[string]string
	hits   map[string]int
}

// NewUpstream starts a server answering 404 for unknown paths.
func NewUpstream(t *testing.T) *Upstream {
	t.Helper()
	u := &Upstream{bodies: make(map[string]string), hits: make(map[string]int)}
	u.Server = httptest.NewServer(http.HandlerFunc(u.serve))
	t.Cleanup(u.Close)
	return u
}

// Handle registers body for path.
func (u *Upstream) Handle(path, body string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.bodies[path] = body
}

// Hits reports how often path was requested.
func (u *Upstream) Hits(path string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits[path]
}

func (u *Upstream) serve(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	body, ok := u.bodies[r.URL.Path]
	u.hits[r.URL.Path]++
	u.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

// Env is a crawl environment writing under temporary directories.
type Env struct {
	*crawl.Env
	Out    string
	Assets string
}

// NewEnv builds an online, parsing environment with Chinese labels.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	files := semaphore.NewWeighted(4)
	out := t.TempDir()
	assets := filepath.Join(t.TempDir(), "assets")

	mp := sdkmetric.NewMeterProvider()
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := observe.NewMetrics(mp)
	require.NoError(t, err)

	writer := storage.NewWriter(out, files)
	fetcher := fetch.New(fetch.Deps{
		Network: semaphore.NewWeighted(4),
		Assets:  storage.NewAssetStore(assets, files, logger),
		Logs:    writer,
		Metrics: metrics,
		Logger:  logger,
	}, fetch.Options{
		Online:     true,
		SaveAssets: true,
		Labels:     transcript.ChineseLabels,
	})

	return &Env{
		Env: &crawl.Env{
			Fetcher: fetcher,
			Writer:  writer,
			Logger:  logger,
			Metrics: metrics,
			Labels:  transcript.ChineseLabels,
			Parse:   true,
		},
		Out:    out,
		Assets: assets,
	}
}

// ReadFile returns the content of a file under the output directory.
func (e *Env) ReadFile(t *testing.T, elem ...string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(append([]string{e.Out}, elem...)...))
	require.NoError(t, err)
	return string(data)
}
