package fetch

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"golang.org/x/sync/semaphore"

	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/observe"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/services"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/storage"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/pkg/transcript"
)

type testEnv struct {
	server *httptest.Server
	hits   *atomic.Int32
	assets string
	out    string
	deps   Deps
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	hits := &atomic.Int32{}
	mux := http.NewServeMux()
	mux.HandleFunc("/ok.json", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"value":1}`))
	})
	mux.HandleFunc("/broken.asset", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`<html>not json</html>`))
	})
	mux.HandleFunc("/gone.json", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	files := semaphore.NewWeighted(4)
	assets := t.TempDir()
	out := t.TempDir()

	mp := sdkmetric.NewMeterProvider()
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := observe.NewMetrics(mp)
	require.NoError(t, err)

	return &testEnv{
		server: server,
		hits:   hits,
		assets: assets,
		out:    out,
		deps: Deps{
			HTTP:    server.Client(),
			Network: semaphore.NewWeighted(2),
			Assets:  storage.NewAssetStore(assets, files, logger),
			Logs:    storage.NewWriter(out, files),
			Metrics: metrics,
			Logger:  logger,
		},
	}
}

func (e *testEnv) url(path string) string {
	return e.server.URL + path
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestFetch_OnlineSavesToDisk(t *testing.T) {
	env := newTestEnv(t)
	f := New(env.deps, Options{Online: true, SaveAssets: true})
	ctx := context.Background()

	res, err := f.Fetch(ctx, env.url("/ok.json"), "")
	require.NoError(t, err)
	assert.False(t, res.IsPlaceholder())
	assert.Equal(t, SourceNetwork, res.Source)
	assert.JSONEq(t, `{"value":1}`, string(res.Data))

	path, err := env.deps.Assets.URLToPath(env.url("/ok.json"))
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestFetch_OnlineWithoutSave(t *testing.T) {
	env := newTestEnv(t)
	f := New(env.deps, Options{Online: true})

	_, err := f.Fetch(context.Background(), env.url("/ok.json"), "")
	require.NoError(t, err)

	path, _ := env.deps.Assets.URLToPath(env.url("/ok.json"))
	assert.NoFileExists(t, path)
}

func TestFetch_HTTPError(t *testing.T) {
	env := newTestEnv(t)
	f := New(env.deps, Options{Online: true, SaveAssets: true})

	_, err := f.Fetch(context.Background(), env.url("/gone.json"), "")
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
}

func TestFetch_InvalidJSONBecomesPlaceholder(t *testing.T) {
	env := newTestEnv(t)
	f := New(env.deps, Options{Online: true, SaveAssets: true, Labels: transcript.ChineseLabels})
	url := env.url("/broken.asset")

	res, err := f.Fetch(context.Background(), url, "1-1 ep")
	require.NoError(t, err)
	assert.True(t, res.IsPlaceholder())
	assert.Equal(t, "读取json出错："+url, res.Placeholder)
	assert.Equal(t, "1-1 ep："+url+"\n", readLog(t, filepath.Join(env.out, "assets_error.log")))

	path, _ := env.deps.Assets.URLToPath(url)
	assert.NoFileExists(t, path, "invalid bodies are never saved")
}

func TestFetch_OfflineDiskHit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	url := env.url("/ok.json")
	require.NoError(t, env.deps.Assets.Save(ctx, url, []byte(`{"value":2}`)))

	f := New(env.deps, Options{Online: false, MissingDownload: true})
	res, err := f.Fetch(ctx, url, "")
	require.NoError(t, err)
	assert.Equal(t, SourceDisk, res.Source)
	assert.JSONEq(t, `{"value":2}`, string(res.Data))
	assert.Zero(t, env.hits.Load(), "no network for disk hits")
}

func TestFetch_OfflineMissingDownloads(t *testing.T) {
	env := newTestEnv(t)
	f := New(env.deps, Options{Online: false, MissingDownload: true})
	url := env.url("/ok.json")

	res, err := f.Fetch(context.Background(), url, "")
	require.NoError(t, err)
	assert.Equal(t, SourceNetwork, res.Source)

	path, _ := env.deps.Assets.URLToPath(url)
	assert.FileExists(t, path, "downloaded missing assets are always saved")
}

func TestFetch_OfflineMissingPlaceholder(t *testing.T) {
	env := newTestEnv(t)
	f := New(env.deps, Options{Online: false, MissingDownload: false})
	url := env.url("/ok.json")

	res, err := f.Fetch(context.Background(), url, "")
	require.NoError(t, err)
	assert.True(t, res.IsPlaceholder())
	assert.Equal(t, transcript.EnglishLabels.MissingAsset, res.Placeholder)
	assert.Equal(t, url+"\n", readLog(t, filepath.Join(env.out, "assets_missing.log")))
	assert.Zero(t, env.hits.Load())
}

func TestFetch_SharedCache(t *testing.T) {
	env := newTestEnv(t)
	cache := services.NewMockCache()
	env.deps.Cache = cache
	f := New(env.deps, Options{Online: true, SaveAssets: false})
	ctx := context.Background()
	url := env.url("/ok.json")

	first, err := f.Fetch(ctx, url, "")
	require.NoError(t, err)
	assert.Equal(t, SourceNetwork, first.Source)
	assert.Equal(t, 1, cache.Len())

	second, err := f.Fetch(ctx, url, "")
	require.NoError(t, err)
	assert.Equal(t, SourceCache, second.Source)
	assert.Equal(t, first.Data, second.Data)
	assert.Equal(t, int32(1), env.hits.Load())
}

func TestFetch_CacheErrorFallsBackToNetwork(t *testing.T) {
	env := newTestEnv(t)
	cache := services.NewMockCache()
	cache.GetFunc = func(ctx context.Context, key string) (string, error) {
		return "", errors.New("connection refused")
	}
	env.deps.Cache = cache
	f := New(env.deps, Options{Online: true})

	res, err := f.Fetch(context.Background(), env.url("/ok.json"), "")
	require.NoError(t, err)
	assert.Equal(t, SourceNetwork, res.Source)
}

func TestFetchInto(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	f := New(env.deps, Options{Online: true})
	var v struct{ Value int }
	require.NoError(t, f.FetchInto(ctx, env.url("/ok.json"), &v))
	assert.Equal(t, 1, v.Value)

	offline := New(env.deps, Options{Online: false})
	err := offline.FetchInto(ctx, env.url("/missing.json"), &v)
	assert.ErrorIs(t, err, ErrNotCached)
}
