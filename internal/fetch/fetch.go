// Package fetch retrieves upstream JSON assets.
//
// Online, assets come from the shared cache when one is configured and
// otherwise from the network, and are kept on disk for later offline runs.
// Offline, the disk copy is used; a missing copy is downloaded or, when
// downloads are disabled, replaced by placeholder text. Invalid JSON from
// upstream also becomes placeholder text so one bad asset never aborts a
// crawl.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/observe"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/services"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/storage"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/pkg/transcript"
)

// ErrNotCached is returned by FetchInto when the asset resolved to a
// placeholder instead of data.
var ErrNotCached = errors.New("asset unavailable")

// HTTPError is returned for non-2xx upstream responses.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.StatusCode)
}

const (
	SourceNetwork = "network"
	SourceDisk    = "disk"
	SourceCache   = "cache"
	SourceNone    = "none"
)

// Options mirrors the crawl switches in config.Config.
type Options struct {
	Online          bool
	SaveAssets      bool
	MissingDownload bool
	CacheTTL        time.Duration

	ErrorLog   string // receives URLs whose body was not JSON
	MissingLog string // receives URLs missing offline

	Labels transcript.Labels // placeholder texts
}

// Deps are the collaborators a Fetcher needs. Cache and Metrics are
// optional.
type Deps struct {
	HTTP    *http.Client
	Network *semaphore.Weighted
	Assets  *storage.AssetStore
	Logs    *storage.Writer
	Cache   services.Cache
	Metrics *observe.Metrics
	Logger  *slog.Logger
}

// Result is one fetched asset: either JSON data or placeholder text.
type Result struct {
	Data        []byte
	Placeholder string
	Source      string
}

// IsPlaceholder reports whether the fetch produced no data.
func (r Result) IsPlaceholder() bool {
	return r.Data == nil
}

type Fetcher struct {
	deps Deps
	opts Options
}

// New creates a fetcher.
func New(deps Deps, opts Options) *Fetcher {
	if deps.HTTP == nil {
		deps.HTTP = http.DefaultClient
	}
	if deps.Metrics == nil {
		deps.Metrics = observe.DefaultMetrics()
	}
	if opts.ErrorLog == "" {
		opts.ErrorLog = "assets_error.log"
	}
	if opts.MissingLog == "" {
		opts.MissingLog = "assets_missing.log"
	}
	if opts.Labels == (transcript.Labels{}) {
		opts.Labels = transcript.EnglishLabels
	}
	return &Fetcher{deps: deps, opts: opts}
}

// Fetch returns the asset at url. note identifies the asset in the error
// and missing logs (usually the story file name) and may be empty.
func (f *Fetcher) Fetch(ctx context.Context, url, note string) (Result, error) {
	if f.opts.Online {
		return f.online(ctx, url, note, f.opts.SaveAssets)
	}

	data, err := f.deps.Assets.Load(ctx, url)
	if err == nil {
		f.deps.Metrics.RecordFetch(ctx, SourceDisk, observe.StatusOK)
		return Result{Data: data, Source: SourceDisk}, nil
	}
	if !errors.Is(err, storage.ErrAssetNotFound) {
		f.deps.Metrics.RecordFetch(ctx, SourceDisk, observe.StatusError)
		return Result{}, err
	}

	if f.opts.MissingDownload {
		f.deps.Logger.Info("Asset missing on disk, downloading", "url", url)
		return f.online(ctx, url, note, true)
	}

	f.deps.Logger.Warn("Asset missing on disk", "url", url)
	f.record(ctx, f.opts.MissingLog, url, note)
	f.deps.Metrics.RecordFetch(ctx, SourceDisk, observe.StatusPlaceholder)
	return Result{Placeholder: f.opts.Labels.MissingAsset, Source: SourceNone}, nil
}

// FetchInto fetches url and decodes it into v. Placeholders are errors here:
// index tables are required for a crawl to make sense.
func (f *Fetcher) FetchInto(ctx context.Context, url string, v any) error {
	res, err := f.Fetch(ctx, url, "")
	if err != nil {
		return err
	}
	if res.IsPlaceholder() {
		return fmt.Errorf("%s: %w", url, ErrNotCached)
	}
	if err := json.Unmarshal(res.Data, v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

func (f *Fetcher) online(ctx context.Context, url, note string, save bool) (Result, error) {
	if f.deps.Cache != nil {
		if cached, err := f.deps.Cache.Get(ctx, services.AssetKey(url)); err != nil {
			f.deps.Logger.Warn("Asset cache lookup failed", "url", url, "error", err)
		} else if cached != "" {
			f.deps.Metrics.RecordCache(ctx, SourceCache, true)
			f.deps.Metrics.RecordFetch(ctx, SourceCache, observe.StatusOK)
			data := []byte(cached)
			if save {
				f.save(ctx, url, data)
			}
			return Result{Data: data, Source: SourceCache}, nil
		} else {
			f.deps.Metrics.RecordCache(ctx, SourceCache, false)
		}
	}

	body, err := f.get(ctx, url)
	if err != nil {
		f.deps.Metrics.RecordFetch(ctx, SourceNetwork, observe.StatusError)
		return Result{}, err
	}

	if !json.Valid(body) {
		f.deps.Logger.Error("Asset is not valid JSON", "url", url, "bytes", len(body))
		f.record(ctx, f.opts.ErrorLog, url, note)
		f.deps.Metrics.RecordFetch(ctx, SourceNetwork, observe.StatusPlaceholder)
		l := f.opts.Labels
		return Result{Placeholder: l.UnreadableAsset + l.ValueMark + url, Source: SourceNetwork}, nil
	}

	if save {
		f.save(ctx, url, body)
	}
	if f.deps.Cache != nil {
		if err := f.deps.Cache.Set(ctx, services.AssetKey(url), body, f.opts.CacheTTL); err != nil {
			f.deps.Logger.Warn("Failed to cache asset", "url", url, "error", err)
		}
	}
	f.deps.Metrics.RecordFetch(ctx, SourceNetwork, observe.StatusOK)
	return Result{Data: body, Source: SourceNetwork}, nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	if err := f.deps.Network.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer f.deps.Network.Release(1)

	start := time.Now()
	defer f.deps.Metrics.ObserveFetch(ctx, start)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := f.deps.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	f.deps.Logger.Debug("Fetched asset", "url", url, "bytes", len(body), "duration", time.Since(start))
	return body, nil
}

// save keeps a disk copy. Failure is logged, not returned.
func (f *Fetcher) save(ctx context.Context, url string, data []byte) {
	if err := f.deps.Assets.Save(ctx, url, data); err != nil {
		f.deps.Logger.Warn("Failed to save asset", "url", url, "error", err)
	}
}

func (f *Fetcher) record(ctx context.Context, log, url, note string) {
	line := url
	if note != "" {
		line = note + f.opts.Labels.SpeakerMark + url
	}
	if err := f.deps.Logs.AppendLine(ctx, log, line); err != nil {
		f.deps.Logger.Warn("Failed to record asset", "log", log, "url", url, "error", err)
	}
}
