package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/semaphore"

	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/config"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/fetch"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/observe"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/services"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/storage"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/pkg/transcript"
)

// Setup builds an Env from configuration. When cfg.RedisURL is set the
// fetcher shares assets through Redis and the returned function closes
// that connection.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Env, func() error, error) {
	labels, ok := transcript.LabelsFor(cfg.Labels)
	if !ok {
		return nil, nil, fmt.Errorf("unknown label language %q", cfg.Labels)
	}

	closeCache := func() error { return nil }
	var cache services.Cache
	if cfg.RedisURL != "" {
		redisCache, err := services.NewRedisService(cfg.RedisURL, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := redisCache.Ping(ctx); err != nil {
			_ = redisCache.Close()
			return nil, nil, err
		}
		cache, closeCache = redisCache, redisCache.Close
		logger.Info("Sharing assets through redis", "ttl", cfg.AssetCacheTTL)
	}

	files := semaphore.NewWeighted(cfg.FileConcurrency)
	writer := storage.NewWriter(cfg.OutputDir, files)
	metrics := observe.DefaultMetrics()

	fetcher := fetch.New(fetch.Deps{
		HTTP:    &http.Client{Timeout: cfg.HTTPTimeout},
		Network: semaphore.NewWeighted(cfg.NetConcurrency),
		Assets:  storage.NewAssetStore(cfg.AssetsDir, files, logger),
		Logs:    writer,
		Cache:   cache,
		Metrics: metrics,
		Logger:  logger,
	}, fetch.Options{
		Online:          cfg.Online,
		SaveAssets:      cfg.SaveAssets,
		MissingDownload: cfg.MissingDownload,
		CacheTTL:        cfg.AssetCacheTTL,
		Labels:          labels,
	})

	return &Env{
		Fetcher: fetcher,
		Writer:  writer,
		Logger:  logger,
		Metrics: metrics,
		Labels:  labels,
		Parse:   true,
		Debug:   cfg.DebugParse,
	}, closeCache, nil
}
