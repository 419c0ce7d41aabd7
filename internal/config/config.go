package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Environment string     `env:"ENVIRONMENT" envDefault:"development"`
	LogLevelRaw string     `env:"LOG_LEVEL" envDefault:"info"`
	LogLevel    slog.Level `env:"-"`

	AssetsDir       string `env:"ASSETS_DIR" envDefault:"./assets"`
	OutputDir       string `env:"OUTPUT_DIR" envDefault:"."`
	Online          bool   `env:"ONLINE" envDefault:"true"`
	SaveAssets      bool   `env:"SAVE_ASSETS" envDefault:"true"`
	MissingDownload bool   `env:"MISSING_DOWNLOAD" envDefault:"true"`
	DebugParse      bool   `env:"DEBUG_PARSE" envDefault:"false"`
	Labels          string `env:"LABELS" envDefault:"en"`

	NetConcurrency  int64         `env:"NET_CONCURRENCY" envDefault:"20"`
	FileConcurrency int64         `env:"FILE_CONCURRENCY" envDefault:"20"`
	HTTPTimeout     time.Duration `env:"HTTP_TIMEOUT" envDefault:"60s"`

	RedisURL      string        `env:"REDIS_URL"`
	AssetCacheTTL time.Duration `env:"ASSET_CACHE_TTL" envDefault:"24h"`
	QueueTimeout  time.Duration `env:"QUEUE_TIMEOUT" envDefault:"5s"`
	JobLockTTL    time.Duration `env:"JOB_LOCK_TTL" envDefault:"30m"`
	HealthAddr    string        `env:"HEALTH_ADDR"`

	URLsFile string `env:"URLS_FILE"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = parseLogLevel(cfg.LogLevelRaw)

	if cfg.NetConcurrency < 1 {
		return nil, fmt.Errorf("NET_CONCURRENCY must be positive, got %d", cfg.NetConcurrency)
	}
	if cfg.FileConcurrency < 1 {
		return nil, fmt.Errorf("FILE_CONCURRENCY must be positive, got %d", cfg.FileConcurrency)
	}
	return cfg, nil
}

// URLs loads the URL templates named by URLsFile, or the embedded defaults.
func (c *Config) URLs() (*URLs, error) {
	return LoadURLs(c.URLsFile)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
