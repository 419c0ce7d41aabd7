package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/config"
)

// Setup configures the global slog logger based on environment. Logs go to
// stderr so transcripts printed on stdout stay clean.
func Setup(cfg *config.Config) *slog.Logger {
	return SetupTo(os.Stderr, cfg)
}

// SetupTo is Setup with an explicit destination.
func SetupTo(w io.Writer, cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	if cfg.Environment == "production" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// WithJobID adds a crawl job id to logger context
func WithJobID(logger *slog.Logger, jobID string) *slog.Logger {
	return logger.With("job_id", jobID)
}

// WithError adds error to logger context
func WithError(logger *slog.Logger, err error) *slog.Logger {
	return logger.With("error", err.Error())
}

// Discard returns a logger that drops everything, for tests and quiet runs.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
