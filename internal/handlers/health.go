package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/services"
)

type HealthResponse struct {
	Status     string         `json:"status"`
	Timestamp  time.Time      `json:"timestamp"`
	Service    string         `json:"service"`
	Components map[string]any `json:"components"`
}

// QueueDepth reports how many crawl jobs are waiting.
type QueueDepth interface {
	Depth(ctx context.Context) (int, error)
}

// HealthHandler reports the worker's redis connection and queue backlog.
type HealthHandler struct {
	cache  services.Cache
	queue  QueueDepth
	worker string
	logger *slog.Logger
}

func NewHealthHandler(cache services.Cache, queue QueueDepth, workerID string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		cache:  cache,
		queue:  queue,
		worker: workerID,
		logger: logger,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	h.logger.Debug("Health check requested",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := map[string]any{"worker": h.worker}
	overallStatus := "healthy"

	if err := h.cache.Ping(ctx); err != nil {
		h.logger.Warn("Redis health check failed", "error", err)
		components["redis"] = "unhealthy"
		overallStatus = "degraded"
	} else {
		components["redis"] = "healthy"
	}

	if depth, err := h.queue.Depth(ctx); err != nil {
		h.logger.Warn("Queue depth check failed", "error", err)
		components["queue"] = "unhealthy"
		overallStatus = "degraded"
	} else {
		components["queue_depth"] = depth
	}

	response := HealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Service:    "story-crawler-worker",
		Components: components,
	}

	statusCode := http.StatusOK
	if overallStatus != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Error encoding health response",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path)
	}
}
