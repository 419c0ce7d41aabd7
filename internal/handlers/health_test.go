package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/services"
)

type fakeQueue struct {
	depth int
	err   error
}

func (f fakeQueue) Depth(ctx context.Context) (int, error) { return f.depth, f.err }

func TestHealthHandler_ServeHTTP(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))

	tests := []struct {
		name           string
		pingErr        error
		queue          fakeQueue
		expectedStatus int
		expectedHealth string
		expectedRedis  string
	}{
		{
			name:           "all healthy",
			queue:          fakeQueue{depth: 4},
			expectedStatus: http.StatusOK,
			expectedHealth: "healthy",
			expectedRedis:  "healthy",
		},
		{
			name:           "unhealthy redis",
			pingErr:        errors.New("connection failed"),
			queue:          fakeQueue{depth: 0},
			expectedStatus: http.StatusServiceUnavailable,
			expectedHealth: "degraded",
			expectedRedis:  "unhealthy",
		},
		{
			name:           "queue unavailable",
			queue:          fakeQueue{err: errors.New("timeout")},
			expectedStatus: http.StatusServiceUnavailable,
			expectedHealth: "degraded",
			expectedRedis:  "healthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := services.NewMockCache()
			cache.PingErr = tt.pingErr
			handler := NewHealthHandler(cache, tt.queue, "worker-1", logger)

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			var resp HealthResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, tt.expectedHealth, resp.Status)
			assert.Equal(t, "story-crawler-worker", resp.Service)
			assert.Equal(t, tt.expectedRedis, resp.Components["redis"])
			assert.Equal(t, "worker-1", resp.Components["worker"])
			if tt.queue.err == nil {
				assert.EqualValues(t, tt.queue.depth, resp.Components["queue_depth"])
			}
		})
	}
}
