package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/pkg/queue"
)

// Channel carries every job lifecycle event.
const Channel = "crawl-events"

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeJobQueued     EventType = "job.queued"
	EventTypeJobProcessing EventType = "job.processing"
	EventTypeJobCompleted  EventType = "job.completed"
	EventTypeJobFailed     EventType = "job.failed"
)

// Event is a job lifecycle notification.
type Event struct {
	Type   EventType      `json:"type"`
	JobID  string         `json:"job_id"`
	Job    string         `json:"job,omitempty"`
	Worker string         `json:"worker,omitempty"`
	Data   map[string]any `json:"data,omitempty"`
}

// Terminal reports whether no further events follow for the job.
func (e Event) Terminal() bool {
	return e.Type == EventTypeJobCompleted || e.Type == EventTypeJobFailed
}

// Broadcaster publishes job events to Redis Pub/Sub.
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// PublishJobQueued publishes a job.queued event
func (b *Broadcaster) PublishJobQueued(ctx context.Context, job *queue.Job) error {
	return b.publish(ctx, Event{
		Type:  EventTypeJobQueued,
		JobID: job.ID.String(),
		Job:   job.String(),
		Data:  map[string]any{"status": "queued"},
	})
}

// PublishJobProcessing publishes a job.processing event
func (b *Broadcaster) PublishJobProcessing(ctx context.Context, job *queue.Job, workerID string) error {
	return b.publish(ctx, Event{
		Type:   EventTypeJobProcessing,
		JobID:  job.ID.String(),
		Job:    job.String(),
		Worker: workerID,
		Data:   map[string]any{"status": "processing"},
	})
}

// PublishJobCompleted publishes a job.completed event
func (b *Broadcaster) PublishJobCompleted(ctx context.Context, job *queue.Job, workerID string, durationMS int64) error {
	return b.publish(ctx, Event{
		Type:   EventTypeJobCompleted,
		JobID:  job.ID.String(),
		Job:    job.String(),
		Worker: workerID,
		Data: map[string]any{
			"status":      "completed",
			"duration_ms": durationMS,
		},
	})
}

// PublishJobFailed publishes a job.failed event
func (b *Broadcaster) PublishJobFailed(ctx context.Context, job *queue.Job, workerID string, errorMsg string) error {
	return b.publish(ctx, Event{
		Type:   EventTypeJobFailed,
		JobID:  job.ID.String(),
		Job:    job.String(),
		Worker: workerID,
		Data: map[string]any{
			"status": "failed",
			"error":  errorMsg,
		},
	})
}

func (b *Broadcaster) publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event", event)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, Channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", Channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", Channel,
		"event_type", event.Type,
		"job_id", event.JobID,
	)
	return nil
}

// Subscribe delivers job events until ctx ends. The subscription is active
// when Subscribe returns. Malformed messages are skipped.
func (b *Broadcaster) Subscribe(ctx context.Context) (<-chan Event, error) {
	sub := b.redisClient.Subscribe(ctx, Channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					b.logger.Warn("Skipping malformed event", "error", err)
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
