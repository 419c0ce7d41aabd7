package events

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/pkg/queue"
)

func newBroadcaster(t *testing.T) (*Broadcaster, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewBroadcaster(rdb, logger), mr
}

func next(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e, ok := <-ch:
		require.True(t, ok, "channel closed")
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestBroadcaster_Lifecycle(t *testing.T) {
	b, _ := newBroadcaster(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := b.Subscribe(ctx)
	require.NoError(t, err)

	job := queue.NewJob(queue.GameSekai, queue.KindEvent, "12", "cn")
	require.NoError(t, b.PublishJobQueued(ctx, job))
	require.NoError(t, b.PublishJobProcessing(ctx, job, "worker-1"))
	require.NoError(t, b.PublishJobFailed(ctx, job, "worker-1", "boom"))

	e := next(t, ch)
	assert.Equal(t, EventTypeJobQueued, e.Type)
	assert.Equal(t, job.ID.String(), e.JobID)
	assert.Equal(t, "sekai event 12", e.Job)
	assert.False(t, e.Terminal())

	e = next(t, ch)
	assert.Equal(t, EventTypeJobProcessing, e.Type)
	assert.Equal(t, "worker-1", e.Worker)

	e = next(t, ch)
	assert.Equal(t, EventTypeJobFailed, e.Type)
	assert.Equal(t, "boom", e.Data["error"])
	assert.True(t, e.Terminal())

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok, "closed after cancel")
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not closed")
	}
}

func TestBroadcaster_SkipsMalformed(t *testing.T) {
	b, mr := newBroadcaster(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := b.Subscribe(ctx)
	require.NoError(t, err)

	mr.Publish(Channel, "{not json")
	job := queue.NewJob(queue.GameBestdori, queue.KindMain, "1", "en")
	require.NoError(t, b.PublishJobCompleted(ctx, job, "w", 42))

	e := next(t, ch)
	assert.Equal(t, EventTypeJobCompleted, e.Type)
	assert.EqualValues(t, 42, e.Data["duration_ms"])
}

func TestBroadcaster_PublishError(t *testing.T) {
	b, mr := newBroadcaster(t)
	mr.Close()

	job := queue.NewJob(queue.GameSekai, queue.KindUnit, "1", "")
	assert.Error(t, b.PublishJobQueued(context.Background(), job))
}
