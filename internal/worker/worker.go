// Package worker pulls crawl jobs from the Redis queue and runs them.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/observe"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/services/events"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/services/queue"
	queuePkg "github.com/ci-ke/ProjectSekai-BangDream-story-crawler/pkg/queue"
)

const (
	defaultQueueTimeout = 5 * time.Second
	defaultLockTTL      = 30 * time.Minute
	errorBackoff        = time.Second
)

// releaseScript deletes the lock only if this worker still owns it.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Runner executes one crawl job.
type Runner interface {
	Run(ctx context.Context, job *queuePkg.Job) error
}

// Options tune a worker. Zero values pick the defaults.
type Options struct {
	ID           string
	QueueTimeout time.Duration
	LockTTL      time.Duration
}

// Worker processes jobs from the crawl queue one at a time.
type Worker struct {
	id          string
	queue       *queue.JobQueue
	runner      Runner
	broadcaster *events.Broadcaster
	redisClient *redis.Client
	metrics     *observe.Metrics
	log         *slog.Logger
	opts        Options
	ctx         context.Context
	cancel      context.CancelFunc
}

// New creates a worker. The queue and broadcaster share redisClient.
func New(jobs *queue.JobQueue, runner Runner, redisClient *redis.Client, metrics *observe.Metrics, log *slog.Logger, opts Options) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if opts.ID == "" {
		opts.ID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	if opts.QueueTimeout <= 0 {
		opts.QueueTimeout = defaultQueueTimeout
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = defaultLockTTL
	}

	return &Worker{
		id:          opts.ID,
		queue:       jobs,
		runner:      runner,
		broadcaster: events.NewBroadcaster(redisClient, log),
		redisClient: redisClient,
		metrics:     metrics,
		log:         log,
		opts:        opts,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// ID returns the worker id used for locks and events.
func (w *Worker) ID() string {
	return w.id
}

// Start processes jobs until Stop is called.
func (w *Worker) Start() error {
	w.log.Info("Worker starting", "worker_id", w.id)

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("Worker shutting down", "worker_id", w.id)
			return nil
		default:
			if _, err := w.processNext(); err != nil {
				w.log.Error("Error processing job", "error", err, "worker_id", w.id)
				select {
				case <-w.ctx.Done():
				case <-time.After(errorBackoff):
				}
			}
		}
	}
}

// Stop asks Start to return after the current job.
func (w *Worker) Stop() {
	w.log.Info("Worker stop requested", "worker_id", w.id)
	w.cancel()
}

// processNext takes one job off the queue and runs it. It reports whether a
// job was dequeued. A job whose target is locked by another worker goes back
// to the end of the queue.
func (w *Worker) processNext() (bool, error) {
	job, err := w.queue.BlockingDequeue(w.ctx, w.opts.QueueTimeout)
	if err != nil {
		return false, fmt.Errorf("failed to dequeue job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	w.log.Info("Received job from queue", "worker_id", w.id, "job_id", job.ID, "job", job.String())

	locked, err := w.acquireLock(job)
	if err != nil {
		if reErr := w.queue.Enqueue(w.ctx, job); reErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to re-queue job: %w", reErr))
		}
		return true, fmt.Errorf("failed to acquire job lock: %w", err)
	}
	if !locked {
		w.log.Info("Target already locked, re-queueing job", "worker_id", w.id, "job_id", job.ID, "lock", job.LockKey())
		if err := w.queue.Enqueue(w.ctx, job); err != nil {
			return true, fmt.Errorf("failed to re-queue job: %w", err)
		}
		return true, nil
	}
	defer w.releaseLock(job)

	return true, w.process(job)
}

func (w *Worker) acquireLock(job *queuePkg.Job) (bool, error) {
	return w.redisClient.SetNX(w.ctx, job.LockKey(), w.id, w.opts.LockTTL).Result()
}

func (w *Worker) releaseLock(job *queuePkg.Job) {
	// The worker context may already be cancelled when a job finishes during
	// shutdown.
	ctx := context.WithoutCancel(w.ctx)
	if err := releaseScript.Run(ctx, w.redisClient, []string{job.LockKey()}, w.id).Err(); err != nil {
		w.log.Error("Failed to release job lock", "error", err, "lock", job.LockKey())
	}
}

// process runs job and publishes its outcome. Publishing failures are logged
// and never fail the job.
func (w *Worker) process(job *queuePkg.Job) error {
	start := time.Now()

	if err := w.broadcaster.PublishJobProcessing(w.ctx, job, w.id); err != nil {
		w.log.Error("Failed to publish processing event", "error", err)
	}

	err := w.runner.Run(w.ctx, job)
	ctx := context.WithoutCancel(w.ctx)
	if err != nil {
		w.metrics.RecordJob(ctx, job.Kind, observe.StatusError)
		if pubErr := w.broadcaster.PublishJobFailed(ctx, job, w.id, err.Error()); pubErr != nil {
			w.log.Error("Failed to publish failure event", "error", pubErr)
		}
		return fmt.Errorf("job %s: %w", job, err)
	}

	duration := time.Since(start).Milliseconds()
	w.metrics.RecordJob(ctx, job.Kind, observe.StatusOK)
	w.log.Info("Job processed successfully", "worker_id", w.id, "job_id", job.ID, "duration_ms", duration)
	if err := w.broadcaster.PublishJobCompleted(ctx, job, w.id, duration); err != nil {
		w.log.Error("Failed to publish completion event", "error", err)
	}
	return nil
}
