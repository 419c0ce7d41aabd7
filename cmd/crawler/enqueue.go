package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/services/events"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/services/queue"
	queuePkg "github.com/ci-ke/ProjectSekai-BangDream-story-crawler/pkg/queue"
)

var errJobsFailed = errors.New("jobs failed")

func newEnqueueCmd(opts *options) *cobra.Command {
	var (
		follow  bool
		chapter int
	)

	cmd := &cobra.Command{
		Use:   "enqueue <game> <kind> [targets]...",
		Short: "Queue crawl jobs for the worker",
		Long: `Queue crawl jobs on redis for crawler workers to pick up.

With --follow the command waits until every queued job has completed or
failed and prints their progress.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			game, kind := args[0], args[1]
			kinds, ok := queuePkg.Kinds[game]
			if !ok {
				return fmt.Errorf("unknown game %q", game)
			}
			if !slices.Contains(kinds, kind) {
				return fmt.Errorf("unknown %s kind %q, want one of %v", game, kind, kinds)
			}
			spec := kindSpec{kind: kind, optional: kind == queuePkg.KindBand || kind == queuePkg.KindMain}
			if len(args) == 2 && !spec.optional {
				return fmt.Errorf("%s %s needs at least one target", game, kind)
			}
			targets, err := expandTargets(spec, args[2:])
			if err != nil {
				return err
			}

			jobs := make([]*queuePkg.Job, len(targets))
			for i, target := range targets {
				jobs[i] = queuePkg.NewJob(game, kind, target, opts.lang)
				jobs[i].Chapter = chapter
			}
			return opts.enqueue(cmd.Context(), cmd.OutOrStdout(), jobs, follow)
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "wait for the jobs and print their events")
	cmd.Flags().IntVar(&chapter, "chapter", 0, "band story chapter, 0 for all")
	return cmd
}

func (o *options) enqueue(ctx context.Context, out io.Writer, jobs []*queuePkg.Job, follow bool) error {
	cfg, log, err := o.config()
	if err != nil {
		return err
	}
	if cfg.RedisURL == "" {
		return errors.New("enqueue needs --redis or REDIS_URL")
	}

	client, err := queue.NewClient(ctx, cfg.RedisURL, log)
	if err != nil {
		return err
	}
	defer client.Close()

	jobQueue := queue.NewJobQueue(client)
	broadcaster := events.NewBroadcaster(client.Redis(), log)

	// Subscribe first so no event between enqueue and subscribe is lost.
	var stream <-chan events.Event
	if follow {
		subCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if stream, err = broadcaster.Subscribe(subCtx); err != nil {
			return err
		}
	}

	pending := make(map[string]bool, len(jobs))
	for _, job := range jobs {
		if err := jobQueue.Enqueue(ctx, job); err != nil {
			return err
		}
		if err := broadcaster.PublishJobQueued(ctx, job); err != nil {
			log.Warn("Failed to publish queued event", "error", err)
		}
		pending[job.ID.String()] = true
		fmt.Fprintf(out, "queued %s %s\n", job.ID, job)
	}
	if !follow {
		return nil
	}

	failed := 0
	for len(pending) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-stream:
			if !ok {
				return errors.New("event stream closed")
			}
			if !pending[event.JobID] || event.Type == events.EventTypeJobQueued {
				continue
			}
			fmt.Fprintln(out, formatEvent(event))
			if event.Terminal() {
				delete(pending, event.JobID)
				if event.Type == events.EventTypeJobFailed {
					failed++
				}
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d %w", failed, len(jobs), errJobsFailed)
	}
	return nil
}

func formatEvent(e events.Event) string {
	line := fmt.Sprintf("%-15s %s", e.Type, e.Job)
	if e.Worker != "" {
		line += " on " + e.Worker
	}
	if msg, ok := e.Data["error"].(string); ok {
		line += ": " + msg
	}
	return line
}
