// Package crawl holds what the per-game getters share: the fetch and write
// collaborators, transcription with metrics, failure accounting and target
// parsing.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/fetch"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/observe"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/storage"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/pkg/scenario"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/pkg/transcript"
)

// Env is the environment every getter runs in.
type Env struct {
	Fetcher *fetch.Fetcher
	Writer  *storage.Writer
	Logger  *slog.Logger
	Metrics *observe.Metrics
	Labels  transcript.Labels

	// Parse enables transcription and file output. With Parse off a crawl
	// only populates the asset directory.
	Parse bool
	Debug bool
}

// Transcribe turns a fetched asset into transcript text. Placeholder results
// pass through as their text.
func (e *Env) Transcribe(ctx context.Context, source scenario.Source, res fetch.Result, resolver transcript.CharacterResolver) (string, error) {
	var (
		doc *scenario.Document
		err error
	)
	if res.IsPlaceholder() {
		doc = scenario.Placeholder(res.Placeholder)
	} else if doc, err = scenario.Decode(source, res.Data); err != nil {
		e.Metrics.RecordTranscript(ctx, source.String(), observe.StatusError)
		return "", err
	}

	text, err := transcript.Transcribe(doc, resolver, transcript.Options{Debug: e.Debug, Labels: e.Labels})
	switch {
	case err != nil:
		e.Metrics.RecordTranscript(ctx, source.String(), observe.StatusError)
		return "", err
	case doc.IsPlaceholder():
		e.Metrics.RecordTranscript(ctx, source.String(), observe.StatusPlaceholder)
	default:
		e.Metrics.RecordTranscript(ctx, source.String(), observe.StatusOK)
	}
	return text, nil
}

// Write saves a finished story file and counts it.
func (e *Env) Write(ctx context.Context, path, content string) error {
	if err := e.Writer.WriteTranscript(ctx, path, content); err != nil {
		return err
	}
	e.Metrics.RecordFileWritten(ctx)
	return nil
}

// Report collects the outcome of many independent items. A failed item never
// stops its siblings; the joined failures are returned at the end.
type Report struct {
	mu   sync.Mutex
	errs []error
	done int
}

// Done records a success.
func (r *Report) Done() {
	r.mu.Lock()
	r.done++
	r.mu.Unlock()
}

// Fail records a failure.
func (r *Report) Fail(err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
}

// Track records err as a failure, or a success when err is nil.
func (r *Report) Track(err error) {
	if err != nil {
		r.Fail(err)
		return
	}
	r.Done()
}

// Counts returns the number of successes and failures so far.
func (r *Report) Counts() (done, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done, len(r.errs)
}

// Err joins every recorded failure, or returns nil.
func (r *Report) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return errors.Join(r.errs...)
}

// Each runs fn for items 0..n-1 concurrently and waits for all of them. A
// failing item does not cancel the others; the failures are joined.
func Each(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	var (
		g      errgroup.Group
		report Report
	)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			report.Track(fn(ctx, i))
			return nil
		})
	}
	_ = g.Wait()
	return report.Err()
}

// ParseTargets expands numeric targets. Each argument is a single id ("12")
// or an inclusive range ("1-10").
func ParseTargets(args []string) ([]int, error) {
	var ids []int
	for _, arg := range args {
		lo, hi, isRange := strings.Cut(arg, "-")
		first, err := strconv.Atoi(lo)
		if err != nil {
			return nil, fmt.Errorf("invalid target %q", arg)
		}
		last := first
		if isRange {
			if last, err = strconv.Atoi(hi); err != nil {
				return nil, fmt.Errorf("invalid target %q", arg)
			}
		}
		if last < first {
			return nil, fmt.Errorf("invalid target range %q", arg)
		}
		for id := first; id <= last; id++ {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
