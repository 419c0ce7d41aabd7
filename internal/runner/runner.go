// Package runner executes crawl jobs against the game getters. The CLI and
// the queue worker both go through it. Readers and getters are built on first
// use per region and reused for later jobs.
package runner

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/bestdori"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/config"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/crawl"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/sekai"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/pkg/queue"
)

// Output folders, relative to the writer root.
const (
	DirSekaiEvent    = "event_story"
	DirSekaiUnit     = "unit_story"
	DirSekaiCard     = "card_story"
	DirSekaiAreaTalk = "area_talk"

	DirBestdoriEvent = "story_event"
	DirBestdoriBand  = "story_band"
	DirBestdoriMain  = "story_main"
	DirBestdoriCard  = "story_card"
)

// Options selects upstream sources.
type Options struct {
	// SekaiEventSource serves event stories; other sekai kinds always use
	// sekai.best.
	SekaiEventSource string
}

// Runner runs crawl jobs.
type Runner struct {
	env  *crawl.Env
	urls *config.URLs
	opts Options

	mu    sync.Mutex
	built map[string]*entry
}

func New(env *crawl.Env, urls *config.URLs, opts Options) *Runner {
	if opts.SekaiEventSource == "" {
		opts.SekaiEventSource = config.SourceSekaiBest
	}
	return &Runner{env: env, urls: urls, opts: opts, built: make(map[string]*entry)}
}

// Run executes one job.
func (r *Runner) Run(ctx context.Context, job *queue.Job) error {
	if err := job.Validate(); err != nil {
		return err
	}
	lang := config.RegionCN
	if job.Lang != "" {
		var err error
		if lang, err = config.ParseRegion(job.Lang); err != nil {
			return err
		}
	}

	switch job.Game {
	case queue.GameSekai:
		return r.runSekai(ctx, job, lang)
	default:
		return r.runBestdori(ctx, job, lang)
	}
}

func (r *Runner) runSekai(ctx context.Context, job *queue.Job, region config.Region) error {
	switch job.Kind {
	case queue.KindEvent:
		id, err := targetID(job)
		if err != nil {
			return err
		}
		g, err := build(r, ctx, "sekai/event/"+region.String(), func() (*sekai.EventGetter, error) {
			reader, err := r.sekaiReader(ctx, region)
			if err != nil {
				return nil, err
			}
			urls, err := r.urls.Set(config.GameSekai, region, r.opts.SekaiEventSource)
			if err != nil {
				return nil, err
			}
			return sekai.NewEventGetter(reader, urls, DirSekaiEvent), nil
		})
		if err != nil {
			return err
		}
		return g.Get(ctx, id)

	case queue.KindUnit:
		id, err := targetID(job)
		if err != nil {
			return err
		}
		g, err := build(r, ctx, "sekai/unit/"+region.String(), func() (*sekai.UnitGetter, error) {
			reader, urls, err := r.sekaiDefaults(ctx, region)
			if err != nil {
				return nil, err
			}
			return sekai.NewUnitGetter(reader, urls, DirSekaiUnit), nil
		})
		if err != nil {
			return err
		}
		return g.Get(ctx, id)

	case queue.KindCard:
		id, err := targetID(job)
		if err != nil {
			return err
		}
		g, err := build(r, ctx, "sekai/card/"+region.String(), func() (*sekai.CardGetter, error) {
			reader, urls, err := r.sekaiDefaults(ctx, region)
			if err != nil {
				return nil, err
			}
			return sekai.NewCardGetter(reader, urls, DirSekaiCard), nil
		})
		if err != nil {
			return err
		}
		return g.Get(ctx, id)

	default:
		g, err := build(r, ctx, "sekai/talk/"+region.String(), func() (*sekai.AreaTalkGetter, error) {
			reader, urls, err := r.sekaiDefaults(ctx, region)
			if err != nil {
				return nil, err
			}
			return sekai.NewAreaTalkGetter(reader, urls, DirSekaiAreaTalk), nil
		})
		if err != nil {
			return err
		}
		if job.Kind == queue.KindTalk {
			return g.Get(ctx, job.Target)
		}
		id, err := targetID(job)
		if err != nil {
			return err
		}
		return g.GetID(ctx, id)
	}
}

func (r *Runner) runBestdori(ctx context.Context, job *queue.Job, lang config.Region) error {
	reader, err := build(r, ctx, "bestdori/reader", func() (*bestdori.Reader, error) {
		urls, err := r.urls.Set(config.GameBestdori, "", config.SourceBestdori)
		if err != nil {
			return nil, err
		}
		return bestdori.NewReader(r.env, urls), nil
	})
	if err != nil {
		return err
	}

	switch job.Kind {
	case queue.KindEvent:
		id, err := targetID(job)
		if err != nil {
			return err
		}
		return bestdori.NewEventGetter(reader, DirBestdoriEvent).Get(ctx, id, lang)

	case queue.KindBand:
		var id int
		if job.Target != "" {
			if id, err = targetID(job); err != nil {
				return err
			}
		}
		return bestdori.NewBandGetter(reader, DirBestdoriBand).Get(ctx, id, job.Chapter, lang)

	case queue.KindMain:
		var ids []int
		if job.Target != "" {
			id, err := targetID(job)
			if err != nil {
				return err
			}
			ids = []int{id}
		}
		return bestdori.NewMainGetter(reader, DirBestdoriMain).Get(ctx, ids, lang)

	default:
		id, err := targetID(job)
		if err != nil {
			return err
		}
		g, err := build(r, ctx, "bestdori/card", func() (*bestdori.CardGetter, error) {
			return bestdori.NewCardGetter(reader, DirBestdoriCard), nil
		})
		if err != nil {
			return err
		}
		return g.Get(ctx, id, lang)
	}
}

func (r *Runner) sekaiReader(ctx context.Context, region config.Region) (*sekai.Reader, error) {
	return build(r, ctx, "sekai/reader/"+region.String(), func() (*sekai.Reader, error) {
		urls, err := r.urls.Set(config.GameSekai, region, config.SourceSekaiBest)
		if err != nil {
			return nil, err
		}
		return sekai.NewReader(r.env, urls, region), nil
	})
}

func (r *Runner) sekaiDefaults(ctx context.Context, region config.Region) (*sekai.Reader, config.URLSet, error) {
	reader, err := r.sekaiReader(ctx, region)
	if err != nil {
		return nil, nil, err
	}
	urls, err := r.urls.Set(config.GameSekai, region, config.SourceSekaiBest)
	if err != nil {
		return nil, nil, err
	}
	return reader, urls, nil
}

// initializer is implemented by readers and getters that load tables
// before use.
type initializer interface {
	Init(ctx context.Context) error
}

// build returns the component cached under key, creating and initialising it
// on first use. Concurrent callers for one key wait for a single Init. A
// failed Init is not cached.
func build[T any](r *Runner, ctx context.Context, key string, create func() (T, error)) (T, error) {
	r.mu.Lock()
	e, ok := r.built[key]
	if !ok {
		e = &entry{}
		r.built[key] = e
	}
	r.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ready {
		return e.value.(T), nil
	}

	var zero T
	v, err := create()
	if err != nil {
		return zero, err
	}
	if in, ok := any(v).(initializer); ok {
		if err := in.Init(ctx); err != nil {
			return zero, fmt.Errorf("%s: %w", key, err)
		}
	}
	e.value, e.ready = v, true
	return v, nil
}

type entry struct {
	mu    sync.Mutex
	value any
	ready bool
}

func targetID(job *queue.Job) (int, error) {
	id, err := strconv.Atoi(job.Target)
	if err != nil {
		return 0, fmt.Errorf("%s: target %q is not a number", job, job.Target)
	}
	return id, nil
}
