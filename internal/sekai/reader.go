// Package sekai crawls Project Sekai stories: event, unit and card stories
// and area talks. Master tables and scenario assets are fetched through the
// shared crawl environment and transcribed with character names resolved from
// the character2ds table.
package sekai

import (
	"context"
	"errors"

	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/config"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/crawl"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/fetch"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/pkg/scenario"
)

// ErrNotFound is returned when a requested story is absent from the master
// tables.
var ErrNotFound = errors.New("not found")

// Reader transcribes Sekai assets for one region.
type Reader struct {
	env    *crawl.Env
	urls   config.URLSet
	region config.Region
	models *Lookup[character2d]
}

// NewReader creates a reader. Init must be called before use.
func NewReader(env *crawl.Env, urls config.URLSet, region config.Region) *Reader {
	return &Reader{env: env, urls: urls, region: region}
}

// Init loads the character2ds table.
func (r *Reader) Init(ctx context.Context) error {
	url, err := r.urls.Expand("character2ds", nil)
	if err != nil {
		return err
	}
	var models []character2d
	if err := r.env.Fetcher.FetchInto(ctx, url, &models); err != nil {
		return err
	}
	r.models = NewLookup(models, func(c character2d) int { return c.ID })
	return nil
}

// ResolveCharacter maps a 2D model id to a named character.
func (r *Reader) ResolveCharacter(ref scenario.CharacterRef) (int, string, bool) {
	if r.models == nil {
		return 0, "", false
	}
	model, ok := r.models.Get(ref.ModelID)
	if !ok {
		return 0, "", false
	}
	name, ok := CharacterName(model.CharacterID)
	return model.CharacterID, name, ok
}

// Read transcribes a fetched asset.
func (r *Reader) Read(ctx context.Context, res fetch.Result) (string, error) {
	return r.env.Transcribe(ctx, scenario.SourceSekai, res, r)
}

// Region returns the region the reader serves.
func (r *Reader) Region() config.Region {
	return r.region
}

// localName prefixes names produced for regions other than cn.
func (r *Reader) localName(name string) string {
	if r.region == config.RegionCN {
		return name
	}
	return r.region.String() + "-" + name
}

// fetchTable downloads a master table named by key.
func fetchTable[T any](ctx context.Context, env *crawl.Env, urls config.URLSet, key string) ([]T, error) {
	url, err := urls.Expand(key, nil)
	if err != nil {
		return nil, err
	}
	var rows []T
	if err := env.Fetcher.FetchInto(ctx, url, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
