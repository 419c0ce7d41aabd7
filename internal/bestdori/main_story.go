package bestdori

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/config"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/crawl"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/pkg/textfilter"
)

// MainGetter writes main story chapters into one flat folder.
type MainGetter struct {
	reader *Reader
	env    *crawl.Env
	dir    string
}

func NewMainGetter(reader *Reader, dir string) *MainGetter {
	return &MainGetter{reader: reader, env: reader.env, dir: dir}
}

// Get fetches the main story chapters with the given ids in lang, or every
// chapter when ids is empty. Chapters not yet translated are skipped.
func (g *MainGetter) Get(ctx context.Context, ids []int, lang config.Region) error {
	if err := checkLanguage(lang); err != nil {
		return err
	}

	var table map[string]story
	if err := g.reader.fetchInto(ctx, "mainstories", nil, &table); err != nil {
		return err
	}

	want := make(map[int]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	var chapters []story
	for _, key := range sortedKeys(table) {
		id, err := strconv.Atoi(key)
		if err != nil || (len(want) > 0 && !want[id]) {
			continue
		}
		s := table[key]
		if _, ok := s.Title.in(lang); !ok {
			g.env.Logger.Warn("Main story not translated", "chapter", id, "title", s.Title.or(lang), "lang", lang)
			continue
		}
		chapters = append(chapters, s)
	}
	if len(chapters) == 0 {
		return fmt.Errorf("main story %v in %s: %w", ids, lang, ErrNotFound)
	}

	return crawl.Each(ctx, len(chapters), func(ctx context.Context, i int) error {
		return g.chapter(ctx, chapters[i], lang)
	})
}

func (g *MainGetter) chapter(ctx context.Context, s story, lang config.Region) error {
	name := s.name(lang)
	synopsis, _ := s.Synopsis.in(lang)
	synopsis = textfilter.OneLine(synopsis)
	filename := textfilter.ValidFilename(lang.String() + "-" + name)

	url, err := g.reader.urls.Expand("main_asset", map[string]string{
		"lang": lang.String(),
		"id":   s.ScenarioID,
	})
	if err != nil {
		return err
	}
	res, err := g.env.Fetcher.Fetch(ctx, url, filename)
	if err != nil {
		return fmt.Errorf("main story %q: %w", name, err)
	}

	if err := g.reader.write(ctx, filepath.Join(g.dir, filename+".txt"), name, synopsis, res, lang); err != nil {
		return fmt.Errorf("main story %q: %w", name, err)
	}
	g.env.Logger.Info("Got main story", "episode", name)
	return nil
}
