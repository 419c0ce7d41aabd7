package bestdori

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/config"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/crawl"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/pkg/textfilter"
)

type bandStory struct {
	BandID        int              `json:"bandId"`
	ChapterNumber *int             `json:"chapterNumber"`
	MainTitle     localized        `json:"mainTitle"`
	SubTitle      localized        `json:"subTitle"`
	Stories       map[string]story `json:"stories"`
}

// BandGetter writes band story chapters, one folder per chapter under a
// folder per band.
type BandGetter struct {
	reader *Reader
	env    *crawl.Env
	dir    string
}

func NewBandGetter(reader *Reader, dir string) *BandGetter {
	return &BandGetter{reader: reader, env: reader.env, dir: dir}
}

type bandEpisode struct {
	bandID int
	name   string
	title  string
	folder string
	story  story
}

// Get fetches the band story chapters of bandID in lang. A zero bandID or
// chapter selects all of them.
func (g *BandGetter) Get(ctx context.Context, bandID, chapter int, lang config.Region) error {
	if err := checkLanguage(lang); err != nil {
		return err
	}
	if bandID != 0 {
		if _, ok := g.reader.bands[bandID]; !ok {
			return fmt.Errorf("band %d: %w", bandID, ErrNotFound)
		}
	}

	var table map[string]bandStory
	if err := g.reader.fetchInto(ctx, "bandstories", nil, &table); err != nil {
		return err
	}

	var episodes []bandEpisode
	matched := 0
	for _, key := range sortedKeys(table) {
		bs := table[key]
		if bs.ChapterNumber == nil {
			continue
		}
		if (bandID != 0 && bs.BandID != bandID) || (chapter != 0 && *bs.ChapterNumber != chapter) {
			continue
		}
		matched++

		bandName, _ := g.reader.BandName(bs.BandID, lang)
		mainTitle, ok := bs.MainTitle.in(lang)
		if !ok {
			g.env.Logger.Warn("Band story not translated", "band", bandName, "title", bs.MainTitle.or(lang), "lang", lang)
			continue
		}
		subTitle, _ := bs.SubTitle.in(lang)
		folder := filepath.Join(g.dir,
			textfilter.ValidFilename(lang.String()+"-"+bandName),
			textfilter.ValidFilename(mainTitle+" "+subTitle))

		for _, sk := range sortedKeys(bs.Stories) {
			s := bs.Stories[sk]
			episodes = append(episodes, bandEpisode{
				bandID: bs.BandID,
				name:   bandName,
				title:  mainTitle,
				folder: folder,
				story:  s,
			})
		}
	}
	if matched == 0 {
		return fmt.Errorf("band %d chapter %d: %w", bandID, chapter, ErrNotFound)
	}

	return crawl.Each(ctx, len(episodes), func(ctx context.Context, i int) error {
		return g.episode(ctx, episodes[i], lang)
	})
}

func (g *BandGetter) episode(ctx context.Context, ep bandEpisode, lang config.Region) error {
	name := ep.story.name(lang)
	synopsis, _ := ep.story.Synopsis.in(lang)
	synopsis = textfilter.OneLine(synopsis)
	filename := textfilter.ValidFilename(name)

	url, err := g.reader.urls.Expand("band_asset", map[string]string{
		"lang":    lang.String(),
		"band_id": fmt.Sprintf("%03d", ep.bandID),
		"id":      ep.story.ScenarioID,
	})
	if err != nil {
		return err
	}
	res, err := g.env.Fetcher.Fetch(ctx, url, filename)
	if err != nil {
		return fmt.Errorf("band story %q: %w", name, err)
	}

	if err := g.reader.write(ctx, filepath.Join(ep.folder, filename+".txt"), name, synopsis, res, lang); err != nil {
		return fmt.Errorf("band story %q: %w", name, err)
	}
	g.env.Logger.Info("Got band story", "band", ep.name, "chapter", ep.title, "episode", name)
	return nil
}

// sortedKeys orders decimal string keys numerically; other keys sort last.
func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return keys[i] < keys[j]
	})
	return keys
}
