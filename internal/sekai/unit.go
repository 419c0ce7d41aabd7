package sekai

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/config"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/crawl"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/pkg/textfilter"
)

// UnitGetter writes the unit story episodes of one unit into a folder.
type UnitGetter struct {
	reader *Reader
	env    *crawl.Env
	urls   config.URLSet
	dir    string

	profiles []unitProfile
	stories  []unitStory
}

func NewUnitGetter(reader *Reader, urls config.URLSet, dir string) *UnitGetter {
	return &UnitGetter{reader: reader, env: reader.env, urls: urls, dir: dir}
}

// Init loads the unitProfiles and unitStories tables.
func (g *UnitGetter) Init(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		g.profiles, err = fetchTable[unitProfile](ctx, g.env, g.urls, "unitProfiles")
		return err
	})
	eg.Go(func() (err error) {
		g.stories, err = fetchTable[unitStory](ctx, g.env, g.urls, "unitStories")
		return err
	})
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("failed to load unit tables: %w", err)
	}
	return nil
}

// Get fetches the first chapter of a unit's story.
func (g *UnitGetter) Get(ctx context.Context, unitID int) error {
	pi := slices.IndexFunc(g.profiles, func(p unitProfile) bool { return p.Seq == unitID })
	si := slices.IndexFunc(g.stories, func(s unitStory) bool { return s.Seq == unitID })
	if pi < 0 || si < 0 || len(g.stories[si].Chapters) == 0 {
		return fmt.Errorf("unit %d: %w", unitID, ErrNotFound)
	}
	profile := g.profiles[pi]
	chapter := g.stories[si].Chapters[0]

	folder := g.reader.localName(fmt.Sprintf("%d %s", unitID, textfilter.ValidFilename(profile.UnitName)))

	return crawl.Each(ctx, len(chapter.Episodes), func(ctx context.Context, i int) error {
		return g.episode(ctx, unitID, profile, chapter.AssetbundleName, chapter.Episodes[i], folder)
	})
}

func (g *UnitGetter) episode(ctx context.Context, unitID int, profile unitProfile, bundle string, ep unitStoryEpisode, folder string) error {
	name := ep.ScenarioID + " " + ep.Title
	filename := textfilter.ValidFilename(name)

	url, err := g.urls.Expand("unit_asset", map[string]string{
		"assetbundleName": bundle,
		"scenarioId":      ep.ScenarioID,
	})
	if err != nil {
		return err
	}
	res, err := g.env.Fetcher.Fetch(ctx, url, filename)
	if err != nil {
		return fmt.Errorf("unit %d episode %q: %w", unitID, name, err)
	}

	if g.env.Parse {
		text, err := g.reader.Read(ctx, res)
		if err != nil {
			return fmt.Errorf("unit %d episode %q: %w", unitID, name, err)
		}
		var content string
		if ep.EpisodeNo == 1 {
			content = profile.ProfileSentence + "\n\n"
		}
		content += name + "\n\n" + text + "\n"
		if err := g.env.Write(ctx, filepath.Join(g.dir, folder, filename+".txt"), content); err != nil {
			return err
		}
	}

	g.env.Logger.Info("Got unit episode", "unit", unitID, "name", profile.UnitName, "episode", name)
	return nil
}
