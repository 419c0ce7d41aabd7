package sekai

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/config"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/crawl"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/pkg/textfilter"
)

const worldBloom = "world_bloom"

// EventGetter writes one file per event story episode into a folder per
// event.
type EventGetter struct {
	reader *Reader
	env    *crawl.Env
	urls   config.URLSet
	dir    string

	events  *Lookup[event]
	stories *Lookup[eventStory]
}

// NewEventGetter creates an event story getter saving under dir. urls may
// come from a different source than the reader's.
func NewEventGetter(reader *Reader, urls config.URLSet, dir string) *EventGetter {
	return &EventGetter{reader: reader, env: reader.env, urls: urls, dir: dir}
}

// Init loads the events and eventStories tables.
func (g *EventGetter) Init(ctx context.Context) error {
	var (
		events  []event
		stories []eventStory
	)
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		events, err = fetchTable[event](ctx, g.env, g.urls, "events")
		return err
	})
	eg.Go(func() (err error) {
		stories, err = fetchTable[eventStory](ctx, g.env, g.urls, "eventStories")
		return err
	})
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("failed to load event tables: %w", err)
	}

	g.events = NewLookup(events, func(e event) int { return e.ID })
	g.stories = NewLookup(stories, func(s eventStory) int { return s.EventID })
	return nil
}

// Get fetches every episode of an event.
func (g *EventGetter) Get(ctx context.Context, eventID int) error {
	ev, ok := g.events.Get(eventID)
	if !ok {
		return fmt.Errorf("event %d: %w", eventID, ErrNotFound)
	}
	story, ok := g.stories.Get(eventID)
	if !ok {
		return fmt.Errorf("event %d story: %w", eventID, ErrNotFound)
	}

	banner, err := eventBanner(ev, story)
	if err != nil {
		return err
	}
	folder := g.reader.localName(fmt.Sprintf("%d %s（%s）", eventID, textfilter.ValidFilename(ev.Name), banner))
	outline := textfilter.OneLine(story.Outline)

	return crawl.Each(ctx, len(story.Episodes), func(ctx context.Context, i int) error {
		return g.episode(ctx, ev, story.Episodes[i], folder, outline)
	})
}

func eventBanner(ev event, story eventStory) (string, error) {
	if ev.EventType == worldBloom {
		if ev.Unit == "none" {
			return "WL", nil
		}
		code, ok := UnitCodes[ev.Unit]
		if !ok {
			return "", fmt.Errorf("event %d: unknown unit %q", ev.ID, ev.Unit)
		}
		return code + "_WL", nil
	}

	if story.BannerGameCharacterUnitID == nil {
		return "", fmt.Errorf("event %d: no banner character", ev.ID)
	}
	name, ok := bannerName(*story.BannerGameCharacterUnitID)
	if !ok {
		return "", fmt.Errorf("event %d: unknown banner character %d", ev.ID, *story.BannerGameCharacterUnitID)
	}
	return name, nil
}

func (g *EventGetter) episode(ctx context.Context, ev event, ep eventStoryEpisode, folder, outline string) error {
	name := fmt.Sprintf("%d-%d %s", ep.EventStoryID, ep.EpisodeNo, ep.Title)
	if ev.EventType == worldBloom && ep.GameCharacterID != nil {
		if chara, ok := CharacterName(*ep.GameCharacterID); ok {
			name += "（" + chara + "）"
		}
	}
	filename := textfilter.ValidFilename(name)

	url, err := g.urls.Expand("event_asset", map[string]string{
		"assetbundleName": ev.AssetbundleName,
		"scenarioId":      ep.ScenarioID,
	})
	if err != nil {
		return err
	}
	res, err := g.env.Fetcher.Fetch(ctx, url, filename)
	if err != nil {
		return fmt.Errorf("event %d episode %q: %w", ev.ID, name, err)
	}

	if g.env.Parse {
		text, err := g.reader.Read(ctx, res)
		if err != nil {
			return fmt.Errorf("event %d episode %q: %w", ev.ID, name, err)
		}
		var content string
		if ep.EpisodeNo == 1 {
			content = outline + "\n\n"
		}
		content += name + "\n\n" + text + "\n"
		if err := g.env.Write(ctx, filepath.Join(g.dir, folder, filename+".txt"), content); err != nil {
			return err
		}
	}

	g.env.Logger.Info("Got event episode", "event", ev.ID, "name", ev.Name, "episode", name)
	return nil
}
