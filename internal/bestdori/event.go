package bestdori

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/config"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/crawl"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/fetch"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/pkg/textfilter"
)

var (
	// EventsWithMainStory are events whose episodes are main story chapters.
	EventsWithMainStory = []int{217}

	// EventsWithoutStory are events that never had an event story.
	EventsWithoutStory = []int{248}
)

type eventInfo struct {
	EventName localized `json:"eventName"`
	Stories   []story   `json:"stories"`
}

// EventGetter writes one file per event story episode into a folder per
// event and language.
type EventGetter struct {
	reader *Reader
	env    *crawl.Env
	dir    string
}

func NewEventGetter(reader *Reader, dir string) *EventGetter {
	return &EventGetter{reader: reader, env: reader.env, dir: dir}
}

// Get fetches every episode of an event in lang.
func (g *EventGetter) Get(ctx context.Context, eventID int, lang config.Region) error {
	if err := checkLanguage(lang); err != nil {
		return err
	}

	var info eventInfo
	if err := g.reader.fetchInto(ctx, "events_id", map[string]string{"event_id": strconv.Itoa(eventID)}, &info); err != nil {
		return fmt.Errorf("event %d: %w", eventID, err)
	}
	eventName, ok := info.EventName.in(lang)
	if !ok {
		g.env.Logger.Info("Event not available in language", "event", eventID, "lang", lang)
		return nil
	}

	folder := filepath.Join(g.dir, fmt.Sprintf("%s-%03d %s", lang, eventID, textfilter.ValidFilename(eventName)))

	if slices.Contains(EventsWithoutStory, eventID) {
		if g.env.Parse {
			path := filepath.Join(folder, g.env.Labels.NoStoryFile+".txt")
			if err := g.env.Write(ctx, path, g.env.Labels.NoEventStory+"\n"); err != nil {
				return err
			}
		}
		g.env.Logger.Info("Event has no story", "event", eventID, "name", eventName)
		return nil
	}

	return crawl.Each(ctx, len(info.Stories), func(ctx context.Context, i int) error {
		return g.story(ctx, eventID, eventName, info.Stories[i], folder, lang)
	})
}

func (g *EventGetter) story(ctx context.Context, eventID int, eventName string, s story, folder string, lang config.Region) error {
	name := s.name(lang)
	synopsis, _ := s.Synopsis.in(lang)
	synopsis = textfilter.OneLine(synopsis)
	filename := textfilter.ValidFilename(name)

	var res fetch.Result
	switch {
	case slices.Contains(EventsWithMainStory, eventID):
		res = fetch.Result{Placeholder: g.env.Labels.SeeMainStory}
	case s.BandStoryID != nil:
		res = fetch.Result{Placeholder: g.env.Labels.SeeBandStory}
	default:
		url, err := g.reader.urls.Expand("event_asset", map[string]string{
			"lang":     lang.String(),
			"event_id": strconv.Itoa(eventID),
			"id":       s.ScenarioID,
		})
		if err != nil {
			return err
		}
		if res, err = g.env.Fetcher.Fetch(ctx, url, filename); err != nil {
			return fmt.Errorf("event %d episode %q: %w", eventID, name, err)
		}
	}

	if err := g.reader.write(ctx, filepath.Join(folder, filename+".txt"), name, synopsis, res, lang); err != nil {
		return fmt.Errorf("event %d episode %q: %w", eventID, name, err)
	}
	g.env.Logger.Info("Got event episode", "event", eventID, "name", eventName, "episode", name)
	return nil
}
