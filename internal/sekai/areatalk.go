package sekai

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/config"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/crawl"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/fetch"
)

// ErrUnknownTarget is returned for an area talk target that names no
// known group.
var ErrUnknownTarget = errors.New("unknown area talk target")

const (
	actionSetNormal  = "normal"
	actionSetLimited = "limited"
	aprilFool        = "aprilfool"
	theaterCondition = 2000000
)

// AreaTalkGetter collects area conversations into one file per target.
type AreaTalkGetter struct {
	reader *Reader
	env    *crawl.Env
	urls   config.URLSet
	dir    string

	areas      *Lookup[area]
	actionSets []actionSet
	byID       *Lookup[actionSet]
}

func NewAreaTalkGetter(reader *Reader, urls config.URLSet, dir string) *AreaTalkGetter {
	return &AreaTalkGetter{reader: reader, env: reader.env, urls: urls, dir: dir}
}

// Init loads the areas and actionSets tables.
func (g *AreaTalkGetter) Init(ctx context.Context) error {
	var areas []area
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		areas, err = fetchTable[area](ctx, g.env, g.urls, "areas")
		return err
	})
	eg.Go(func() (err error) {
		g.actionSets, err = fetchTable[actionSet](ctx, g.env, g.urls, "actionSets")
		return err
	})
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("failed to load area talk tables: %w", err)
	}

	g.areas = NewLookup(areas, func(a area) int { return a.ID })
	g.byID = NewLookup(g.actionSets, func(a actionSet) int { return a.ID })
	return nil
}

// Get collects the talks of a target: an event id, "grade1", "grade2",
// "theater", "limited-<area id>" or "aprilfool<year>".
func (g *AreaTalkGetter) Get(ctx context.Context, target string) error {
	talks, filename, err := g.selectTalks(target)
	if err != nil {
		return err
	}
	if len(talks) == 0 {
		return fmt.Errorf("talk %s: %w", target, ErrNotFound)
	}
	filename = g.reader.localName(filename)

	results := make([]fetch.Result, len(talks))
	err = crawl.Each(ctx, len(talks), func(ctx context.Context, i int) error {
		var err error
		results[i], err = g.fetch(ctx, talks[i], filename)
		return err
	})
	if err != nil {
		return fmt.Errorf("talk %s: %w", target, err)
	}

	if g.env.Parse {
		var b strings.Builder
		for i, talk := range talks {
			text, err := g.reader.Read(ctx, results[i])
			if err != nil {
				return fmt.Errorf("talk %d: %w", talk.ID, err)
			}
			fmt.Fprintf(&b, "%d: %d 【%s】\n\n", i+1, talk.ID, g.areaName(talk.AreaID))
			b.WriteString(text + "\n\n\n")
		}
		if err := g.env.Write(ctx, filepath.Join(g.dir, filename+".txt"), b.String()); err != nil {
			return err
		}
	}

	g.env.Logger.Info("Got area talks", "target", target, "file", filename, "talks", len(talks))
	return nil
}

// GetID fetches a single talk by action set id.
func (g *AreaTalkGetter) GetID(ctx context.Context, talkID int) error {
	talk, ok := g.byID.Get(talkID)
	if !ok {
		return fmt.Errorf("talk %d: %w", talkID, ErrNotFound)
	}
	if talk.ScenarioID == "" {
		return fmt.Errorf("talk %d has no content: %w", talkID, ErrNotFound)
	}
	filename := g.reader.localName(fmt.Sprintf("talk_%d", talkID))

	res, err := g.fetch(ctx, talk, filename)
	if err != nil {
		return fmt.Errorf("talk %d: %w", talkID, err)
	}

	if g.env.Parse {
		text, err := g.reader.Read(ctx, res)
		if err != nil {
			return fmt.Errorf("talk %d: %w", talkID, err)
		}
		content := fmt.Sprintf("%d 【%s】\n\n", talk.ID, g.areaName(talk.AreaID)) + text + "\n"
		if err := g.env.Write(ctx, filepath.Join(g.dir, filename+".txt"), content); err != nil {
			return err
		}
	}

	g.env.Logger.Info("Got area talk", "talk", talkID)
	return nil
}

func (g *AreaTalkGetter) fetch(ctx context.Context, talk actionSet, note string) (fetch.Result, error) {
	url, err := g.urls.Expand("talk_asset", map[string]string{
		"group":      strconv.Itoa(talk.ID / 100),
		"scenarioId": talk.ScenarioID,
	})
	if err != nil {
		return fetch.Result{}, err
	}
	return g.env.Fetcher.Fetch(ctx, url, note)
}

// selectTalks filters the action sets belonging to target and names the
// output file.
func (g *AreaTalkGetter) selectTalks(target string) ([]actionSet, string, error) {
	if eventID, err := strconv.Atoi(target); err == nil {
		talks := g.filter(func(a actionSet) bool { return releasedByEvent(a.ReleaseConditionID, eventID) })
		for _, id := range EventAreaTalkExtras[eventID] {
			if extra, ok := g.byID.Get(id); ok && extra.ScenarioID != "" {
				talks = append(talks, extra)
			}
		}
		return talks, fmt.Sprintf("talk_event_%d", eventID), nil
	}

	var match func(actionSet) bool
	switch {
	case target == "grade1", target == "grade2":
		nextGrade := target == "grade2"
		match = func(a actionSet) bool {
			return a.ActionSetType == actionSetNormal && a.IsNextGrade == nextGrade && a.ReleaseConditionID == 1
		}
	case target == "theater":
		match = func(a actionSet) bool { return a.ReleaseConditionID >= theaterCondition }
	case strings.HasPrefix(target, "limited-"):
		areaID, err := strconv.Atoi(strings.TrimPrefix(target, "limited-"))
		if err != nil {
			return nil, "", fmt.Errorf("%w: %q", ErrUnknownTarget, target)
		}
		match = func(a actionSet) bool {
			return a.ActionSetType == actionSetLimited && a.AreaID == areaID && !strings.Contains(a.ScenarioID, aprilFool)
		}
	case strings.HasPrefix(target, aprilFool) && len(target) == len(aprilFool)+4:
		if _, err := strconv.Atoi(strings.TrimPrefix(target, aprilFool)); err != nil {
			return nil, "", fmt.Errorf("%w: %q", ErrUnknownTarget, target)
		}
		match = func(a actionSet) bool {
			return a.ActionSetType == actionSetLimited && strings.Contains(a.ScenarioID, target)
		}
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownTarget, target)
	}
	return g.filter(match), "talk_" + target, nil
}

// filter keeps action sets with a scenario that satisfy match, in table
// order.
func (g *AreaTalkGetter) filter(match func(actionSet) bool) []actionSet {
	var talks []actionSet
	for _, a := range g.actionSets {
		if a.ScenarioID != "" && match(a) {
			talks = append(talks, a)
		}
	}
	return talks
}

// releasedByEvent reports whether a release condition id of the form
// 1EEExx unlocks with event EEE+1.
func releasedByEvent(condition, eventID int) bool {
	cond := strconv.Itoa(condition)
	if len(cond) != 6 || cond[0] != '1' {
		return false
	}
	n, err := strconv.Atoi(cond[1:4])
	return err == nil && n == eventID-1
}

func (g *AreaTalkGetter) areaName(id int) string {
	a, ok := g.areas.Get(id)
	if !ok {
		return strconv.Itoa(id)
	}
	if a.SubName != nil {
		return a.Name + " - " + *a.SubName
	}
	return a.Name
}
