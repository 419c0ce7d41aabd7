// Package bestdori crawls BanG Dream stories from bestdori: event, band,
// main and card stories in any of the five server languages.
package bestdori

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/config"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/crawl"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/fetch"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/pkg/scenario"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/pkg/transcript"
)

var (
	// ErrNotFound is returned when a requested story does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnknownLanguage is returned for a language bestdori does not serve.
	ErrUnknownLanguage = errors.New("unknown language")
)

// languageIndex is the position of each language in bestdori's
// per-language arrays.
var languageIndex = map[config.Region]int{
	config.RegionJP: 0,
	config.RegionEN: 1,
	config.RegionTW: 2,
	config.RegionCN: 3,
	config.RegionKR: 4,
}

// BandAbbreviations shortens band names in card folders.
var BandAbbreviations = map[int]string{
	1:  "PPP",
	2:  "Ag",
	3:  "HHW",
	4:  "P＊P",
	5:  "Ro",
	18: "RAS",
	21: "Mor",
	45: "MyGO",
}

// localized is a per-language array; missing translations are null.
type localized []*string

// in returns the text for lang.
func (l localized) in(lang config.Region) (string, bool) {
	i, ok := languageIndex[lang]
	if !ok || i >= len(l) || l[i] == nil {
		return "", false
	}
	return *l[i], true
}

// or returns the text for lang, or the first available translation.
func (l localized) or(lang config.Region) string {
	if s, ok := l.in(lang); ok {
		return s
	}
	for _, s := range l {
		if s != nil {
			return *s
		}
	}
	return ""
}

type character struct {
	CharacterName localized `json:"characterName"`
	BandID        int       `json:"bandId"`
}

type band struct {
	BandName localized `json:"bandName"`
}

// Reader holds the character and band tables and transcribes assets.
type Reader struct {
	env   *crawl.Env
	urls  config.URLSet
	chars map[int]character
	bands map[int]band
}

// NewReader creates a reader. Init must be called before use.
func NewReader(env *crawl.Env, urls config.URLSet) *Reader {
	return &Reader{env: env, urls: urls}
}

// Init loads characters/main.3 and bands/main.1.
func (r *Reader) Init(ctx context.Context) error {
	var (
		chars map[string]character
		bands map[string]band
	)
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return r.fetchInto(ctx, "characters_main", nil, &chars) })
	eg.Go(func() error { return r.fetchInto(ctx, "bands_main", nil, &bands) })
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("failed to load bestdori tables: %w", err)
	}

	var err error
	if r.chars, err = byID(chars); err != nil {
		return err
	}
	if r.bands, err = byID(bands); err != nil {
		return err
	}
	return nil
}

func (r *Reader) fetchInto(ctx context.Context, key string, vars map[string]string, v any) error {
	url, err := r.urls.Expand(key, vars)
	if err != nil {
		return err
	}
	return r.env.Fetcher.FetchInto(ctx, url, v)
}

// byID converts a table keyed by decimal strings.
func byID[T any](table map[string]T) (map[int]T, error) {
	out := make(map[int]T, len(table))
	for k, v := range table {
		id, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("unexpected table key %q", k)
		}
		out[id] = v
	}
	return out, nil
}

// CharacterName returns a character's name in lang with spaces removed.
func (r *Reader) CharacterName(id int, lang config.Region) (string, bool) {
	c, ok := r.chars[id]
	if !ok {
		return "", false
	}
	return strings.ReplaceAll(c.CharacterName.or(lang), " ", ""), true
}

// BandName returns a band's name in lang.
func (r *Reader) BandName(id int, lang config.Region) (string, bool) {
	b, ok := r.bands[id]
	if !ok {
		return "", false
	}
	return b.BandName.or(lang), true
}

// bandAbbreviation falls back to the band name for bands without a short
// form.
func (r *Reader) bandAbbreviation(id int, lang config.Region) string {
	if abbr, ok := BandAbbreviations[id]; ok {
		return abbr
	}
	if name, ok := r.BandName(id, lang); ok {
		return name
	}
	return strconv.Itoa(id)
}

// Resolver names characters in lang.
func (r *Reader) Resolver(lang config.Region) transcript.CharacterResolver {
	return transcript.ResolverFunc(func(ref scenario.CharacterRef) (int, string, bool) {
		name, ok := r.CharacterName(ref.CharacterID, lang)
		return ref.CharacterID, name, ok
	})
}

// Read transcribes a fetched asset with character names in lang.
func (r *Reader) Read(ctx context.Context, res fetch.Result, lang config.Region) (string, error) {
	return r.env.Transcribe(ctx, scenario.SourceBestdori, res, r.Resolver(lang))
}

func checkLanguage(lang config.Region) error {
	if _, ok := languageIndex[lang]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownLanguage, lang)
	}
	return nil
}

// story is an episode entry shared by event, band and main story tables.
type story struct {
	ScenarioID  string    `json:"scenarioId"`
	Caption     localized `json:"caption"`
	Title       localized `json:"title"`
	Synopsis    localized `json:"synopsis"`
	BandStoryID *int      `json:"bandStoryId"`
}

func (s story) name(lang config.Region) string {
	return s.ScenarioID + " " + s.Caption.or(lang) + " " + s.Title.or(lang)
}

// write transcribes res and saves it under a title and synopsis. Nothing is
// written when parsing is off.
func (r *Reader) write(ctx context.Context, path, name, synopsis string, res fetch.Result, lang config.Region) error {
	if !r.env.Parse {
		return nil
	}
	text, err := r.Read(ctx, res, lang)
	if err != nil {
		return err
	}
	return r.env.Write(ctx, path, name+"\n\n"+synopsis+"\n\n"+text+"\n")
}
