package sekai

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/config"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/crawl"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/fetch"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/pkg/textfilter"
)

// CardGetter writes both side stories of a card into one file, grouped in a
// folder per character.
type CardGetter struct {
	reader *Reader
	env    *crawl.Env
	urls   config.URLSet
	dir    string

	cards      *Lookup[card]
	episodes   *Lookup[cardEpisode]
	eventCards *Lookup[eventCard]
}

func NewCardGetter(reader *Reader, urls config.URLSet, dir string) *CardGetter {
	return &CardGetter{reader: reader, env: reader.env, urls: urls, dir: dir}
}

// Init loads the cards, cardEpisodes and eventCards tables. Event cards
// that do not show their story are dropped.
func (g *CardGetter) Init(ctx context.Context) error {
	var (
		cards      []card
		episodes   []cardEpisode
		eventCards []eventCard
	)
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		cards, err = fetchTable[card](ctx, g.env, g.urls, "cards")
		return err
	})
	eg.Go(func() (err error) {
		episodes, err = fetchTable[cardEpisode](ctx, g.env, g.urls, "cardEpisodes")
		return err
	})
	eg.Go(func() (err error) {
		eventCards, err = fetchTable[eventCard](ctx, g.env, g.urls, "eventCards")
		return err
	})
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("failed to load card tables: %w", err)
	}

	shown := eventCards[:0]
	for _, ec := range eventCards {
		if ec.IsDisplayCardStory {
			shown = append(shown, ec)
		}
	}

	g.cards = NewLookup(cards, func(c card) int { return c.ID })
	g.episodes = NewLookup(episodes, func(e cardEpisode) int { return e.CardID })
	g.eventCards = NewLookup(shown, func(e eventCard) int { return e.CardID })
	return nil
}

// Get fetches the two side stories of a card.
func (g *CardGetter) Get(ctx context.Context, cardID int) error {
	c, ok := g.cards.Get(cardID)
	if !ok {
		return fmt.Errorf("card %d: %w", cardID, ErrNotFound)
	}
	first := g.episodes.Index(cardID)
	if first < 0 || first+1 >= g.episodes.Len() || g.episodes.Key(first+1) != cardID {
		return fmt.Errorf("card %d episodes: %w", cardID, ErrNotFound)
	}
	ep1, _ := g.episodes.At(first)
	ep2, _ := g.episodes.At(first + 1)

	charaFolder, ok := Characters[c.CharacterID]
	if !ok {
		return fmt.Errorf("card %d: unknown character %d", cardID, c.CharacterID)
	}
	chara, _ := CharacterName(c.CharacterID)
	rarity, ok := RarityNames[c.CardRarityType]
	if !ok {
		return fmt.Errorf("card %d: unknown rarity %q", cardID, c.CardRarityType)
	}
	number, err := characterCardNumber(c.AssetbundleName)
	if err != nil {
		return fmt.Errorf("card %d: %w", cardID, err)
	}

	var support string
	if c.SupportUnit != "none" && c.SupportUnit != "" {
		code, ok := UnitCodes[c.SupportUnit]
		if !ok {
			return fmt.Errorf("card %d: unknown support unit %q", cardID, c.SupportUnit)
		}
		support = "（" + code + "）"
	}

	var belongs string
	if ec, ok := g.eventCards.Get(cardID); ok {
		belongs = fmt.Sprintf("（event-%d）", ec.EventID)
	}

	filename := g.reader.localName(textfilter.ValidFilename(
		fmt.Sprintf("%d_%s%s_%d_%s %s%s", cardID, chara, support, number, rarity, c.Prefix, belongs)))

	labels := g.env.Labels
	notes := []string{filename + " " + labels.FirstHalf, filename + " " + labels.SecondHalf}
	eps := []cardEpisode{ep1, ep2}
	results := make([]fetch.Result, len(eps))

	err = crawl.Each(ctx, len(eps), func(ctx context.Context, i int) error {
		url, err := g.urls.Expand("card_asset", map[string]string{
			"assetbundleName": c.AssetbundleName,
			"scenarioId":      eps[i].ScenarioID,
		})
		if err != nil {
			return err
		}
		results[i], err = g.env.Fetcher.Fetch(ctx, url, notes[i])
		return err
	})
	if err != nil {
		return fmt.Errorf("card %d: %w", cardID, err)
	}

	if g.env.Parse {
		texts := make([]string, len(eps))
		for i, res := range results {
			if texts[i], err = g.reader.Read(ctx, res); err != nil {
				return fmt.Errorf("card %d episode %q: %w", cardID, eps[i].Title, err)
			}
		}
		var b strings.Builder
		fmt.Fprintf(&b, "%s%s-%d %s%s\n\n\n", chara, support, number, c.Prefix, belongs)
		b.WriteString(ep1.Title + "\n\n" + texts[0] + "\n\n\n")
		b.WriteString(ep2.Title + "\n\n" + texts[1] + "\n")
		if err := g.env.Write(ctx, filepath.Join(g.dir, charaFolder, filename+".txt"), b.String()); err != nil {
			return err
		}
	}

	g.env.Logger.Info("Got card story", "card", cardID, "file", filename)
	return nil
}

// characterCardNumber extracts the per-character card number from an asset
// bundle name such as "res021_no017".
func characterCardNumber(bundle string) (int, error) {
	_, tail, ok := strings.Cut(bundle, "_")
	if !ok || len(tail) < 3 {
		return 0, fmt.Errorf("unexpected asset bundle name %q", bundle)
	}
	if i := strings.IndexByte(tail, '_'); i >= 0 {
		tail = tail[:i]
	}
	n, err := strconv.Atoi(tail[2:])
	if err != nil {
		return 0, fmt.Errorf("unexpected asset bundle name %q", bundle)
	}
	return n, nil
}
