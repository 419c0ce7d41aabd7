package bestdori

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/config"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/crawl"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/fetch"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/pkg/textfilter"
)

const episodeAnimation = "animation"

type cardInfo struct {
	CharacterID     int       `json:"characterId"`
	Rarity          int       `json:"rarity"`
	Prefix          localized `json:"prefix"`
	ResourceSetName string    `json:"resourceSetName"`
	Episodes        *struct {
		Entries []cardEpisode `json:"entries"`
	} `json:"episodes"`
}

type cardEpisode struct {
	Title       localized `json:"title"`
	EpisodeType string    `json:"episodeType"`
	ScenarioID  string    `json:"scenarioId"`
}

// CardGetter writes both side stories of a card into one file, grouped in a
// folder per character and language.
type CardGetter struct {
	reader *Reader
	env    *crawl.Env
	dir    string

	ids map[int]bool
}

func NewCardGetter(reader *Reader, dir string) *CardGetter {
	return &CardGetter{reader: reader, env: reader.env, dir: dir}
}

// Init loads the list of card ids.
func (g *CardGetter) Init(ctx context.Context) error {
	var all map[string]json.RawMessage
	if err := g.reader.fetchInto(ctx, "cards_all", nil, &all); err != nil {
		return fmt.Errorf("failed to load card list: %w", err)
	}
	g.ids = make(map[int]bool, len(all))
	for k := range all {
		if id, err := strconv.Atoi(k); err == nil {
			g.ids[id] = true
		}
	}
	return nil
}

// Get fetches the side stories of a card in lang.
func (g *CardGetter) Get(ctx context.Context, cardID int, lang config.Region) error {
	if err := checkLanguage(lang); err != nil {
		return err
	}
	if !g.ids[cardID] {
		return fmt.Errorf("card %d: %w", cardID, ErrNotFound)
	}

	var info cardInfo
	if err := g.reader.fetchInto(ctx, "cards_id", map[string]string{"id": strconv.Itoa(cardID)}, &info); err != nil {
		return fmt.Errorf("card %d: %w", cardID, err)
	}
	prefix, ok := info.Prefix.in(lang)
	if !ok {
		g.env.Logger.Info("Card not available in language", "card", cardID, "lang", lang)
		return nil
	}
	chara, ok := g.reader.CharacterName(info.CharacterID, lang)
	if !ok {
		return fmt.Errorf("card %d: unknown character %d", cardID, info.CharacterID)
	}
	bandID := g.reader.chars[info.CharacterID].BandID

	storyName := fmt.Sprintf("%d_%s_R%d %s", cardID, chara, info.Rarity, prefix)
	filename := textfilter.ValidFilename(fmt.Sprintf("%04d_%s_R%d %s", cardID, chara, info.Rarity, prefix))
	folder := filepath.Join(g.dir, textfilter.ValidFilename(lang.String()+"-"+g.reader.bandAbbreviation(bandID, lang)+"_"+chara))
	path := filepath.Join(folder, filename+".txt")

	labels := g.env.Labels
	if info.Episodes == nil || len(info.Episodes.Entries) < 2 {
		if g.env.Parse {
			if err := g.env.Write(ctx, path, labels.NoCardStory+"\n"); err != nil {
				return err
			}
		}
		g.env.Logger.Info("Card has no story", "card", cardID, "file", filename)
		return nil
	}

	eps := info.Episodes.Entries[:2]
	results := make([]fetch.Result, len(eps))
	err := crawl.Each(ctx, len(eps), func(ctx context.Context, i int) error {
		if i == 0 && eps[i].EpisodeType == episodeAnimation {
			results[i] = fetch.Result{Placeholder: labels.AnimationStory}
			return nil
		}
		url, err := g.reader.urls.Expand("card_asset", map[string]string{
			"lang":       lang.String(),
			"res_id":     info.ResourceSetName,
			"scenarioId": eps[i].ScenarioID,
		})
		if err != nil {
			return err
		}
		results[i], err = g.env.Fetcher.Fetch(ctx, url, filename)
		return err
	})
	if err != nil {
		return fmt.Errorf("card %d: %w", cardID, err)
	}

	if g.env.Parse {
		var b strings.Builder
		b.WriteString(storyName + "\n\n")
		for i, ep := range eps {
			text, err := g.reader.Read(ctx, results[i], lang)
			if err != nil {
				return fmt.Errorf("card %d episode %d: %w", cardID, i+1, err)
			}
			b.WriteString("《" + ep.Title.or(lang) + "》\n\n" + text)
			if i == 0 {
				b.WriteString("\n\n\n")
			} else {
				b.WriteString("\n")
			}
		}
		if err := g.env.Write(ctx, path, b.String()); err != nil {
			return err
		}
	}

	g.env.Logger.Info("Got card story", "card", cardID, "file", filename)
	return nil
}
