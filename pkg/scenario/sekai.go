package scenario

import (
	"encoding/json"
	"fmt"
)

// Project Sekai scenario asset, as served by sekai.best and pjsk.moe.
type sekaiAsset struct {
	TalkData          []sekaiTalk            `json:"TalkData"`
	SpecialEffectData []sekaiEffect          `json:"SpecialEffectData"`
	Snippets          []sekaiSnippet         `json:"Snippets"`
	AppearCharacters  []sekaiAppearCharacter `json:"AppearCharacters"`
}

// Record fields are pointers so an absent key is told apart from a zero.
type sekaiTalk struct {
	WindowDisplayName *string `json:"WindowDisplayName"`
	Body              *string `json:"Body"`
}

type sekaiEffect struct {
	EffectType   *int    `json:"EffectType"`
	StringVal    *string `json:"StringVal"`
	StringValSub *string `json:"StringValSub"`
	IntVal       *int    `json:"IntVal"`
}

type sekaiSnippet struct {
	Index          *int `json:"Index"`
	Action         *int `json:"Action"`
	ReferenceIndex *int `json:"ReferenceIndex"`
}

type sekaiAppearCharacter struct {
	Character2dID int `json:"Character2dId"`
}

// DecodeSekai parses a Project Sekai scenario asset. A JSON string yields a
// placeholder document.
func DecodeSekai(data []byte) (*Document, error) {
	if doc, ok, err := decodePlaceholder(data); ok || err != nil {
		return doc, err
	}

	var asset sekaiAsset
	if err := json.Unmarshal(data, &asset); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sekai scenario: %w", err)
	}

	switch {
	case asset.TalkData == nil:
		return nil, fmt.Errorf("sekai scenario: TalkData: %w", ErrMissingField)
	case asset.SpecialEffectData == nil:
		return nil, fmt.Errorf("sekai scenario: SpecialEffectData: %w", ErrMissingField)
	case asset.Snippets == nil:
		return nil, fmt.Errorf("sekai scenario: Snippets: %w", ErrMissingField)
	case asset.AppearCharacters == nil:
		return nil, fmt.Errorf("sekai scenario: AppearCharacters: %w", ErrMissingField)
	}

	doc := &Document{
		Source:     SourceSekai,
		Talks:      make([]TalkEntry, 0, len(asset.TalkData)),
		Effects:    make([]EffectEntry, 0, len(asset.SpecialEffectData)),
		Snippets:   make([]Snippet, 0, len(asset.Snippets)),
		Characters: make([]CharacterRef, 0, len(asset.AppearCharacters)),
	}
	for i, t := range asset.TalkData {
		if err := requireFields("sekai scenario", "TalkData", i,
			field{"WindowDisplayName", t.WindowDisplayName != nil},
			field{"Body", t.Body != nil},
		); err != nil {
			return nil, err
		}
		doc.Talks = append(doc.Talks, TalkEntry{Speaker: *t.WindowDisplayName, Body: *t.Body})
	}
	for i, e := range asset.SpecialEffectData {
		if err := requireFields("sekai scenario", "SpecialEffectData", i,
			field{"EffectType", e.EffectType != nil},
			field{"StringVal", e.StringVal != nil},
		); err != nil {
			return nil, err
		}
		doc.Effects = append(doc.Effects, EffectEntry{
			Type:      EffectType(*e.EffectType),
			Value:     *e.StringVal,
			Secondary: e.StringValSub,
			Int:       e.IntVal,
		})
	}
	for i, s := range asset.Snippets {
		if err := requireFields("sekai scenario", "Snippets", i,
			field{"Index", s.Index != nil},
			field{"Action", s.Action != nil},
			field{"ReferenceIndex", s.ReferenceIndex != nil},
		); err != nil {
			return nil, err
		}
		doc.Snippets = append(doc.Snippets, Snippet{
			Sequence:  *s.Index,
			Action:    ActionKind(*s.Action),
			Reference: *s.ReferenceIndex,
		})
	}
	for _, c := range asset.AppearCharacters {
		doc.Characters = append(doc.Characters, CharacterRef{ModelID: c.Character2dID})
	}

	return doc, nil
}
