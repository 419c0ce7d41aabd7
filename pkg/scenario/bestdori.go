package scenario

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// BanG Dream scenario asset as served by bestdori. The script lives under
// "Base"; an unwrapped object is accepted too.
type bestdoriAsset struct {
	Base *bestdoriScript `json:"Base"`
	bestdoriScript
}

type bestdoriScript struct {
	TalkData          []bestdoriTalk      `json:"talkData"`
	SpecialEffectData []bestdoriEffect    `json:"specialEffectData"`
	Snippets          []bestdoriSnippet   `json:"snippets"`
	AppearCharacters  []bestdoriCharacter `json:"appearCharacters"`
}

type bestdoriTalk struct {
	WindowDisplayName *string `json:"windowDisplayName"`
	Body              *string `json:"body"`
}

type bestdoriEffect struct {
	EffectType   *int    `json:"effectType"`
	StringVal    *string `json:"stringVal"`
	StringValSub *string `json:"stringValSub"`
	IntVal       *int    `json:"intVal"`
}

type bestdoriSnippet struct {
	ActionType     *int `json:"actionType"`
	ReferenceIndex *int `json:"referenceIndex"`
}

type bestdoriCharacter struct {
	CharacterID int `json:"characterId"`
}

// DecodeBestdori parses a BanG Dream scenario asset. A JSON string yields a
// placeholder document.
func DecodeBestdori(data []byte) (*Document, error) {
	if doc, ok, err := decodePlaceholder(data); ok || err != nil {
		return doc, err
	}

	var asset bestdoriAsset
	if err := json.Unmarshal(data, &asset); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bestdori scenario: %w", err)
	}

	script := asset.bestdoriScript
	if asset.Base != nil {
		script = *asset.Base
	}

	switch {
	case script.TalkData == nil:
		return nil, fmt.Errorf("bestdori scenario: talkData: %w", ErrMissingField)
	case script.SpecialEffectData == nil:
		return nil, fmt.Errorf("bestdori scenario: specialEffectData: %w", ErrMissingField)
	case script.Snippets == nil:
		return nil, fmt.Errorf("bestdori scenario: snippets: %w", ErrMissingField)
	case script.AppearCharacters == nil:
		return nil, fmt.Errorf("bestdori scenario: appearCharacters: %w", ErrMissingField)
	}

	doc := &Document{
		Source:     SourceBestdori,
		Talks:      make([]TalkEntry, 0, len(script.TalkData)),
		Effects:    make([]EffectEntry, 0, len(script.SpecialEffectData)),
		Snippets:   make([]Snippet, 0, len(script.Snippets)),
		Characters: make([]CharacterRef, 0, len(script.AppearCharacters)),
	}
	for i, t := range script.TalkData {
		if err := requireFields("bestdori scenario", "talkData", i,
			field{"windowDisplayName", t.WindowDisplayName != nil},
			field{"body", t.Body != nil},
		); err != nil {
			return nil, err
		}
		doc.Talks = append(doc.Talks, TalkEntry{Speaker: *t.WindowDisplayName, Body: *t.Body})
	}
	for i, e := range script.SpecialEffectData {
		if err := requireFields("bestdori scenario", "specialEffectData", i,
			field{"effectType", e.EffectType != nil},
			field{"stringVal", e.StringVal != nil},
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
	// bestdori snippets carry no index of their own; position is the sequence
	for i, s := range script.Snippets {
		if err := requireFields("bestdori scenario", "snippets", i,
			field{"actionType", s.ActionType != nil},
			field{"referenceIndex", s.ReferenceIndex != nil},
		); err != nil {
			return nil, err
		}
		doc.Snippets = append(doc.Snippets, Snippet{
			Sequence:  i,
			Action:    ActionKind(*s.ActionType),
			Reference: *s.ReferenceIndex,
		})
	}
	for _, c := range script.AppearCharacters {
		doc.Characters = append(doc.Characters, CharacterRef{CharacterID: c.CharacterID})
	}

	return doc, nil
}

// decodePlaceholder handles assets that are a bare JSON string.
func decodePlaceholder(data []byte) (*Document, bool, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return nil, false, nil
	}
	var text string
	if err := json.Unmarshal(trimmed, &text); err != nil {
		return nil, true, fmt.Errorf("failed to unmarshal placeholder: %w", err)
	}
	return Placeholder(text), true, nil
}

type field struct {
	name    string
	present bool
}

// requireFields reports the first absent field of record i in table.
func requireFields(shape, table string, i int, fields ...field) error {
	for _, f := range fields {
		if !f.present {
			return fmt.Errorf("%s: %s[%d].%s: %w", shape, table, i, f.name, ErrMissingField)
		}
	}
	return nil
}

// Decode parses an asset using the decoder for source.
func Decode(source Source, data []byte) (*Document, error) {
	switch source {
	case SourceSekai:
		return DecodeSekai(data)
	case SourceBestdori:
		return DecodeBestdori(data)
	default:
		return nil, fmt.Errorf("%w: source %d", ErrUnknownShape, source)
	}
}
