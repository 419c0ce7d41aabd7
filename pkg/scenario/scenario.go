package scenario

import (
	"errors"
	"fmt"
)

// ErrMissingField is returned when a scenario asset lacks a required table
// or record field, or an effect lacks the payload its type requires.
var ErrMissingField = errors.New("scenario field missing")

// ErrReferenceOutOfRange is returned when a snippet points outside its table.
var ErrReferenceOutOfRange = errors.New("snippet reference out of range")

// ErrUnknownShape is returned when no decoder exists for the requested source.
var ErrUnknownShape = errors.New("unknown scenario shape")

// Source identifies which upstream data shape a document was decoded from.
type Source int

const (
	SourceSekai    Source = iota // Project Sekai asset (capitalised fields, Character2dId refs)
	SourceBestdori                // BanG Dream asset from bestdori (camelCase fields under "Base")
)

func (s Source) String() string {
	switch s {
	case SourceSekai:
		return "sekai"
	case SourceBestdori:
		return "bestdori"
	default:
		return "unknown"
	}
}

// ParseSource maps a game name ("sekai", "pjsk", "bestdori", "bandori") to a Source.
func ParseSource(name string) (Source, error) {
	switch name {
	case "sekai", "pjsk":
		return SourceSekai, nil
	case "bestdori", "bandori":
		return SourceBestdori, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownShape, name)
	}
}

// TalkEntry is one line of dialogue referenced by Talk snippets.
type TalkEntry struct {
	Speaker string // window display name
	Body    string // may contain embedded newlines
}

// EffectEntry is one staging event referenced by SpecialEffect snippets.
type EffectEntry struct {
	Type      EffectType
	Value     string  // StringVal
	Secondary *string // StringValSub, nil when the shape does not carry it
	Int       *int    // IntVal, nil when absent
}

// Snippet is one presentation event. Snippets are rendered strictly in slice order.
type Snippet struct {
	Sequence  int        // index reported in diagnostics
	Action    ActionKind // selects the table Reference points into
	Reference int        // index into Talks or Effects
}

// CharacterRef points at a character appearing in the scene. Sekai assets
// reference a 2D model id that must be mapped to a character id; Bestdori
// assets reference the character id directly.
type CharacterRef struct {
	CharacterID int
	ModelID     int
}

// Document is the normalised scenario consumed by the transcriber. When
// Placeholder is set the asset carried no structured script and the text is
// used verbatim.
type Document struct {
	Source      Source
	Talks       []TalkEntry
	Effects     []EffectEntry
	Snippets    []Snippet
	Characters  []CharacterRef
	Placeholder *string
}

// Placeholder returns a document that stands in for an unavailable scenario.
func Placeholder(text string) *Document {
	return &Document{Placeholder: &text}
}

// IsPlaceholder reports whether the document is a pass-through note.
func (d *Document) IsPlaceholder() bool {
	return d.Placeholder != nil
}
