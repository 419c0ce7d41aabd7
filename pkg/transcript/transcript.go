// Package transcript renders scenario documents as plain-text transcripts.
//
// A transcript is a header naming the characters that appear, followed by one
// line per dialogue snippet and staging effect, in snippet order. Blank lines
// separate telops and flashback markers from the surrounding dialogue.
package transcript

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/pkg/scenario"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/pkg/textfilter"
)

// Transcription errors share the scenario package sentinels.
var (
	ErrReferenceOutOfRange = scenario.ErrReferenceOutOfRange
	ErrMissingField        = scenario.ErrMissingField
)

// CharacterResolver maps an appearing-character reference to a character id
// and display name. ok is false for background extras, which are left out of
// the header.
type CharacterResolver interface {
	ResolveCharacter(ref scenario.CharacterRef) (id int, name string, ok bool)
}

// ResolverFunc adapts a function to CharacterResolver.
type ResolverFunc func(ref scenario.CharacterRef) (int, string, bool)

func (f ResolverFunc) ResolveCharacter(ref scenario.CharacterRef) (int, string, bool) {
	return f(ref)
}

// NameTable resolves references by CharacterID.
type NameTable map[int]string

func (n NameTable) ResolveCharacter(ref scenario.CharacterRef) (int, string, bool) {
	name, ok := n[ref.CharacterID]
	return ref.CharacterID, name, ok
}

// Options controls rendering.
type Options struct {
	Debug  bool   // render unhandled snippets and effects as diagnostic lines
	Labels Labels // zero value means EnglishLabels
}

// Transcriber turns documents into transcripts. It holds no per-call state
// and is safe for concurrent use.
type Transcriber struct {
	resolver CharacterResolver
	opts     Options
}

// New creates a transcriber. resolver may be nil, in which case no header is
// produced.
func New(resolver CharacterResolver, opts Options) *Transcriber {
	if opts.Labels == (Labels{}) {
		opts.Labels = EnglishLabels
	}
	return &Transcriber{resolver: resolver, opts: opts}
}

// Transcribe is shorthand for New(resolver, opts).Transcribe(doc).
func Transcribe(doc *scenario.Document, resolver CharacterResolver, opts Options) (string, error) {
	return New(resolver, opts).Transcribe(doc)
}

// Transcribe renders doc. Placeholder documents are returned verbatim.
func (t *Transcriber) Transcribe(doc *scenario.Document) (string, error) {
	if doc == nil {
		return "", errors.New("nil scenario document")
	}
	if doc.IsPlaceholder() {
		return *doc.Placeholder, nil
	}

	d := dialectFor(doc.Source)
	w := &lineWriter{pendingBlank: true}

	for _, s := range doc.Snippets {
		switch s.Action {
		case scenario.ActionTalk:
			if s.Reference < 0 || s.Reference >= len(doc.Talks) {
				return "", fmt.Errorf("snippet %d: talk %d of %d: %w", s.Sequence, s.Reference, len(doc.Talks), ErrReferenceOutOfRange)
			}
			talk := doc.Talks[s.Reference]
			w.line(talk.Speaker + t.opts.Labels.SpeakerMark + textfilter.OneLine(talk.Body))

		case scenario.ActionSpecialEffect:
			if s.Reference < 0 || s.Reference >= len(doc.Effects) {
				return "", fmt.Errorf("snippet %d: effect %d of %d: %w", s.Sequence, s.Reference, len(doc.Effects), ErrReferenceOutOfRange)
			}
			if err := t.renderEffect(w, d, s, doc.Effects[s.Reference]); err != nil {
				return "", err
			}

		default:
			if t.opts.Debug {
				w.raw(fmt.Sprintf("SnippetAction: %s, %d", s.Action, s.Sequence))
			}
		}
	}

	body := w.String()
	body = strings.TrimPrefix(body, "\n")
	body = strings.TrimSuffix(body, "\n")

	header := t.header(doc.Characters)
	switch {
	case header == "":
		return body, nil
	case body == "":
		return header, nil
	default:
		return header + "\n\n" + body, nil
	}
}

func (t *Transcriber) renderEffect(w *lineWriter, d dialect, s scenario.Snippet, e scenario.EffectEntry) error {
	l := t.opts.Labels

	if !d.renders(e.Type) {
		if t.opts.Debug {
			w.raw(fmt.Sprintf("SpecialEffectType: %s, %d, %s", e.Type, s.Sequence, e.Value))
		}
		return nil
	}

	switch e.Type {
	case scenario.EffectTelop:
		w.separated(l.TelopOpen + e.Value + l.TelopClose)
	case scenario.EffectFlashbackIn:
		w.separated(l.FlashbackIn)
	case scenario.EffectFlashbackOut:
		w.separated(l.FlashbackOut)
	case scenario.EffectBlackOut:
		w.line(l.BlackOut)
	case scenario.EffectWhiteOut:
		w.line(l.WhiteOut)
	case scenario.EffectPlaceInfo:
		w.line(l.Place + l.ValueMark + e.Value)
	case scenario.EffectFullScreenText:
		w.line(l.FullScreenText + l.ValueMark + textfilter.OneLine(e.Value))
	case scenario.EffectSimpleSelectable:
		w.line(l.Choice + l.ValueMark + e.Value)
	case scenario.EffectMovie:
		w.line(l.Movie + l.ValueMark + e.Value)
	case scenario.EffectPlayMV:
		if e.Int == nil {
			return fmt.Errorf("snippet %d: PlayMV IntVal: %w", s.Sequence, ErrMissingField)
		}
		w.line(fmt.Sprintf("%s%s%d", l.PlayMV, l.ValueMark, *e.Int))
	case scenario.EffectChangeBackground:
		switch {
		case d.cgStills && IsCGStill(e.Value):
			w.line(l.CGStill + l.ValueMark + e.Value)
		case t.opts.Debug:
			w.line(l.Background + l.ValueMark + d.backgroundDetail(e))
		default:
			w.line(l.Background)
		}
	}
	return nil
}

// header lists resolvable characters in ascending id order.
func (t *Transcriber) header(refs []scenario.CharacterRef) string {
	if t.resolver == nil {
		return ""
	}

	names := make(map[int]string)
	for _, ref := range refs {
		id, name, ok := t.resolver.ResolveCharacter(ref)
		if !ok {
			continue
		}
		names[id] = name
	}
	if len(names) == 0 {
		return ""
	}

	ids := make([]int, 0, len(names))
	for id := range names {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	ordered := make([]string, 0, len(ids))
	for _, id := range ids {
		ordered = append(ordered, names[id])
	}

	l := t.opts.Labels
	return l.CharactersOpen + strings.Join(ordered, l.NameSeparator) + l.CharactersClose
}

// lineWriter accumulates transcript lines. pendingBlank records that the next
// line must be preceded by a blank line.
type lineWriter struct {
	b            strings.Builder
	pendingBlank bool
}

// line writes text, honouring and then clearing pendingBlank.
func (w *lineWriter) line(text string) {
	if w.pendingBlank {
		w.b.WriteString("\n")
	}
	w.b.WriteString(text)
	w.b.WriteString("\n")
	w.pendingBlank = false
}

// separated writes text with a blank line before it and requests one after it.
func (w *lineWriter) separated(text string) {
	w.b.WriteString("\n")
	w.b.WriteString(text)
	w.b.WriteString("\n")
	w.pendingBlank = true
}

// raw writes a diagnostic line without touching pendingBlank.
func (w *lineWriter) raw(text string) {
	w.b.WriteString(text)
	w.b.WriteString("\n")
}

func (w *lineWriter) String() string {
	return w.b.String()
}
