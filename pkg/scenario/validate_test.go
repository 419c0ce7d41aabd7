package scenario

import (
	"errors"
	"testing"
)

func TestDocumentValidate(t *testing.T) {
	doc := &Document{
		Talks:   []TalkEntry{{Speaker: "A", Body: "hi"}},
		Effects: []EffectEntry{{Type: EffectTelop}, {Type: EffectType(999)}},
		Snippets: []Snippet{
			{Sequence: 0, Action: ActionTalk, Reference: 0},
			{Sequence: 1, Action: ActionTalk, Reference: 1},
			{Sequence: 2, Action: ActionSpecialEffect, Reference: 0},
			{Sequence: 3, Action: ActionSpecialEffect, Reference: 1},
			{Sequence: 4, Action: ActionSpecialEffect, Reference: -1},
			{Sequence: 5, Action: ActionKind(42)},
			{Sequence: 6, Action: ActionSound, Reference: 99},
		},
	}

	issues := doc.Validate()
	if len(issues) != 4 {
		t.Fatalf("got %d issues, want 4: %v", len(issues), issues)
	}

	want := []struct {
		snippet int
		warning bool
		badRef  bool
	}{
		{1, false, true},
		{3, true, false},
		{4, false, true},
		{5, true, false},
	}
	for i, w := range want {
		got := issues[i]
		if got.Snippet != w.snippet || got.Warning != w.warning || errors.Is(got.Err, ErrReferenceOutOfRange) != w.badRef {
			t.Errorf("issue %d = %+v, want snippet %d warning %v badRef %v", i, got, w.snippet, w.warning, w.badRef)
		}
	}
}

func TestDocumentValidate_Placeholder(t *testing.T) {
	if issues := Placeholder("none").Validate(); issues != nil {
		t.Errorf("placeholder issues = %v", issues)
	}
}
