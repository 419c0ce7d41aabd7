package scenario

import "fmt"

// Issue is one problem found by Validate. Warnings do not stop a
// transcript from being produced.
type Issue struct {
	Snippet int
	Err     error
	Warning bool
}

func (i Issue) Error() string {
	return fmt.Sprintf("snippet %d: %v", i.Snippet, i.Err)
}

// Validate checks that every snippet references an existing talk or effect
// entry. Unknown actions and effect types are reported as warnings.
func (d *Document) Validate() []Issue {
	if d.IsPlaceholder() {
		return nil
	}

	var issues []Issue
	for _, s := range d.Snippets {
		if _, ok := s.Action.Name(); !ok {
			issues = append(issues, Issue{Snippet: s.Sequence, Err: fmt.Errorf("unknown action %d", s.Action), Warning: true})
			continue
		}

		switch s.Action {
		case ActionTalk:
			if s.Reference < 0 || s.Reference >= len(d.Talks) {
				issues = append(issues, Issue{Snippet: s.Sequence, Err: fmt.Errorf("talk %d of %d: %w", s.Reference, len(d.Talks), ErrReferenceOutOfRange)})
			}
		case ActionSpecialEffect:
			if s.Reference < 0 || s.Reference >= len(d.Effects) {
				issues = append(issues, Issue{Snippet: s.Sequence, Err: fmt.Errorf("effect %d of %d: %w", s.Reference, len(d.Effects), ErrReferenceOutOfRange)})
				continue
			}
			if t := d.Effects[s.Reference].Type; !knownEffect(t) {
				issues = append(issues, Issue{Snippet: s.Sequence, Err: fmt.Errorf("unknown effect type %d", t), Warning: true})
			}
		}
	}
	return issues
}

func knownEffect(t EffectType) bool {
	_, ok := t.Name()
	return ok
}
