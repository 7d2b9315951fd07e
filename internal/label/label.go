// Package label defines the edge alphabet of the tracking word automaton:
// ANY, CHOICE and STATE variants, each carrying a set of fixed
// atomic-proposition values plus variant-specific extra data.
package label

import (
	"fmt"
	"sort"
	"strings"
)

// Kind tags which of the three Label variants a value holds.
type Kind int

const (
	Any Kind = iota
	Choice
	State
)

func (k Kind) String() string {
	switch k {
	case Any:
		return "ANY"
	case Choice:
		return "CHOICE"
	case State:
		return "STATE"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// APValue fixes one atomic proposition to a truth value.
type APValue struct {
	Prop  string
	Value bool
}

// ChoicePair records that local-existential APTA state Q chose successor
// state QPrime.
type ChoicePair struct {
	Q, QPrime int
}

// Label is the tagged union ANY(aprops) | CHOICE(extra, aprops) |
// STATE(extra, aprops).
//
//	Kind    meaningful fields
//	Any     APProps
//	Choice  APProps, Extra (may be empty: "no choice constraint")
//	State   APProps, Extra, HasExtra (HasExtra false means "any modal target")
type Label struct {
	Kind    Kind
	APProps []APValue

	// Extra is used by Choice (recorded (q,q') pairs) and, via ExtraState,
	// by State (the chosen modal APTA index).
	Extra []ChoicePair

	ExtraState int
	HasExtra   bool
}

// NewAny returns ANY(aprops).
func NewAny(aprops []APValue) Label {
	return Label{Kind: Any, APProps: normalizeProps(aprops)}
}

// NewChoice returns CHOICE(extra, aprops).
func NewChoice(extra []ChoicePair, aprops []APValue) Label {
	return Label{Kind: Choice, Extra: normalizeChoice(extra), APProps: normalizeProps(aprops)}
}

// NewState returns STATE(extra, aprops) where extra is a concrete APTA
// state index.
func NewState(extra int, aprops []APValue) Label {
	return Label{Kind: State, ExtraState: extra, HasExtra: true, APProps: normalizeProps(aprops)}
}

// NewStateAny returns STATE(empty/∅, aprops): "any universal target".
func NewStateAny(aprops []APValue) Label {
	return Label{Kind: State, HasExtra: false, APProps: normalizeProps(aprops)}
}

func normalizeProps(aprops []APValue) []APValue {
	out := append([]APValue(nil), aprops...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Prop != out[j].Prop {
			return out[i].Prop < out[j].Prop
		}
		return !out[i].Value && out[j].Value
	})
	return out
}

func normalizeChoice(extra []ChoicePair) []ChoicePair {
	out := append([]ChoicePair(nil), extra...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Q != out[j].Q {
			return out[i].Q < out[j].Q
		}
		return out[i].QPrime < out[j].QPrime
	})
	return out
}

// Matches reports whether sigma (a set of fixed AP values, possibly
// partial) is consistent with l.APProps: for every (p,b) in l.APProps, sigma
// must either have no entry for p or have sigma[p] == b. The rule is the
// same for all three variants; it is what the parity game applies when
// testing whether a tracking transition may fire against a carried letter.
func (l Label) Matches(sigma map[string]bool) bool {
	for _, av := range l.APProps {
		if v, ok := sigma[av.Prop]; ok && v != av.Value {
			return false
		}
	}
	return true
}

// Equal reports whether l and other describe the same label: same Kind,
// same APProps, and (when constrained) the same Extra.
func (l Label) Equal(other Label) bool {
	if l.Kind != other.Kind {
		return false
	}
	if !equalProps(l.APProps, other.APProps) {
		return false
	}
	switch l.Kind {
	case Choice:
		return equalChoice(l.Extra, other.Extra)
	case State:
		if l.HasExtra != other.HasExtra {
			return false
		}
		if l.HasExtra {
			return l.ExtraState == other.ExtraState
		}
		return true
	default:
		return true
	}
}

func equalProps(a, b []APValue) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalChoice(a, b []ChoicePair) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// String renders a human-readable form, used for diagnostics and as the
// canonical string that Key() returns.
func (l Label) String() string {
	var sb strings.Builder
	sb.WriteString(l.Kind.String())
	sb.WriteString("(")
	parts := make([]string, 0, len(l.APProps)+1)
	for _, av := range l.APProps {
		parts = append(parts, fmt.Sprintf("%s=%v", av.Prop, av.Value))
	}
	switch l.Kind {
	case Choice:
		for _, cp := range l.Extra {
			parts = append(parts, fmt.Sprintf("%d->%d", cp.Q, cp.QPrime))
		}
	case State:
		if l.HasExtra {
			parts = append(parts, fmt.Sprintf("q=%d", l.ExtraState))
		}
	}
	sb.WriteString(strings.Join(parts, ","))
	sb.WriteString(")")
	return sb.String()
}

// Key returns a canonical string usable as a map key, since Label contains
// a slice field and so is not itself comparable.
func (l Label) Key() string { return l.String() }
