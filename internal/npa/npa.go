// Package npa builds the tracking nondeterministic parity word automaton:
// one NPA state per APTA state, reading words whose letters are
// label.Label values produced by the game arena. The labels record which
// disjunctive choices a play took, which is what lets the parity game
// check them later.
package npa

import (
	"sort"

	"github.com/dekarrin/mucalcsat/internal/apta"
	"github.com/dekarrin/mucalcsat/internal/label"
	"github.com/dekarrin/mucalcsat/internal/util"
)

// sortedLabels returns next's keys in a canonical order (empty label first,
// then ascending by proposition name, then by truth value), since
// apta.Label is a struct and so isn't usable with a generic ordered-key
// helper the way plain strings or ints are.
func sortedLabels(next map[apta.Label]util.KeySet[int]) []apta.Label {
	keys := make([]apta.Label, 0, len(next))
	for k := range next {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Any != b.Any {
			return a.Any
		}
		if a.Prop != b.Prop {
			return a.Prop < b.Prop
		}
		return !a.Value && b.Value
	})
	return keys
}

// Transition is one outgoing edge of an NPA state: reading lbl moves
// (nondeterministically) to every state in Targets.
type Transition struct {
	Label   label.Label
	Targets []int
}

// NPA is the tracking automaton: State i corresponds 1:1 to APTA state i.
type NPA struct {
	APTA        *apta.APTA
	Priority    []int // priority(t) = Omega(q) + 1
	Transitions [][]Transition
}

// Build constructs the NPA for the given APTA.
func Build(a *apta.APTA) *NPA {
	n := &NPA{
		APTA:        a,
		Priority:    make([]int, len(a.States)),
		Transitions: make([][]Transition, len(a.States)),
	}

	for idx, st := range a.States {
		n.Priority[idx] = st.Priority + 1

		switch {
		case st.Local && st.Existential:
			n.buildLocalExistential(idx, st)
		case st.Local && !st.Existential:
			n.buildLocalUniversal(idx, st)
		case !st.Local && !st.Existential:
			n.buildModalUniversal(idx, st)
		default: // modal existential
			n.buildModalExistential(idx, st)
		}
	}

	return n
}

func (n *NPA) addTransition(from int, lbl label.Label, targets []int) {
	n.Transitions[from] = append(n.Transitions[from], Transition{Label: lbl, Targets: targets})
}

// buildLocalExistential implements the Q-or case: one CHOICE edge per
// recorded (q, q') pair, each going to the singleton {q'}.
func (n *NPA) buildLocalExistential(q int, st *apta.State) {
	for _, lbl := range sortedLabels(st.Next) {
		targets := st.Next[lbl]
		for _, qPrime := range targets.Elements() {
			choiceLabel := label.NewChoice([]label.ChoicePair{{Q: q, QPrime: qPrime}}, nil)
			n.addTransition(q, choiceLabel, []int{qPrime})
		}
	}
}

// buildLocalUniversal implements the Q-and case: an ANY edge per distinct
// label (merging the empty label's targets across multiple AND/OR parents
// is moot here since each state's Next is already keyed uniquely).
func (n *NPA) buildLocalUniversal(q int, st *apta.State) {
	for _, lbl := range sortedLabels(st.Next) {
		targets := st.Next[lbl].Elements()
		var anyLabel label.Label
		if lbl.Any {
			anyLabel = label.NewAny(nil)
		} else {
			anyLabel = label.NewAny([]label.APValue{{Prop: lbl.Prop, Value: lbl.Value}})
		}
		n.addTransition(q, anyLabel, targets)
	}
}

// buildModalUniversal implements the Q-box case: a STATE() edge per
// successor set, plus a CHOICE() self-loop allowing the state to wait while
// the arena advances through a letter.
func (n *NPA) buildModalUniversal(q int, st *apta.State) {
	for _, lbl := range sortedLabels(st.Next) {
		targets := st.Next[lbl].Elements()
		n.addTransition(q, label.NewStateAny(nil), targets)
	}
	n.addTransition(q, label.NewChoice(nil, nil), []int{q})
}

// buildModalExistential implements the Q-diamond case: a STATE(extra=q)
// edge per successor set, plus the same waiting self-loop.
func (n *NPA) buildModalExistential(q int, st *apta.State) {
	for _, lbl := range sortedLabels(st.Next) {
		targets := st.Next[lbl].Elements()
		n.addTransition(q, label.NewState(q, nil), targets)
	}
	n.addTransition(q, label.NewChoice(nil, nil), []int{q})
}
