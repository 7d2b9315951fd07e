// Package apta builds the alternating parity tree automaton (APTA) whose
// states are subformulae of a modal mu-calculus formula, and computes its
// priority function Omega. States are created by worklist expansion and
// interned by each formula's canonical string key, which is what keeps the
// state set finite under fixpoint unfolding.
package apta

import (
	"fmt"

	"github.com/dekarrin/mucalcsat/internal/formula"
	"github.com/dekarrin/mucalcsat/internal/muerrors"
	"github.com/dekarrin/mucalcsat/internal/util"
)

// Label is the edge alphabet of the APTA: either the empty label (Any) or a
// proposition fixed to a truth value.
type Label struct {
	Any   bool
	Prop  string
	Value bool
}

// AnyLabel returns the empty (unconditional) label.
func AnyLabel() Label { return Label{Any: true} }

// PropLabel returns the label that requires Prop to have the given Value.
func PropLabel(prop string, value bool) Label { return Label{Prop: prop, Value: value} }

func (l Label) String() string {
	if l.Any {
		return "∅"
	}
	return fmt.Sprintf("(%s,%v)", l.Prop, l.Value)
}

// State is a single APTA state: a subformula plus its classification,
// priorities and outgoing transitions.
type State struct {
	Value *formula.Formula

	// Local is true iff the top operator is non-modal (PROP, NEG, AND, OR,
	// MU, NU, LIT).
	Local bool

	// Existential is true iff the top operator is one of {OR, MU, NU, DIA}
	// or the state is LIT(false).
	Existential bool

	// PrimePriority is Omega'(q), the priority assigned directly from the
	// formula shape, before SCC propagation.
	PrimePriority int

	// Priority is Omega(q), the total priority after SCC propagation.
	Priority int

	// Next maps a label to the (non-empty, by construction) set of
	// successor state indices reachable under it.
	Next map[Label]util.KeySet[int]
}

// APTA is an alternating parity tree automaton: a set of interned states
// plus the transition structure built by Build.
type APTA struct {
	States []*State
	index  map[string]int
}

// New returns an empty APTA.
func New() *APTA {
	return &APTA{index: make(map[string]int)}
}

// GetState returns the index of f's state, creating it (uninitialized
// besides its classification and prime priority) if this is the first time
// f has been referenced. Because formulae are interned by Key(), repeated
// references -- including the ones produced by fixpoint unfolding folding
// back onto an already-seen formula -- resolve to the same index, which is
// what keeps the state set finite.
func (a *APTA) GetState(f *formula.Formula) int {
	key := f.Key()
	if idx, ok := a.index[key]; ok {
		return idx
	}

	idx := len(a.States)
	st := &State{
		Value:         f,
		Local:         isLocal(f),
		Existential:   isExistential(f),
		PrimePriority: primePriority(f),
		Next:          make(map[Label]util.KeySet[int]),
	}
	a.States = append(a.States, st)
	a.index[key] = idx
	return idx
}

func isLocal(f *formula.Formula) bool {
	switch f.Kind {
	case formula.Prop, formula.Neg, formula.And, formula.Or, formula.Mu, formula.Nu, formula.Lit:
		return true
	default:
		return false
	}
}

func isExistential(f *formula.Formula) bool {
	switch f.Kind {
	case formula.Or, formula.Mu, formula.Nu, formula.Dia:
		return true
	case formula.Lit:
		return !f.Bool
	default:
		return false
	}
}

func primePriority(f *formula.Formula) int {
	switch {
	case f.Kind == formula.Lit && f.Bool:
		return 0
	case f.Kind == formula.Lit && !f.Bool:
		return 1
	case f.Kind == formula.Mu || f.Kind == formula.Nu:
		return alternationLevel(f)
	default:
		return 0
	}
}

func (a *APTA) addTransition(from int, label Label, target *formula.Formula) {
	targetIdx := a.GetState(target)
	st := a.States[from]
	set, ok := st.Next[label]
	if !ok {
		set = util.NewKeySet[int]()
		st.Next[label] = set
	}
	set.Add(targetIdx)
}

// expand adds the successors of states[idx] according to its top operator.
func (a *APTA) expand(idx int) error {
	st := a.States[idx]
	f := st.Value

	switch f.Kind {
	case formula.And, formula.Or:
		a.addTransition(idx, AnyLabel(), f.Left)
		a.addTransition(idx, AnyLabel(), f.Right)
	case formula.Dia, formula.Box:
		a.addTransition(idx, AnyLabel(), f.Sub)
	case formula.Mu, formula.Nu:
		unfolded := formula.Substitute(f.Sub, f.Name, f)
		a.addTransition(idx, AnyLabel(), unfolded)
	case formula.Prop:
		a.addTransition(idx, PropLabel(f.Name, true), formula.NewLit(true))
		a.addTransition(idx, PropLabel(f.Name, false), formula.NewLit(false))
	case formula.Neg:
		prop := f.Sub.Name
		a.addTransition(idx, PropLabel(prop, true), formula.NewLit(false))
		a.addTransition(idx, PropLabel(prop, false), formula.NewLit(true))
	case formula.Lit:
		a.addTransition(idx, AnyLabel(), f)
	default:
		return muerrors.NewInternalError(fmt.Sprintf("unknown AST operator %v encountered while expanding an APTA state", f.Kind))
	}
	return nil
}

// Build constructs the APTA reachable from root by worklist expansion, then
// computes Omega via SCC propagation (ComputeTotalPriority). It returns the
// automaton and the index of root's state.
func Build(root *formula.Formula) (*APTA, int, error) {
	a := New()
	rootIdx := a.GetState(root)

	expanded := 0
	for expanded < len(a.States) {
		if err := a.expand(expanded); err != nil {
			return nil, 0, err
		}
		expanded++
	}

	a.ComputeTotalPriority()

	if err := a.Validate(); err != nil {
		return nil, 0, err
	}

	return a, rootIdx, nil
}

// Validate checks that every state classified as existential has a
// non-empty successor set for each of its labels. A
// violation is a programmer error in the builder, not a malformed-input
// condition, so it is reported as an InternalError.
func (a *APTA) Validate() error {
	for idx, st := range a.States {
		if !st.Existential {
			continue
		}
		for label, succs := range st.Next {
			if succs.Empty() {
				return muerrors.NewInternalError(fmt.Sprintf(
					"existential state %d (%s) has an empty successor set for label %s", idx, st.Value, label))
			}
		}
	}
	return nil
}
