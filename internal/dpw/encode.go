// Package dpw implements the boolean-label side of determinization:
// translating tracking-automaton Labels into conjunctions of literals over
// the AP set, the control variables _u0.._uK-1, and _is_choice, handing
// the result to a Determinizer, and decoding the determinized automaton's
// edges back into Labels. Cube (a plain literal map) stands in for a BDD
// cube; the Determinizer interface (determinizer.go) is the swappable
// boundary an external determinization process can plug into.
package dpw

import (
	"fmt"
	"sort"

	"github.com/dekarrin/mucalcsat/internal/apta"
	"github.com/dekarrin/mucalcsat/internal/label"
	"github.com/dekarrin/mucalcsat/internal/muerrors"
	"github.com/dekarrin/mucalcsat/internal/npa"
)

// TriState is the value of one boolean variable within a Cube.
type TriState int

const (
	Unconstrained TriState = iota
	True
	False
)

// Cube is a conjunction of literals: variable name -> fixed truth value.
// Encode leaves unconstrained variables absent; a key mapped to
// Unconstrained is treated the same as an absent one.
type Cube map[string]TriState

// isChoiceVar and uVar name the reserved control variables the encoding
// adds alongside the formula's own atomic propositions.
const isChoiceVar = "_is_choice"

func uVar(i int) string { return fmt.Sprintf("_u%d", i) }

// Encoder translates between label.Label and Cube for one fixed NPA. Local-
// existential and modal-existential APTA states are each assigned a stable,
// ascending position (by APTA index) the first time the Encoder is built;
// those positions -- not the raw APTA indices -- are what get encoded into
// the _u bits, since the bit width K is sized against the *count* of each
// kind of state, not their index values.
type Encoder struct {
	APTA *apta.APTA

	localExistential []int // sorted APTA indices, local && existential
	modalExistential []int // sorted APTA indices, !local && existential
	localPos         map[int]int
	modalPos         map[int]int

	// K is the number of _u control variables: max(|local existential|,
	// ceil(log2(|modal existential|))).
	K int

	// modalBits is ceil(log2(|modal existential|)), the number of _u bits
	// actually used to encode a STATE extra value (<= K).
	modalBits int
}

// NewEncoder builds the Encoder for a, fixing the position assignments and
// K for the lifetime of the returned value.
func NewEncoder(a *apta.APTA) *Encoder {
	e := &Encoder{APTA: a, localPos: map[int]int{}, modalPos: map[int]int{}}

	for idx, st := range a.States {
		switch {
		case st.Local && st.Existential:
			e.localExistential = append(e.localExistential, idx)
		case !st.Local && st.Existential:
			e.modalExistential = append(e.modalExistential, idx)
		}
	}
	sort.Ints(e.localExistential)
	sort.Ints(e.modalExistential)
	for i, idx := range e.localExistential {
		e.localPos[idx] = i
	}
	for i, idx := range e.modalExistential {
		e.modalPos[idx] = i
	}

	e.modalBits = bitsNeeded(len(e.modalExistential))
	e.K = max(len(e.localExistential), e.modalBits)
	return e
}

func bitsNeeded(n int) int {
	if n <= 1 {
		return 0
	}
	bits := 0
	for (1 << bits) < n {
		bits++
	}
	return bits
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Encode translates lbl into its Cube representation.
func (e *Encoder) Encode(lbl label.Label) Cube {
	cube := Cube{}
	for _, av := range lbl.APProps {
		if av.Value {
			cube[av.Prop] = True
		} else {
			cube[av.Prop] = False
		}
	}

	switch lbl.Kind {
	case label.Any:
		// no control variables constrained
	case label.State:
		cube[isChoiceVar] = False
		if lbl.HasExtra {
			pos, ok := e.modalPos[lbl.ExtraState]
			if !ok {
				pos = 0
			}
			for i := 0; i < e.modalBits; i++ {
				bit := (pos >> (e.modalBits - 1 - i)) & 1
				if bit == 1 {
					cube[uVar(i)] = True
				} else {
					cube[uVar(i)] = False
				}
			}
		}
	case label.Choice:
		cube[isChoiceVar] = True
		for _, pair := range lbl.Extra {
			pos, ok := e.localPos[pair.Q]
			if !ok {
				continue
			}
			succs := e.APTA.States[pair.Q].Next[apta.AnyLabel()].Elements()
			if len(succs) == 0 {
				continue
			}
			first := succs[0]
			if pair.QPrime == first {
				cube[uVar(pos)] = False
			} else {
				cube[uVar(pos)] = True
			}
		}
	}
	return cube
}

// Decode reverses Encode, keying the three cases off _is_choice: absent or
// unconstrained means ANY, true means CHOICE, false means STATE.
func (e *Encoder) Decode(cube Cube) (label.Label, error) {
	var aprops []label.APValue
	for v, ts := range cube {
		if v == isChoiceVar || isUVar(v) {
			continue
		}
		if ts == Unconstrained {
			continue
		}
		aprops = append(aprops, label.APValue{Prop: v, Value: ts == True})
	}

	ic, hasIC := cube[isChoiceVar]
	if !hasIC || ic == Unconstrained {
		return label.NewAny(aprops), nil
	}

	if ic == True {
		var extra []label.ChoicePair
		for _, q := range e.localExistential {
			pos := e.localPos[q]
			ts, ok := cube[uVar(pos)]
			if !ok || ts == Unconstrained {
				continue
			}
			succs := e.APTA.States[q].Next[apta.AnyLabel()].Elements()
			if len(succs) == 0 {
				continue
			}
			var target int
			if ts == False {
				target = succs[0]
			} else if len(succs) > 1 {
				target = succs[1]
			} else {
				target = succs[0]
			}
			extra = append(extra, label.ChoicePair{Q: q, QPrime: target})
		}
		return label.NewChoice(extra, aprops), nil
	}

	// ic == False: STATE
	anyBitSet := false
	value := 0
	for i := 0; i < e.modalBits; i++ {
		ts, ok := cube[uVar(i)]
		if !ok || ts == Unconstrained {
			continue
		}
		anyBitSet = true
		value <<= 1
		if ts == True {
			value |= 1
		}
	}
	if !anyBitSet {
		return label.NewStateAny(aprops), nil
	}
	if value < 0 || value >= len(e.modalExistential) {
		return label.Label{}, muerrors.NewInternalError(fmt.Sprintf("dpw: decoded modal state position %d out of range (have %d modal-existential states)", value, len(e.modalExistential)))
	}
	return label.NewState(e.modalExistential[value], aprops), nil
}

func isUVar(v string) bool {
	if len(v) < 2 || v[0] != '_' || v[1] != 'u' {
		return false
	}
	for _, r := range v[2:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// MaxColour returns one above the maximum tracking-automaton priority, the
// colour range a determinizer must be prepared to emit.
func MaxColour(n *npa.NPA) int {
	maxP := 0
	for _, p := range n.Priority {
		if p > maxP {
			maxP = p
		}
	}
	return maxP + 1
}
