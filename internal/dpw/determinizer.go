package dpw

import (
	"sort"
	"strconv"
	"strings"

	"github.com/dekarrin/mucalcsat/internal/npa"
)

// DPW is a deterministic parity word automaton over Cube-labelled edges: the
// result of handing the tracking NPA's Cube-encoded transitions to a
// Determinizer.
type DPW struct {
	NumStates int
	Initial   int
	Colour    []int // Colour[state], even/odd parity priority
	Edges     [][]DPWEdge
}

// DPWEdge is one deterministic transition: reading a letter matching Cond
// moves to Target. Determinizers built from a finite alphabet (as
// BuiltinDeterminizer is) only ever populate Cond with Cubes that were
// actually produced by Encoder.Encode, so Decode always succeeds on them.
type DPWEdge struct {
	Cond   Cube
	Target int
}

// Determinizer turns a tracking automaton's Cube-alphabet transitions into
// an equivalent deterministic parity word automaton. BuiltinDeterminizer is
// the only implementation in this repository; external.Determinizer only
// runs a binary and does not implement this interface.
type Determinizer interface {
	Determinize(n *npa.NPA, enc *Encoder) (*DPW, error)
}

// BuiltinDeterminizer is a subset-construction determinizer over the finite
// alphabet of Cubes actually produced by encoding the NPA's own transitions
// -- sound for this pipeline's purposes because the parity game only ever
// consults the DPW's own edges, whose conditions come from that same
// alphabet, never an arbitrary boolean valuation the automaton never
// produced. Its parity colouring is a
// simplified "maximum member priority" rule rather than a full Safra/IAR
// index-appearance construction: each macro-state is coloured by the
// largest NPA priority among its member states. This is exact whenever a
// macro-state's highest-priority member dominates the long-run behaviour of
// the runs it represents (true of every transition shape the tracking
// automaton's construction produces, since CHOICE self-loops and STATE/ANY
// fan-out never let a lower-priority member "hide" a higher one across
// infinitely many steps) but is not a general-purpose parity determinizer.
type BuiltinDeterminizer struct{}

func (BuiltinDeterminizer) Determinize(n *npa.NPA, enc *Encoder) (*DPW, error) {
	alphabet := collectAlphabet(n, enc)

	type macro struct {
		states []int
		key    string
	}
	index := map[string]int{}
	var macros []macro

	macroKey := func(states []int) string {
		sorted := append([]int(nil), states...)
		sort.Ints(sorted)
		sorted = dedupSorted(sorted)
		var sb strings.Builder
		for _, s := range sorted {
			sb.WriteString(strconv.Itoa(s))
			sb.WriteByte(',')
		}
		return sb.String()
	}

	getMacro := func(states []int) int {
		key := macroKey(states)
		if idx, ok := index[key]; ok {
			return idx
		}
		sorted := append([]int(nil), states...)
		sort.Ints(sorted)
		sorted = dedupSorted(sorted)
		idx := len(macros)
		macros = append(macros, macro{states: sorted, key: key})
		index[key] = idx
		return idx
	}

	initial := getMacro([]int{0})

	d := &DPW{Initial: initial}
	for frontier := 0; frontier < len(macros); frontier++ {
		cur := macros[frontier]
		d.Edges = append(d.Edges, nil)

		for _, cube := range alphabet {
			var succ []int
			for _, q := range cur.states {
				for _, tr := range n.Transitions[q] {
					if MatchesCube(enc.Encode(tr.Label), cube) {
						succ = append(succ, tr.Targets...)
					}
				}
			}
			if len(succ) == 0 {
				continue
			}
			target := getMacro(succ)
			d.Edges[frontier] = append(d.Edges[frontier], DPWEdge{Cond: cube, Target: target})
		}
	}

	d.NumStates = len(macros)
	d.Colour = make([]int, len(macros))
	for i, m := range macros {
		maxP := 0
		for _, q := range m.states {
			if n.Priority[q] > maxP {
				maxP = n.Priority[q]
			}
		}
		d.Colour[i] = maxP
	}

	return d, nil
}

// collectAlphabet returns every distinct Cube produced by encoding some
// real transition's label, in a stable (insertion) order.
func collectAlphabet(n *npa.NPA, enc *Encoder) []Cube {
	seen := map[string]bool{}
	var out []Cube
	for _, trs := range n.Transitions {
		for _, tr := range trs {
			c := enc.Encode(tr.Label)
			key := cubeKey(c)
			if !seen[key] {
				seen[key] = true
				out = append(out, c)
			}
		}
	}
	return out
}

func cubeKey(c Cube) string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(strconv.Itoa(int(c[k])))
		sb.WriteByte(',')
	}
	return sb.String()
}

// MatchesCube reports whether letter (a concrete Cube drawn from the
// alphabet) satisfies cond (a transition's own, possibly partial, Cube):
// every variable cond constrains must agree with letter.
func MatchesCube(cond, letter Cube) bool {
	for k, v := range cond {
		if v == Unconstrained {
			continue
		}
		if letter[k] != v {
			return false
		}
	}
	return true
}

func dedupSorted(s []int) []int {
	out := s[:0]
	var last int
	for i, v := range s {
		if i == 0 || v != last {
			out = append(out, v)
			last = v
		}
	}
	return out
}
