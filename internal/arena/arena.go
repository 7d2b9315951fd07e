// Package arena builds the game arena over "macro-state" positions
// (S, sigma), S a set of APTA state indices and sigma either unread
// (empty) or a fixed propositional letter. Positions are expanded by
// worklist, subset-construction style, over an alphabet synthesised from
// the atomic propositions in scope.
package arena

import (
	"sort"
	"strconv"
	"strings"

	"github.com/dekarrin/mucalcsat/internal/apta"
	"github.com/dekarrin/mucalcsat/internal/formula"
	"github.com/dekarrin/mucalcsat/internal/label"
	"github.com/dekarrin/mucalcsat/internal/util"
)

// Position is a macro-state (S, sigma). S is always non-empty and kept
// sorted ascending; Sigma is meaningful only when HasSigma is true.
type Position struct {
	S        []int
	HasSigma bool
	Sigma    []label.APValue // sorted by prop name, only valid if HasSigma

	// Existential is true iff Sigma is unread or any state in S is local.
	Existential bool
}

// DKind tags the three shapes an edge's "d" component can take.
type DKind int

const (
	// DNone is the bare, d-less edge emitted by the modal-universal branch:
	// picking the representative state carries no information the tracking
	// automaton needs to check, so the game carries it as a bare letter
	// instead of a (letter, choice) pair.
	DNone DKind = iota
	// DDict is the local-expansion case: a mapping from each local-
	// existential state in scope to the APTA successor it chose.
	DDict
	// DState is the modal-existential case: the single APTA state index
	// chosen as the move.
	DState
)

// DValue is the edge label used on out-edges of a position whose Sigma has
// already been read (HasSigma == true).
type DValue struct {
	Kind  DKind
	Dict  map[int]int // meaningful iff Kind == DDict
	State int         // meaningful iff Kind == DState
}

// Key returns a canonical string encoding of d, usable as a map key (the
// Dict variant makes DValue itself non-comparable).
func (d DValue) Key() string {
	switch d.Kind {
	case DDict:
		var sb strings.Builder
		sb.WriteByte('d')
		for _, q := range util.OrderedKeys(d.Dict) {
			sb.WriteString(strconv.Itoa(q))
			sb.WriteByte(':')
			sb.WriteString(strconv.Itoa(d.Dict[q]))
			sb.WriteByte(',')
		}
		return sb.String()
	case DState:
		return "q" + strconv.Itoa(d.State)
	default:
		return "-"
	}
}

// Edge is one out-edge of a position. Exactly one of Sigma (for positions
// with HasSigma == false) or D (for positions with HasSigma == true) is
// meaningful, matching the source position's HasSigma flag.
type Edge struct {
	Sigma  []label.APValue
	D      DValue
	Target int
}

// Arena is the constructed graph: positions indexed from 0, with Initial
// always ({q0}, unread) at index 0.
type Arena struct {
	APTA      *apta.APTA
	Positions []*Position
	Edges     [][]Edge
	Initial   int

	// DChoices is the set of distinct non-empty d's emitted during
	// construction.
	DChoices []DValue

	index   map[string]int
	dChoice map[string]bool
}

// Build constructs the arena reachable from the singleton position
// ({q0}, unread).
func Build(a *apta.APTA, q0 int) *Arena {
	ar := &Arena{APTA: a, index: make(map[string]int), dChoice: make(map[string]bool)}
	ar.Initial = ar.getPosition([]int{q0}, false, nil)

	expanded := 0
	for expanded < len(ar.Positions) {
		ar.expand(expanded)
		expanded++
	}
	return ar
}

func positionKey(s []int, hasSigma bool, sigma []label.APValue) string {
	var sb strings.Builder
	for _, q := range s {
		sb.WriteString(strconv.Itoa(q))
		sb.WriteByte(',')
	}
	sb.WriteByte('|')
	if hasSigma {
		for _, av := range sigma {
			sb.WriteString(av.Prop)
			sb.WriteByte('=')
			if av.Value {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
			sb.WriteByte(',')
		}
	}
	return sb.String()
}

func (ar *Arena) getPosition(s []int, hasSigma bool, sigma []label.APValue) int {
	sSorted := append([]int(nil), s...)
	sort.Ints(sSorted)
	sSorted = dedupInts(sSorted)

	var sigmaSorted []label.APValue
	if hasSigma {
		sigmaSorted = append([]label.APValue(nil), sigma...)
		sort.Slice(sigmaSorted, func(i, j int) bool { return sigmaSorted[i].Prop < sigmaSorted[j].Prop })
	}

	key := positionKey(sSorted, hasSigma, sigmaSorted)
	if idx, ok := ar.index[key]; ok {
		return idx
	}

	idx := len(ar.Positions)
	pos := &Position{
		S:           sSorted,
		HasSigma:    hasSigma,
		Sigma:       sigmaSorted,
		Existential: isExistentialPosition(ar.APTA, sSorted, hasSigma),
	}
	ar.Positions = append(ar.Positions, pos)
	ar.Edges = append(ar.Edges, nil)
	ar.index[key] = idx
	return idx
}

func dedupInts(sorted []int) []int {
	out := sorted[:0]
	var last int
	for i, v := range sorted {
		if i == 0 || v != last {
			out = append(out, v)
			last = v
		}
	}
	return out
}

func isExistentialPosition(a *apta.APTA, s []int, hasSigma bool) bool {
	if !hasSigma {
		return true
	}
	for _, q := range s {
		if a.States[q].Local {
			return true
		}
	}
	return false
}

func (ar *Arena) addEdge(from int, e Edge) {
	ar.Edges[from] = append(ar.Edges[from], e)
}

func (ar *Arena) expand(idx int) {
	pos := ar.Positions[idx]
	a := ar.APTA

	if !pos.HasSigma {
		ar.expandUnread(idx, pos, a)
		return
	}

	if anyLocal(a, pos.S) {
		ar.expandLocal(idx, pos, a)
		return
	}

	if _, ok := firstModalExistential(a, pos.S); ok {
		ar.expandModalExistential(idx, pos, a)
		return
	}

	ar.expandModalUniversal(idx, pos, a)
}

func anyLocal(a *apta.APTA, s []int) bool {
	for _, q := range s {
		if a.States[q].Local {
			return true
		}
	}
	return false
}

func firstModalExistential(a *apta.APTA, s []int) (int, bool) {
	for _, q := range s {
		st := a.States[q]
		if !st.Local && st.Existential {
			return q, true
		}
	}
	return 0, false
}

// expandUnread handles sigma == unread: one edge per assignment in 2^P,
// where P is the union of atomic props appearing in S's subformulae.
func (ar *Arena) expandUnread(idx int, pos *Position, a *apta.APTA) {
	propSet := map[string]struct{}{}
	for _, q := range pos.S {
		for p := range formula.AtomicProps(a.States[q].Value) {
			propSet[p] = struct{}{}
		}
	}
	props := util.OrderedKeys(propSet)

	for _, assignment := range enumerateAssignments(props) {
		target := ar.getPosition(pos.S, true, assignment)
		ar.addEdge(idx, Edge{Sigma: assignment, Target: target})
	}
}

// enumerateAssignments returns every total boolean assignment over props,
// in lexicographic order over the (already-sorted) prop names, false before
// true at each position. The canonical order keeps position indices stable
// across runs.
func enumerateAssignments(props []string) [][]label.APValue {
	if len(props) == 0 {
		return [][]label.APValue{{}}
	}

	var out [][]label.APValue
	var rec func(i int, cur []label.APValue)
	rec = func(i int, cur []label.APValue) {
		if i == len(props) {
			out = append(out, append([]label.APValue(nil), cur...))
			return
		}
		rec(i+1, append(cur, label.APValue{Prop: props[i], Value: false}))
		rec(i+1, append(cur, label.APValue{Prop: props[i], Value: true}))
	}
	rec(0, nil)
	return out
}

// expandLocal handles sigma != unread with at least one local state
// present.
func (ar *Arena) expandLocal(idx int, pos *Position, a *apta.APTA) {
	var existentialLocal []int
	for _, q := range pos.S {
		st := a.States[q]
		if st.Local && st.Existential {
			existentialLocal = append(existentialLocal, q)
		}
	}

	choiceSets := make([][]int, len(existentialLocal))
	for i, q := range existentialLocal {
		choiceSets[i] = a.States[q].Next[apta.AnyLabel()].Elements()
	}

	sigmaMap := sigmaToMap(pos.Sigma)

	for _, combo := range cartesianProduct(choiceSets) {
		d := make(map[int]int, len(existentialLocal))
		for i, q := range existentialLocal {
			d[q] = combo[i]
		}

		// The target keeps sigma: local moves keep resolving the macro-state
		// under the letter already read, until only modal states remain.
		sPrime := updateL(a, pos.S, sigmaMap, d)
		target := ar.getPosition(sPrime, true, pos.Sigma)
		dv := DValue{Kind: DDict, Dict: d}
		ar.addEdge(idx, Edge{D: dv, Target: target})
		if len(d) > 0 {
			ar.recordDChoice(dv)
		}
	}
}

func (ar *Arena) recordDChoice(dv DValue) {
	key := dv.Key()
	if ar.dChoice[key] {
		return
	}
	ar.dChoice[key] = true
	ar.DChoices = append(ar.DChoices, dv)
}

// expandModalExistential handles sigma != unread, no local state, but at
// least one modal-existential (DIA) state present.
func (ar *Arena) expandModalExistential(idx int, pos *Position, a *apta.APTA) {
	sigmaMap := sigmaToMap(pos.Sigma)
	for _, q := range pos.S {
		st := a.States[q]
		if st.Local || !st.Existential {
			continue
		}
		sPrime := updateM(a, pos.S, sigmaMap, q)
		target := ar.getPosition(sPrime, false, nil)
		dv := DValue{Kind: DState, State: q}
		ar.addEdge(idx, Edge{D: dv, Target: target})
		ar.recordDChoice(dv)
	}
}

// expandModalUniversal handles sigma != unread, all of S modal-universal
// (BOX): a single edge picking the smallest state index as representative.
func (ar *Arena) expandModalUniversal(idx int, pos *Position, a *apta.APTA) {
	qStar := pos.S[0]
	for _, q := range pos.S {
		if q < qStar {
			qStar = q
		}
	}

	sigmaMap := sigmaToMap(pos.Sigma)
	sPrime := updateM(a, pos.S, sigmaMap, qStar)
	target := ar.getPosition(sPrime, false, nil)
	ar.addEdge(idx, Edge{D: DValue{Kind: DNone}, Target: target})
}

func sigmaToMap(sigma []label.APValue) map[string]bool {
	m := make(map[string]bool, len(sigma))
	for _, av := range sigma {
		m[av.Prop] = av.Value
	}
	return m
}

// updateL computes the macro-state reached from s by resolving every local
// state one step: existential local states follow the successor d chose for
// them, universal local states contribute every successor whose label
// agrees with sigma, and non-local states pass through unchanged.
func updateL(a *apta.APTA, s []int, sigma map[string]bool, d map[int]int) []int {
	result := util.NewKeySet[int]()
	for _, q := range s {
		st := a.States[q]
		if !st.Local {
			result.Add(q)
			continue
		}
		if st.Existential {
			if v, ok := d[q]; ok {
				result.Add(v)
			}
			continue
		}
		for lbl, targets := range st.Next {
			if lbl.Any {
				result.AddAll(targets)
				continue
			}
			if v, ok := sigma[lbl.Prop]; ok && v == lbl.Value {
				result.AddAll(targets)
			}
		}
	}
	return result.Elements()
}

// updateM computes the macro-state reached by taking q's modal move: q's
// successors, joined with the successors of every other modal-universal
// state in s (their obligations transfer to every branch). Modal-
// existential states other than q are dropped on this branch.
func updateM(a *apta.APTA, s []int, _ map[string]bool, q int) []int {
	result := util.NewKeySet[int]()
	result.AddAll(a.States[q].Next[apta.AnyLabel()])
	for _, qPrime := range s {
		if qPrime == q {
			continue
		}
		st := a.States[qPrime]
		if !st.Local && !st.Existential {
			result.AddAll(a.States[qPrime].Next[apta.AnyLabel()])
		}
	}
	return result.Elements()
}

// cartesianProduct returns every combination picking one element from each
// set in sets, in the order induced by iterating the last set fastest. A
// nil/empty sets slice yields a single empty combination (the vacuous
// product), so a position with no existential local states still gets its
// one, empty choice dictionary.
func cartesianProduct(sets [][]int) [][]int {
	if len(sets) == 0 {
		return [][]int{{}}
	}

	combos := [][]int{{}}
	for _, set := range sets {
		var next [][]int
		for _, combo := range combos {
			for _, v := range set {
				c := append(append([]int(nil), combo...), v)
				next = append(next, c)
			}
		}
		combos = next
	}
	return combos
}
