package game

import (
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/dekarrin/mucalcsat/internal/apta"
	"github.com/dekarrin/mucalcsat/internal/arena"
	"github.com/dekarrin/mucalcsat/internal/dpw"
	"github.com/dekarrin/mucalcsat/internal/formula"
	"github.com/dekarrin/mucalcsat/internal/label"
	"github.com/dekarrin/mucalcsat/internal/npa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustBuild(t *testing.T, src string) *Game {
	t.Helper()
	f, err := formula.Parse(src)
	require.NoError(t, err)
	a, q0, err := apta.Build(f)
	require.NoError(t, err)
	ar := arena.Build(a, q0)
	n := npa.Build(a)
	enc := dpw.NewEncoder(a)
	d, err := dpw.BuiltinDeterminizer{}.Determinize(n, enc)
	require.NoError(t, err)
	g, err := Build(ar, enc, d)
	require.NoError(t, err)
	return g
}

func TestBuild_InitialNodeIsNodeZero(t *testing.T) {
	g := mustBuild(t, "true")
	assert.Equal(t, 0, g.Initial)
	init := g.Nodes[g.Initial]
	assert.Equal(t, SymNone, init.Symbol.Kind)
	assert.Equal(t, Existential, init.Player, "the unread initial position belongs to the existential player")
}

func TestBuild_TrueLoopsOnEvenPriority(t *testing.T) {
	g := mustBuild(t, "true")
	// Every node of the game for "true" tracks the single LIT(true) state,
	// whose colour is its automaton priority 1; game nodes sit one above.
	for id, n := range g.Nodes {
		assert.Equal(t, 2, n.Priority, "node %d", id)
	}
}

func TestBuild_LetterEmissionInsertsAPendingSymbolNode(t *testing.T) {
	g := mustBuild(t, "p")
	init := g.Nodes[g.Initial]
	require.Len(t, init.Successors, 2, "the unread position emits one letter per valuation of p")

	for _, s := range init.Successors {
		mid := g.Nodes[s]
		assert.Equal(t, SymSigma, mid.Symbol.Kind)
		assert.Equal(t, Universal, mid.Player, "a node with a pending symbol always belongs to universal")
		require.Len(t, mid.Successors, 1, "a bare letter is dropped in a single step")
		assert.Equal(t, SymNone, g.Nodes[mid.Successors[0]].Symbol.Kind)
	}
}

func TestBuild_PairSymbolNodesBelongToUniversal(t *testing.T) {
	g := mustBuild(t, "p || q")
	var sawPair bool
	for _, n := range g.Nodes {
		if n.Symbol.Kind != SymPair {
			continue
		}
		sawPair = true
		assert.Equal(t, Universal, n.Player)
		for _, s := range n.Successors {
			assert.Equal(t, SymNone, g.Nodes[s].Symbol.Kind, "consuming a pair always yields a symbol-free node")
		}
	}
	assert.True(t, sawPair, "a disjunction must produce at least one (letter, choice) node")
}

func TestBuild_EveryNodeIsReachableAndOwned(t *testing.T) {
	g := mustBuild(t, "nu X. (p && <>X)")
	require.NotEmpty(t, g.Nodes)

	reached := map[int]bool{g.Initial: true}
	queue := []int{g.Initial}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, s := range g.Nodes[cur].Successors {
			if !reached[s] {
				reached[s] = true
				queue = append(queue, s)
			}
		}
	}
	assert.Len(t, reached, len(g.Nodes), "every constructed node must be reachable from the initial one")

	for _, n := range g.Nodes {
		assert.True(t, n.Player == Existential || n.Player == Universal)
	}
}

func TestCompatible_ChoiceRequiresRecordedPairsToAgree(t *testing.T) {
	d := arena.DValue{Kind: arena.DDict, Dict: map[int]int{3: 7}}

	agrees := compatible(label.NewChoice([]label.ChoicePair{{Q: 3, QPrime: 7}}, nil), nil, d)
	assert.True(t, agrees)

	disagrees := compatible(label.NewChoice([]label.ChoicePair{{Q: 3, QPrime: 8}}, nil), nil, d)
	assert.False(t, disagrees)

	empty := compatible(label.NewChoice(nil, nil), nil, d)
	assert.True(t, empty, "CHOICE with no recorded pairs matches any choice dictionary")

	wrongShape := compatible(label.NewChoice(nil, nil), nil, arena.DValue{Kind: arena.DState, State: 3})
	assert.False(t, wrongShape)
}

func TestCompatible_StateChecksTheChosenModalTarget(t *testing.T) {
	d := arena.DValue{Kind: arena.DState, State: 4}

	assert.True(t, compatible(label.NewState(4, nil), nil, d))
	assert.False(t, compatible(label.NewState(5, nil), nil, d))
	assert.True(t, compatible(label.NewStateAny(nil), nil, d), "STATE with no target matches any modal choice")
	assert.False(t, compatible(label.NewStateAny(nil), nil, arena.DValue{Kind: arena.DDict}))
}

func TestCompatible_LetterValuesMustAgree(t *testing.T) {
	lbl := label.NewAny([]label.APValue{{Prop: "p", Value: true}})
	d := arena.DValue{Kind: arena.DDict}

	assert.True(t, compatible(lbl, map[string]bool{"p": true}, d))
	assert.False(t, compatible(lbl, map[string]bool{"p": false}, d))
	assert.True(t, compatible(lbl, map[string]bool{"q": false}, d), "a proposition the letter does not fix is unconstrained")
}

func TestPGSolver_HeaderCarriesTheNodeCount(t *testing.T) {
	g := mustBuild(t, "p || q")
	text := g.Encode()
	lines := strings.Split(strings.TrimSpace(text), "\n")
	require.True(t, len(lines) >= 1)
	assert.Equal(t, "parity "+strconv.Itoa(len(g.Nodes))+";", lines[0])
	assert.Equal(t, len(g.Nodes), len(lines)-1)
}

func TestPGSolver_RoundTripPreservesAdjacencyAndPriority(t *testing.T) {
	g := mustBuild(t, "[]p || <>q")
	text := g.Encode()

	parsed, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, parsed.Nodes, len(g.Nodes))
	assert.Equal(t, len(g.Nodes), parsed.N)

	for _, pn := range parsed.Nodes {
		orig := g.Nodes[pn.ID]
		wantPrio := orig.Priority
		wantSuccs := append([]int(nil), orig.Successors...)
		sort.Ints(wantSuccs)
		wantSuccs = dedupeSortedInts(wantSuccs)
		if len(wantSuccs) == 0 {
			wantPrio = 1 - int(orig.Player)
			wantSuccs = []int{pn.ID}
		}

		assert.Equal(t, wantPrio, pn.Priority, "node %d priority must round-trip", pn.ID)
		assert.Equal(t, orig.Player, pn.Player, "node %d player must round-trip", pn.ID)
		assert.Equal(t, wantSuccs, pn.Successors, "node %d successors must round-trip", pn.ID)
	}
}

func TestPGSolver_ParseThenEncodeIsByteIdentical(t *testing.T) {
	g := mustBuild(t, "mu X. (p || <>X)")
	first := g.Encode()

	parsed, err := Parse(first)
	require.NoError(t, err)
	assert.Equal(t, first, parsed.Encode())
}

func TestPGSolver_StuckNodeIsEmittedAsALosingSelfLoop(t *testing.T) {
	g := &Game{Nodes: []Node{
		{Player: Existential, Priority: 4, Successors: []int{1}},
		{Player: Universal, Priority: 4},
	}}

	text := g.Encode()
	parsed, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, parsed.Nodes, 2)

	stuck := parsed.Nodes[1]
	assert.Equal(t, 0, stuck.Priority, "a stuck universal node gets the even priority, so existential wins it")
	assert.Equal(t, []int{1}, stuck.Successors)
}

func TestParsePGSolver_RejectsMissingHeader(t *testing.T) {
	_, err := Parse("0 0 0 0;\n")
	require.Error(t, err)
}

func TestParsePGSolver_RejectsMalformedNodeLine(t *testing.T) {
	_, err := Parse("parity 1;\nbogus\n")
	require.Error(t, err)
}
