package dpw

import (
	"testing"

	"github.com/dekarrin/mucalcsat/internal/apta"
	"github.com/dekarrin/mucalcsat/internal/formula"
	"github.com/dekarrin/mucalcsat/internal/label"
	"github.com/dekarrin/mucalcsat/internal/npa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustEncoder(t *testing.T, src string) (*apta.APTA, *npa.NPA, *Encoder) {
	t.Helper()
	f, err := formula.Parse(src)
	require.NoError(t, err)
	a, _, err := apta.Build(f)
	require.NoError(t, err)
	n := npa.Build(a)
	return a, n, NewEncoder(a)
}

func TestEncodeDecode_AnyLabelRoundTrips(t *testing.T) {
	_, _, enc := mustEncoder(t, "p && q")
	original := label.NewAny([]label.APValue{{Prop: "p", Value: true}})

	cube := enc.Encode(original)
	decoded, err := enc.Decode(cube)
	require.NoError(t, err)

	assert.Equal(t, label.Any, decoded.Kind)
	assert.True(t, decoded.Equal(original))
}

func TestEncodeDecode_ChoiceLabelRoundTrips(t *testing.T) {
	a, _, enc := mustEncoder(t, "p || q")
	q0 := 0
	for idx, st := range a.States {
		if st.Local && st.Existential {
			q0 = idx
			break
		}
	}
	succs := a.States[q0].Next[apta.AnyLabel()].Elements()
	require.Len(t, succs, 2)

	original := label.NewChoice([]label.ChoicePair{{Q: q0, QPrime: succs[1]}}, nil)
	cube := enc.Encode(original)
	assert.Equal(t, True, cube[isChoiceVar])

	decoded, err := enc.Decode(cube)
	require.NoError(t, err)
	require.Equal(t, label.Choice, decoded.Kind)
	require.Len(t, decoded.Extra, 1)
	assert.Equal(t, succs[1], decoded.Extra[0].QPrime)
}

func TestEncodeDecode_StateWithExtraRoundTrips(t *testing.T) {
	a, _, enc := mustEncoder(t, "<>p || <>q")
	var modalExistential int
	found := false
	for idx, st := range a.States {
		if !st.Local && st.Existential {
			modalExistential = idx
			found = true
			break
		}
	}
	require.True(t, found, "<>p || <>q must produce at least one modal-existential state")

	original := label.NewState(modalExistential, nil)
	cube := enc.Encode(original)
	assert.Equal(t, False, cube[isChoiceVar])

	decoded, err := enc.Decode(cube)
	require.NoError(t, err)
	require.Equal(t, label.State, decoded.Kind)
	require.True(t, decoded.HasExtra)
	assert.Equal(t, modalExistential, decoded.ExtraState)
}

func TestEncodeDecode_StateWithoutExtraIsMatchAny(t *testing.T) {
	_, _, enc := mustEncoder(t, "[]p")
	original := label.NewStateAny(nil)
	cube := enc.Encode(original)

	decoded, err := enc.Decode(cube)
	require.NoError(t, err)
	assert.Equal(t, label.State, decoded.Kind)
	assert.False(t, decoded.HasExtra)
}

func TestBitsNeeded(t *testing.T) {
	assert.Equal(t, 0, bitsNeeded(0))
	assert.Equal(t, 0, bitsNeeded(1))
	assert.Equal(t, 1, bitsNeeded(2))
	assert.Equal(t, 2, bitsNeeded(3))
	assert.Equal(t, 2, bitsNeeded(4))
	assert.Equal(t, 3, bitsNeeded(5))
}

func TestMaxColour_IsHighestPriorityPlusOne(t *testing.T) {
	_, n, _ := mustEncoder(t, "nu X. (p && <>X)")
	maxP := 0
	for _, p := range n.Priority {
		if p > maxP {
			maxP = p
		}
	}
	assert.Equal(t, maxP+1, MaxColour(n))
}

func TestBuiltinDeterminizer_ProducesReachableDeterministicAutomaton(t *testing.T) {
	_, n, enc := mustEncoder(t, "nu X. (p && <>X)")
	d, err := BuiltinDeterminizer{}.Determinize(n, enc)
	require.NoError(t, err)

	assert.Equal(t, 0, d.Initial)
	require.True(t, d.NumStates > 0)
	require.Len(t, d.Colour, d.NumStates)

	for _, edges := range d.Edges {
		seen := map[string]bool{}
		for _, e := range edges {
			k := cubeKey(e.Cond)
			assert.False(t, seen[k], "determinized automaton must not have two edges on the same letter")
			seen[k] = true
			assert.True(t, e.Target >= 0 && e.Target < d.NumStates)
		}
	}
}

func TestCubeMatches_UnconstrainedCondMatchesAnyLetter(t *testing.T) {
	cond := Cube{"p": Unconstrained}
	letter := Cube{"p": True}
	assert.True(t, MatchesCube(cond, letter))
}

func TestCubeMatches_ConflictingConstraintFails(t *testing.T) {
	cond := Cube{"p": True}
	letter := Cube{"p": False}
	assert.False(t, MatchesCube(cond, letter))
}
