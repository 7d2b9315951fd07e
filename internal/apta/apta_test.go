package apta

import (
	"testing"

	"github.com/dekarrin/mucalcsat/internal/formula"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *formula.Formula {
	t.Helper()
	f, err := formula.Parse(src)
	require.NoError(t, err)
	return f
}

func TestBuild_TrueLiteral(t *testing.T) {
	f := mustParse(t, "true")
	a, root, err := Build(f)
	require.NoError(t, err)

	require.Len(t, a.States, 1)
	st := a.States[root]
	assert.Equal(t, formula.Lit, st.Value.Kind)
	assert.True(t, st.Value.Bool)
	assert.Equal(t, 0, st.PrimePriority)
	assert.Equal(t, 0, st.Priority)
	assert.False(t, st.Existential, "LIT(true) is not existential; only LIT(false) is")
}

func TestBuild_FalseLiteralSelfLoopPriorityOne(t *testing.T) {
	f := mustParse(t, "false")
	a, root, err := Build(f)
	require.NoError(t, err)

	st := a.States[root]
	assert.Equal(t, 1, st.PrimePriority)
	assert.Equal(t, 1, st.Priority, "LIT(false) always self-loops, so Omega must equal Omega'")
}

func TestBuild_PropAndNegExpandToLiterals(t *testing.T) {
	f := mustParse(t, "p && !p")
	a, _, err := Build(f)
	require.NoError(t, err)

	sawTrue, sawFalse := false, false
	for _, st := range a.States {
		if st.Value.Kind == formula.Lit {
			if st.Value.Bool {
				sawTrue = true
			} else {
				sawFalse = true
			}
		}
	}
	assert.True(t, sawTrue)
	assert.True(t, sawFalse)
}

func TestBuild_MuXDotXIsASelfLoop(t *testing.T) {
	f := mustParse(t, "mu X. X")
	a, root, err := Build(f)
	require.NoError(t, err)

	require.Len(t, a.States, 1, "unfolding mu X. X substitutes X with the binder itself, so no new state is created")
	st := a.States[root]
	assert.Equal(t, formula.Mu, st.Value.Kind)
	assert.Equal(t, 1, st.PrimePriority)
	assert.Equal(t, 1, st.Priority)
	assert.True(t, st.Existential)
}

func TestBuild_NuXDotXIsASelfLoop(t *testing.T) {
	f := mustParse(t, "nu X. X")
	a, root, err := Build(f)
	require.NoError(t, err)

	require.Len(t, a.States, 1)
	st := a.States[root]
	assert.Equal(t, formula.Nu, st.Value.Kind)
	assert.Equal(t, 0, st.PrimePriority, "nu X. X has alternation depth 1, and level(NU) = 2*floor(d/2)")
	assert.Equal(t, 0, st.Priority)
}

func TestBuild_AlternatingFixpointsIncrementLevel(t *testing.T) {
	// nu X. (p || mu Y. (p && <>X)) -- Y is nested inside X but of the
	// opposite kind, so Y's alternation level must exceed X's.
	f := mustParse(t, "nu X. (p || mu Y. (p && <>X))")
	a, root, err := Build(f)
	require.NoError(t, err)

	outer := a.States[root]
	require.Equal(t, formula.Nu, outer.Value.Kind)
	assert.Equal(t, 1, outer.PrimePriority)

	var inner *State
	for _, st := range a.States {
		if st.Value.Kind == formula.Mu {
			inner = st
		}
	}
	require.NotNil(t, inner)
	assert.Greater(t, inner.PrimePriority, outer.PrimePriority)
}

func TestBuild_NestedSameKindFixpointsShareLevel(t *testing.T) {
	f := mustParse(t, "mu X. (p || mu Y. (p && X))")
	a, _, err := Build(f)
	require.NoError(t, err)

	var levels []int
	for _, st := range a.States {
		if st.Value.Kind == formula.Mu {
			levels = append(levels, st.PrimePriority)
		}
	}
	require.Len(t, levels, 2)
	assert.Equal(t, levels[0], levels[1])
}

func TestBuild_AndOrShareTheEmptyLabelSuccessorSet(t *testing.T) {
	f := mustParse(t, "p && q")
	a, root, err := Build(f)
	require.NoError(t, err)

	st := a.States[root]
	require.Len(t, st.Next, 1, "AND has a single label (the empty label) whose target set holds both conjuncts")
	for _, succs := range st.Next {
		assert.Equal(t, 2, succs.Len())
	}
}

func TestBuild_DiamondAndBoxAreLocalFalseModalTrue(t *testing.T) {
	dia := mustParse(t, "<>p")
	a, root, err := Build(dia)
	require.NoError(t, err)
	st := a.States[root]
	assert.False(t, st.Local)
	assert.True(t, st.Existential)

	box := mustParse(t, "[]p")
	a2, root2, err := Build(box)
	require.NoError(t, err)
	st2 := a2.States[root2]
	assert.False(t, st2.Local)
	assert.False(t, st2.Existential)
}

func TestBuild_ValidatesWithoutError(t *testing.T) {
	f := mustParse(t, "nu X. (p && <>X)")
	a, _, err := Build(f)
	require.NoError(t, err)
	assert.NoError(t, a.Validate())
}

func TestLabel_String(t *testing.T) {
	assert.Equal(t, "∅", AnyLabel().String())
	assert.Equal(t, "(p,true)", PropLabel("p", true).String())
}
