package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey_StructurallyEqualFormulaeInternToTheSameKey(t *testing.T) {
	a := NewAnd(NewProp("p"), NewOr(NewLit(true), NewProp("q")))
	b := NewAnd(NewProp("p"), NewOr(NewLit(true), NewProp("q")))
	assert.Equal(t, a.Key(), b.Key())

	c := NewAnd(NewProp("p"), NewOr(NewLit(false), NewProp("q")))
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestKey_DistinguishesPropFromVar(t *testing.T) {
	prop := NewProp("X")
	v := NewVar("X")
	assert.NotEqual(t, prop.Key(), v.Key())
}

func TestNewNeg_PanicsOnNonProp(t *testing.T) {
	assert.Panics(t, func() {
		NewNeg(NewVar("X"))
	})
}

func TestSubstitute_ReplacesFreeVariable(t *testing.T) {
	body := NewOr(NewProp("p"), NewVar("X"))
	replacement := NewMu("X", body)

	unfolded := Substitute(body, "X", replacement)

	want := NewOr(NewProp("p"), replacement)
	assert.Equal(t, want.Key(), unfolded.Key())
}

func TestSubstitute_SelfReferentialBinderIsASelfLoop(t *testing.T) {
	binder := NewMu("X", NewVar("X"))
	unfolded := Substitute(binder.Sub, "X", binder)
	assert.Same(t, binder, unfolded)
}

func TestSubstitute_StopsAtShadowingBinder(t *testing.T) {
	inner := NewMu("X", NewProp("p"))
	outer := NewOr(NewVar("X"), inner)

	result := Substitute(outer, "X", NewLit(true))

	assert.Equal(t, Or, result.Kind)
	assert.Equal(t, Lit, result.Left.Kind)
	assert.True(t, result.Left.Bool)
	// The shadowed inner binder is untouched.
	assert.Same(t, inner, result.Right)
}

func TestAtomicProps_CollectsUniqueNames(t *testing.T) {
	f := NewAnd(NewProp("p"), NewOr(NewProp("q"), NewProp("p")))
	props := AtomicProps(f)
	assert.Len(t, props, 2)
	_, hasP := props["p"]
	_, hasQ := props["q"]
	assert.True(t, hasP)
	assert.True(t, hasQ)
}

func TestAtomicProps_DoesNotDescendPastVar(t *testing.T) {
	f := NewMu("X", NewVar("X"))
	props := AtomicProps(f)
	assert.Empty(t, props)
}

func TestVariableOccurs_TrueForFreeOccurrence(t *testing.T) {
	f := NewDia(NewVar("X"))
	assert.True(t, VariableOccurs("X", f))
	assert.False(t, VariableOccurs("Y", f))
}

func TestVariableOccurs_FalseAcrossShadowingBinder(t *testing.T) {
	f := NewNu("X", NewProp("p"))
	outer := NewMu("X", f)
	assert.False(t, VariableOccurs("X", outer), "the outer X is immediately shadowed by the inner binder")
}

func TestString_RendersReadableForm(t *testing.T) {
	f := NewAnd(NewProp("p"), NewNeg(NewProp("q")))
	assert.Equal(t, "(p && !q)", f.String())
}
