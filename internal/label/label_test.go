package label

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAny_NormalizesPropOrder(t *testing.T) {
	l1 := NewAny([]APValue{{"q", true}, {"p", false}})
	l2 := NewAny([]APValue{{"p", false}, {"q", true}})
	assert.True(t, l1.Equal(l2))
	assert.Equal(t, l1.Key(), l2.Key())
}

func TestMatches_PartialAssignmentIsPermissive(t *testing.T) {
	l := NewAny([]APValue{{"p", true}})
	assert.True(t, l.Matches(map[string]bool{}))
	assert.True(t, l.Matches(map[string]bool{"p": true}))
	assert.False(t, l.Matches(map[string]bool{"p": false}))
	assert.True(t, l.Matches(map[string]bool{"q": false}))
}

func TestChoice_NilExtraHasNoRecordedPairs(t *testing.T) {
	empty := NewChoice(nil, nil)
	assert.Empty(t, empty.Extra)
}

func TestState_HasExtraDistinguishesFromAnyTarget(t *testing.T) {
	withExtra := NewState(3, nil)
	assert.True(t, withExtra.HasExtra)
	assert.Equal(t, 3, withExtra.ExtraState)

	anyTarget := NewStateAny(nil)
	assert.False(t, anyTarget.HasExtra)
	assert.False(t, withExtra.Equal(anyTarget))
}

func TestEqual_DifferentKindsNeverEqual(t *testing.T) {
	a := NewAny(nil)
	s := NewStateAny(nil)
	assert.False(t, a.Equal(s))
}
