package solver

import (
	"testing"

	"github.com/dekarrin/mucalcsat/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildGame constructs a minimal *game.Game directly, bypassing the
// arena/dpw pipeline, for solver-focused unit tests.
func buildGame(nodes []game.Node, initial int) *game.Game {
	g := &game.Game{Nodes: nodes, Initial: initial}
	return g
}

func TestSolve_SingleSelfLoopEvenPriorityIsExistentialWin(t *testing.T) {
	g := buildGame([]game.Node{
		{Pos: 0, Player: game.Universal, Priority: 0, Successors: []int{0}},
	}, 0)

	res, err := Zielonka{}.Solve(g)
	require.NoError(t, err)
	assert.True(t, res.Wins(game.Existential, 0))
}

func TestSolve_SingleSelfLoopOddPriorityIsUniversalWin(t *testing.T) {
	g := buildGame([]game.Node{
		{Pos: 0, Player: game.Existential, Priority: 1, Successors: []int{0}},
	}, 0)

	res, err := Zielonka{}.Solve(g)
	require.NoError(t, err)
	assert.True(t, res.Wins(game.Universal, 0))
}

func TestSolve_ExistentialCanChooseTheWinningSuccessor(t *testing.T) {
	// Node 0 (existential) can move to node 1 (a losing odd self-loop) or
	// node 2 (a winning even self-loop); rational play picks node 2.
	g := buildGame([]game.Node{
		{Pos: 0, Player: game.Existential, Priority: 2, Successors: []int{1, 2}},
		{Pos: 1, Player: game.Universal, Priority: 1, Successors: []int{1}},
		{Pos: 2, Player: game.Universal, Priority: 0, Successors: []int{2}},
	}, 0)

	res, err := Zielonka{}.Solve(g)
	require.NoError(t, err)
	assert.True(t, res.Wins(game.Existential, 0))
}

func TestSolve_UniversalWithOnlyALosingSuccessorLoses(t *testing.T) {
	// Node 0 (universal) has only one successor, and it leads to an
	// existential win, so universal cannot avoid losing.
	g := buildGame([]game.Node{
		{Pos: 0, Player: game.Universal, Priority: 2, Successors: []int{1}},
		{Pos: 1, Player: game.Universal, Priority: 0, Successors: []int{1}},
	}, 0)

	res, err := Zielonka{}.Solve(g)
	require.NoError(t, err)
	assert.True(t, res.Wins(game.Existential, 0))
}

func TestSolve_StuckPlayerLoses(t *testing.T) {
	// Node 1 has no successors; its owner (existential) cannot move there
	// and loses, and universal can steer node 0 into it.
	g := buildGame([]game.Node{
		{Pos: 0, Player: game.Universal, Priority: 2, Successors: []int{1}},
		{Pos: 1, Player: game.Existential, Priority: 2},
	}, 0)

	res, err := Zielonka{}.Solve(g)
	require.NoError(t, err)
	assert.True(t, res.Wins(game.Universal, 0))
	assert.True(t, res.Wins(game.Universal, 1))
}

func TestSolve_TwoNodeMutualAttractorResolvesToHigherParity(t *testing.T) {
	// A two-cycle where the higher (even) priority node is reachable from
	// both; existential wins since the even priority dominates any infinite
	// play through the cycle.
	g := buildGame([]game.Node{
		{Pos: 0, Player: game.Universal, Priority: 2, Successors: []int{1}},
		{Pos: 1, Player: game.Existential, Priority: 1, Successors: []int{0}},
	}, 0)

	res, err := Zielonka{}.Solve(g)
	require.NoError(t, err)
	assert.True(t, res.Wins(game.Existential, 0))
	assert.True(t, res.Wins(game.Existential, 1))
}
