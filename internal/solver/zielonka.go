// Package solver decides the winner of node 0 in a two-player parity game,
// the final step of the satisfiability pipeline (a formula is satisfiable
// iff the existential player wins the game's initial node). Zielonka's
// recursive algorithm is unoptimised but self-contained, so the pipeline
// runs end to end without a PGSolver-compatible binary installed; an
// external one can be swapped in through internal/external.Solver.
package solver

import (
	"github.com/dekarrin/mucalcsat/internal/game"
)

// Solver decides which player wins every node of g. Zielonka is its only
// implementation; external.Solver does not implement it (it answers for
// node 0 only, through mucalcsat.ExternalSolver).
type Solver interface {
	Solve(g *game.Game) (Result, error)
}

// Result records, for every node, which player wins the parity game from
// that node under perfect play.
type Result struct {
	Winner []game.Player
}

// Wins reports whether p wins starting from node.
func (r Result) Wins(p game.Player, node int) bool {
	return r.Winner[node] == p
}

// Zielonka is the textbook recursive parity-game solver: at each step it
// peels off the highest priority present, lets its natural owner attract
// every node it can force play into, and recurses on what remains.
type Zielonka struct{}

func (Zielonka) Solve(g *game.Game) (Result, error) {
	work := normalize(g)
	winner := make([]game.Player, len(work.Nodes))
	solveZielonka(work, allNodes(len(work.Nodes)), winner)
	return Result{Winner: winner}, nil
}

// normalize gives every successor-less node a self-loop with its priority
// flipped to the opposite parity of its owner, so a player who cannot move
// loses. This is the same rendering Game.Encode applies on emission; the
// built-in solver applies it here so that it and an external solver reading
// the emitted text agree on every game.
func normalize(g *game.Game) *game.Game {
	nodes := make([]game.Node, len(g.Nodes))
	copy(nodes, g.Nodes)
	for i := range nodes {
		if len(nodes[i].Successors) == 0 {
			nodes[i].Priority = 1 - int(nodes[i].Player)
			nodes[i].Successors = []int{i}
		}
	}
	return &game.Game{Nodes: nodes, Initial: g.Initial}
}

func allNodes(n int) []int {
	nodes := make([]int, n)
	for i := range nodes {
		nodes[i] = i
	}
	return nodes
}

// solveZielonka computes the winner (within sub) of every node in sub, a
// set of node ids forming a closed sub-arena (every successor of a node in
// sub is also in sub), and writes the result into winner.
func solveZielonka(g *game.Game, sub []int, winner []game.Player) {
	if len(sub) == 0 {
		return
	}

	maxPriority, inSub := maxPriorityOf(g, sub)
	owner := game.Universal
	if maxPriority%2 == 0 {
		owner = game.Existential
	}
	opponent := other(owner)

	topSet := nodesWithPriority(g, sub, maxPriority)
	attractor := attract(g, sub, inSub, topSet, owner)
	rest := subtract(sub, attractor)

	solveZielonka(g, rest, winner)

	// If the opponent's recursively-computed winning region within rest is
	// empty, owner wins every node of sub: rest is already all-owner from
	// the recursive call, so only attractor needs assigning here.
	opponentNodesInRest := winningNodes(rest, winner, opponent)
	if len(opponentNodesInRest) == 0 {
		for _, n := range attractor {
			winner[n] = owner
		}
		return
	}

	// Otherwise the opponent's winning region can reach back out across the
	// whole of sub (including attractor), so recompute over what remains
	// after removing the opponent's attractor of that region.
	opponentRegion := attract(g, sub, inSub, opponentNodesInRest, opponent)
	for _, n := range opponentRegion {
		winner[n] = opponent
	}
	remaining := subtract(sub, opponentRegion)
	solveZielonka(g, remaining, winner)
}

func winningNodes(nodes []int, winner []game.Player, p game.Player) []int {
	var out []int
	for _, n := range nodes {
		if winner[n] == p {
			out = append(out, n)
		}
	}
	return out
}

func other(p game.Player) game.Player {
	if p == game.Existential {
		return game.Universal
	}
	return game.Existential
}

func maxPriorityOf(g *game.Game, sub []int) (int, map[int]bool) {
	inSub := toSet(sub)
	max := -1
	for _, n := range sub {
		if g.Nodes[n].Priority > max {
			max = g.Nodes[n].Priority
		}
	}
	return max, inSub
}

func nodesWithPriority(g *game.Game, sub []int, priority int) []int {
	var out []int
	for _, n := range sub {
		if g.Nodes[n].Priority == priority {
			out = append(out, n)
		}
	}
	return out
}

func toSet(nodes []int) map[int]bool {
	m := make(map[int]bool, len(nodes))
	for _, n := range nodes {
		m[n] = true
	}
	return m
}

func subtract(sub []int, remove []int) []int {
	removeSet := toSet(remove)
	var out []int
	for _, n := range sub {
		if !removeSet[n] {
			out = append(out, n)
		}
	}
	return out
}

// attract computes the owner-attractor of seed within sub: the set of
// nodes from which owner can force play to reach seed, staying within sub.
func attract(g *game.Game, sub []int, inSub map[int]bool, seed []int, owner game.Player) []int {
	in := toSet(seed)
	changed := true
	for changed {
		changed = false
		for _, n := range sub {
			if in[n] {
				continue
			}
			node := g.Nodes[n]
			var succInSub []int
			for _, s := range node.Successors {
				if inSub[s] {
					succInSub = append(succInSub, s)
				}
			}
			if len(succInSub) == 0 {
				continue
			}
			if node.Player == owner {
				for _, s := range succInSub {
					if in[s] {
						in[n] = true
						changed = true
						break
					}
				}
			} else {
				allIn := true
				for _, s := range succInSub {
					if !in[s] {
						allIn = false
						break
					}
				}
				if allIn {
					in[n] = true
					changed = true
				}
			}
		}
	}

	out := make([]int, 0, len(in))
	for n := range in {
		out = append(out, n)
	}
	return out
}
