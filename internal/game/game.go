// Package game builds the two-player parity game that decides
// satisfiability, and serializes it to the PGSolver textual format. A game
// node combines an arena position, a state of the determinized tracking
// automaton, and a carried symbol recording how far through the current
// arena move the tracking automaton has read: unread, a bare letter, or a
// (letter, choice) pair about to be consumed.
package game

import (
	"strconv"
	"strings"

	"github.com/dekarrin/mucalcsat/internal/arena"
	"github.com/dekarrin/mucalcsat/internal/dpw"
	"github.com/dekarrin/mucalcsat/internal/label"
)

// Player identifies which side owns a node. Existential owns nodes whose
// arena position is existential (trying to witness satisfiability);
// Universal owns the rest, and every node whose symbol is pending.
type Player int

const (
	Existential Player = 0
	Universal   Player = 1
)

func (p Player) String() string {
	if p == Existential {
		return "0"
	}
	return "1"
}

// SymbolKind tags the three shapes a node's carried symbol can take.
type SymbolKind int

const (
	// SymNone: no symbol pending; the node moves in the arena next.
	SymNone SymbolKind = iota

	// SymSigma: a bare letter. Either freshly emitted (about to be
	// re-attached to a choice) or carried across a representative
	// universal step that involves no choice; in both cases the tracking
	// automaton does not consume it.
	SymSigma

	// SymPair: a (letter, choice) pair the tracking automaton must consume
	// on the next step.
	SymPair
)

// Symbol is a node's carried symbol.
type Symbol struct {
	Kind  SymbolKind
	Sigma []label.APValue // valid unless Kind == SymNone
	D     arena.DValue    // valid iff Kind == SymPair
}

func (s Symbol) key() string {
	switch s.Kind {
	case SymNone:
		return "-"
	case SymSigma:
		return "s:" + sigmaKey(s.Sigma)
	default:
		return "p:" + sigmaKey(s.Sigma) + "/" + s.D.Key()
	}
}

func sigmaKey(sigma []label.APValue) string {
	var sb strings.Builder
	for _, av := range sigma {
		sb.WriteString(av.Prop)
		if av.Value {
			sb.WriteByte('+')
		} else {
			sb.WriteByte('!')
		}
	}
	return sb.String()
}

// Node is one position of the parity game: (arena position, tracking
// state, symbol), owned by whichever player controls it, coloured one
// above the tracking state's parity colour.
type Node struct {
	Pos        int
	Track      int
	Symbol     Symbol
	Player     Player
	Priority   int
	Successors []int
}

// trackEdge is one transition of the determinized tracking automaton with
// its condition already reverse-translated into a Label.
type trackEdge struct {
	Label  label.Label
	Target int
}

// Game is the constructed parity game, reachable from node 0.
type Game struct {
	Nodes   []Node
	Initial int

	index map[string]int
}

// Build constructs the parity game reachable from (ar.Initial, d.Initial)
// with no symbol pending. The DPW's edge conditions are reverse-translated
// into Labels up front; a condition that cannot be decoded is a fatal
// internal error.
func Build(ar *arena.Arena, enc *dpw.Encoder, d *dpw.DPW) (*Game, error) {
	track := make([][]trackEdge, d.NumStates)
	for state, edges := range d.Edges {
		for _, e := range edges {
			lbl, err := enc.Decode(e.Cond)
			if err != nil {
				return nil, err
			}
			track[state] = append(track[state], trackEdge{Label: lbl, Target: e.Target})
		}
	}

	g := &Game{index: map[string]int{}}
	g.Initial = g.getNode(ar.Initial, d.Initial, Symbol{Kind: SymNone}, ar)

	for frontier := 0; frontier < len(g.Nodes); frontier++ {
		g.expand(frontier, ar, d, track)
	}
	return g, nil
}

func (g *Game) getNode(pos, trackState int, sym Symbol, ar *arena.Arena) int {
	key := strconv.Itoa(pos) + "|" + strconv.Itoa(trackState) + "|" + sym.key()
	if idx, ok := g.index[key]; ok {
		return idx
	}

	player := Universal
	if sym.Kind == SymNone && ar.Positions[pos].Existential {
		player = Existential
	}

	idx := len(g.Nodes)
	g.Nodes = append(g.Nodes, Node{Pos: pos, Track: trackState, Symbol: sym, Player: player})
	g.index[key] = idx
	return idx
}

func (g *Game) expand(idx int, ar *arena.Arena, d *dpw.DPW, track [][]trackEdge) {
	// Copy the node's identity out before expanding: getNode appends to
	// g.Nodes, so a held pointer or element reference would go stale.
	n := g.Nodes[idx]
	g.Nodes[idx].Priority = d.Colour[n.Track] + 1
	pos := ar.Positions[n.Pos]

	var succs []int
	switch n.Symbol.Kind {
	case SymNone:
		if !pos.HasSigma {
			// Emit a letter: one successor per valuation, which the target
			// carries as a bare symbol.
			for _, edge := range ar.Edges[n.Pos] {
				succs = append(succs, g.getNode(edge.Target, n.Track, Symbol{Kind: SymSigma, Sigma: edge.Sigma}, ar))
			}
			break
		}
		// Make a move under the already-read letter: attach the edge's
		// choice to it. A representative universal step carries no choice,
		// so its target gets the bare letter instead.
		for _, edge := range ar.Edges[n.Pos] {
			sym := Symbol{Kind: SymPair, Sigma: pos.Sigma, D: edge.D}
			if edge.D.Kind == arena.DNone {
				sym = Symbol{Kind: SymSigma, Sigma: pos.Sigma}
			}
			succs = append(succs, g.getNode(edge.Target, n.Track, sym, ar))
		}

	case SymPair:
		// Consume the (letter, choice) pair: one successor per compatible
		// tracking transition. The universal player resolves which of them
		// the tracking automaton follows.
		sigma := make(map[string]bool, len(n.Symbol.Sigma))
		for _, av := range n.Symbol.Sigma {
			sigma[av.Prop] = av.Value
		}
		for _, e := range track[n.Track] {
			if !compatible(e.Label, sigma, n.Symbol.D) {
				continue
			}
			succs = append(succs, g.getNode(n.Pos, e.Target, Symbol{Kind: SymNone}, ar))
		}

	default: // SymSigma
		// A bare letter is dropped without advancing the tracking automaton.
		succs = append(succs, g.getNode(n.Pos, n.Track, Symbol{Kind: SymNone}, ar))
	}

	g.Nodes[idx].Successors = succs
}

// compatible reports whether a tracking transition labelled lbl may fire
// against the carried letter sigma and choice d.
//
// CHOICE with no recorded pairs matches any choice dictionary d (but not a
// modal-state d), and STATE with no recorded
// target matches any modal choice; both deliberately permissive so that
// waiting self-loops and universal broadcasts stay enabled.
func compatible(lbl label.Label, sigma map[string]bool, d arena.DValue) bool {
	if !lbl.Matches(sigma) {
		return false
	}

	switch lbl.Kind {
	case label.Any:
		return true
	case label.Choice:
		if d.Kind != arena.DDict {
			return false
		}
		for _, pair := range lbl.Extra {
			if chosen, ok := d.Dict[pair.Q]; !ok || chosen != pair.QPrime {
				return false
			}
		}
		return true
	default: // label.State
		if d.Kind != arena.DState {
			return false
		}
		return !lbl.HasExtra || lbl.ExtraState == d.State
	}
}
