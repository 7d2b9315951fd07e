package mucalcsat

import (
	"fmt"
	"strings"

	"github.com/dekarrin/mucalcsat/internal/apta"
	"github.com/dekarrin/mucalcsat/internal/game"
)

// aptaGraphviz renders the APTA's reachability digraph (q -> q' whenever
// q' is some successor of q) as Graphviz dot text: the "orig.dot"
// diagnostic artifact.
func aptaGraphviz(a *apta.APTA) string {
	var sb strings.Builder
	sb.WriteString("digraph APTA {\n")
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=ellipse];\n\n")

	for idx, st := range a.States {
		shape := "box"
		if st.Existential {
			shape = "diamond"
		}
		sb.WriteString(fmt.Sprintf("  %d [label=\"%d: %s\\nOmega=%d\" shape=%s];\n",
			idx, idx, st.Value, st.Priority, shape))
	}
	sb.WriteString("\n")

	for idx, st := range a.States {
		for lbl, succs := range st.Next {
			for _, s := range succs.Elements() {
				sb.WriteString(fmt.Sprintf("  %d -> %d [label=\"%s\"];\n", idx, s, lbl))
			}
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}

// gameGraphviz renders the constructed parity game as Graphviz dot text:
// the "graph.dot" diagnostic artifact.
func gameGraphviz(g *game.Game) string {
	var sb strings.Builder
	sb.WriteString("digraph ParityGame {\n")
	sb.WriteString("  rankdir=LR;\n\n")

	for id, n := range g.Nodes {
		shape := "box"
		if n.Player == game.Existential {
			shape = "diamond"
		}
		peripheries := ""
		if id == g.Initial {
			peripheries = " peripheries=2"
		}
		sb.WriteString(fmt.Sprintf("  %d [label=\"%d: p=%d\" shape=%s%s];\n",
			id, id, n.Priority, shape, peripheries))
	}
	sb.WriteString("\n")

	for id, n := range g.Nodes {
		for _, s := range n.Successors {
			sb.WriteString(fmt.Sprintf("  %d -> %d;\n", id, s))
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}
