package game

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dekarrin/mucalcsat/internal/muerrors"
)

// Encode renders the game as PGSolver text: a "parity N;" header carrying
// the total node count, then one "id priority player successors;" line per
// node in ascending id order. A node with no successors is emitted as a
// self-loop whose priority is flipped to the opposite parity of its owner,
// so the player who cannot move loses under max-even acceptance.
func (g *Game) Encode() string {
	var sb strings.Builder
	sb.WriteString("parity ")
	sb.WriteString(strconv.Itoa(len(g.Nodes)))
	sb.WriteString(";\n")

	for id, n := range g.Nodes {
		prio := n.Priority
		succs := dedupeSortedInts(n.Successors)
		if len(succs) == 0 {
			prio = 1 - int(n.Player)
			succs = []int{id}
		}
		writeNodeLine(&sb, id, prio, int(n.Player), succs)
	}
	return sb.String()
}

func writeNodeLine(sb *strings.Builder, id, prio, player int, succs []int) {
	sb.WriteString(strconv.Itoa(id))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(prio))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(player))
	sb.WriteByte(' ')
	parts := make([]string, len(succs))
	for i, s := range succs {
		parts[i] = strconv.Itoa(s)
	}
	sb.WriteString(strings.Join(parts, ","))
	sb.WriteString(";\n")
}

// dedupeSortedInts returns the distinct values of succs in ascending order.
func dedupeSortedInts(succs []int) []int {
	sorted := append([]int(nil), succs...)
	sort.Ints(sorted)
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

// ParsedNode is one line of a parsed PGSolver document.
type ParsedNode struct {
	ID         int
	Priority   int
	Player     Player
	Successors []int
	Name       string
}

// ParsedGame is the result of parsing PGSolver text back into structured
// form, used to check that emission and reparsing agree without requiring
// the Arena/DPW that produced a Game.
type ParsedGame struct {
	// N is the node count announced by the header.
	N     int
	Nodes []ParsedNode
}

// Encode re-serializes pg using the same textual conventions Game.Encode
// uses, so that parse-then-encode is byte-identical on well-formed input.
func (pg *ParsedGame) Encode() string {
	var sb strings.Builder
	sb.WriteString("parity ")
	sb.WriteString(strconv.Itoa(pg.N))
	sb.WriteString(";\n")
	for _, n := range pg.Nodes {
		writeNodeLine(&sb, n.ID, n.Priority, int(n.Player), n.Successors)
	}
	return sb.String()
}

// Parse parses text in the format Game.Encode emits. It is deliberately
// strict: a malformed header or node line is a SyntaxError, mirroring how
// internal/formula's parser reports bad input. A trailing double-quoted
// node name is tolerated on node lines, since some PGSolver producers
// annotate nodes that way.
func Parse(text string) (*ParsedGame, error) {
	lines := strings.Split(text, "\n")
	pg := &ParsedGame{}

	parseErr := func(lineNo int, raw, message string) error {
		return muerrors.NewSyntaxError(message, raw, raw, lineNo, 1)
	}

	headerSeen := false
	for lineNo, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		line = strings.TrimSuffix(line, ";")

		if !headerSeen {
			fields := strings.Fields(line)
			if len(fields) != 2 || fields[0] != "parity" {
				return nil, parseErr(lineNo+1, raw, fmt.Sprintf("expected \"parity N;\" header, got %q", raw))
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, parseErr(lineNo+1, raw, fmt.Sprintf("bad header node count %q", fields[1]))
			}
			pg.N = n
			headerSeen = true
			continue
		}

		node, name, hasName := splitName(line)
		fields := strings.Fields(node)
		if len(fields) < 3 {
			return nil, parseErr(lineNo+1, raw, fmt.Sprintf("malformed node line %q", raw))
		}

		id, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, parseErr(lineNo+1, raw, fmt.Sprintf("bad node id %q", fields[0]))
		}
		priority, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, parseErr(lineNo+1, raw, fmt.Sprintf("bad priority %q", fields[1]))
		}
		playerVal, err := strconv.Atoi(fields[2])
		if err != nil || (playerVal != 0 && playerVal != 1) {
			return nil, parseErr(lineNo+1, raw, fmt.Sprintf("bad player %q", fields[2]))
		}

		var succs []int
		if len(fields) >= 4 {
			for _, s := range strings.Split(fields[3], ",") {
				s = strings.TrimSpace(s)
				if s == "" {
					continue
				}
				v, err := strconv.Atoi(s)
				if err != nil {
					return nil, parseErr(lineNo+1, raw, fmt.Sprintf("bad successor id %q", s))
				}
				succs = append(succs, v)
			}
		}

		pn := ParsedNode{ID: id, Priority: priority, Player: Player(playerVal), Successors: succs}
		if hasName {
			pn.Name = name
		}
		pg.Nodes = append(pg.Nodes, pn)
	}

	if !headerSeen {
		return nil, parseErr(0, "", "empty document, missing header")
	}
	return pg, nil
}

// splitName separates a trailing quoted name from the rest of a node line,
// if present.
func splitName(line string) (rest, name string, hasName bool) {
	q := strings.IndexByte(line, '"')
	if q < 0 {
		return line, "", false
	}
	end := strings.LastIndexByte(line, '"')
	if end <= q {
		return line, "", false
	}
	return strings.TrimSpace(line[:q]), line[q+1 : end], true
}
