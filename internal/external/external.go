// Package external invokes the two collaborators that may stay opaque
// processes: a PGSolver-compatible game solver, and (optionally, in place
// of the built-in dpw.BuiltinDeterminizer) an external determinizer
// binary. Both share the same shape: run a command, feed it stdin, capture
// stdout, and fail loudly with stderr attached.
package external

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/dekarrin/mucalcsat/internal/game"
	"github.com/dekarrin/mucalcsat/internal/muerrors"
)

// Solver shells out to a PGSolver-compatible binary, feeding it the
// PGSolver text on stdin and parsing its verdict for node 0 from stdout.
// Callers only ever ask it about node 0, since that is the only node
// satisfiability depends on.
type Solver struct {
	// Path to the solver binary, e.g. "pgsolver" or an absolute path.
	Path string

	// Args are extra arguments passed before the PGSolver file argument.
	Args []string
}

// WinsExistential runs the configured solver against g's PGSolver encoding
// and reports whether player 0 (existential) wins node 0.
func (s Solver) WinsExistential(ctx context.Context, g *game.Game) (bool, error) {
	text := g.Encode()

	out, stderr, err := runCapture(ctx, s.Path, s.Args, text)
	if err != nil {
		return false, muerrors.NewExternalToolError(s.Path, err, stderr)
	}

	won, ok := parseVerdict(out)
	if !ok {
		return false, muerrors.NewExternalToolError(s.Path,
			fmt.Errorf("could not find a node 0 verdict in solver output"), stderr)
	}
	return won, nil
}

// parseVerdict scans PGSolver-style solver output ("0 won by 0" /
// "0 won by 1") for node 0's winner. Most PGSolver-compatible solvers
// (pgsolver, oink) emit one "<node> won by <player>" line per node.
func parseVerdict(out string) (wonByExistential bool, found bool) {
	var node, player int
	for _, line := range splitLines(out) {
		n, p, ok := scanWonByLine(line)
		if !ok {
			continue
		}
		node, player = n, p
		if node == 0 {
			return player == 0, true
		}
	}
	return false, false
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func scanWonByLine(line string) (node, player int, ok bool) {
	n, p := 0, 0
	matched, err := fmt.Sscanf(line, "%d won by %d", &n, &p)
	if err != nil || matched != 2 {
		return 0, 0, false
	}
	return n, p, true
}

// Determinizer shells out to an external determinization process that
// accepts a Cube-alphabet automaton description and emits the same shape
// back determinized. Unlike Solver, no concrete wire format is fixed for
// this collaborator (only the boolean-label encoding is, not a process
// transport), so this type provides the invocation plumbing and leaves
// the payload format to the configured binary's own convention; callers
// without such a binary should prefer dpw.BuiltinDeterminizer.
type Determinizer struct {
	Path string
	Args []string
}

// Run invokes the configured external determinizer binary, feeding it
// input on stdin and returning its stdout. The caller is responsible for
// interpreting the payload according to the external tool's own contract.
func (d Determinizer) Run(ctx context.Context, input string) (string, error) {
	out, stderr, err := runCapture(ctx, d.Path, d.Args, input)
	if err != nil {
		return "", muerrors.NewExternalToolError(d.Path, err, stderr)
	}
	return out, nil
}

// runCapture runs prog with args, feeding stdin and capturing stdout and
// stderr separately.
func runCapture(ctx context.Context, prog string, args []string, stdin string) (stdout string, stderr string, err error) {
	cmd := exec.CommandContext(ctx, prog, args...)
	cmd.Stdin = bytes.NewBufferString(stdin)

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	if runtime.GOOS == "windows" {
		cmd.Env = os.Environ()
	}

	if runErr := cmd.Run(); runErr != nil {
		return "", errBuf.String(), fmt.Errorf("running %s: %w", prog, runErr)
	}
	return outBuf.String(), errBuf.String(), nil
}
