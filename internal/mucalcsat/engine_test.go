package mucalcsat

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRunSource_EndToEndScenarios drives small formulae with known
// verdicts through the full pipeline (parse -> APTA -> arena/NPA -> DPW
// -> game -> Zielonka), not just a single stage.
func TestRunSource_EndToEndScenarios(t *testing.T) {
	cases := []struct {
		name        string
		formula     string
		satisfiable bool
	}{
		{"true literal", "true", true},
		{"false literal", "false", false},
		{"p and not p", "p && !p", false},
		{"mu X.X is unsatisfiable", "mu X. X", false},
		{"nu X.X is satisfiable", "nu X. X", true},
		{"nu X.(p && <>X) is satisfiable", "nu X. (p && <>X)", true},
		{"mu X.(p || <>X) is satisfiable", "mu X. (p || <>X)", true},
		{"diamond a and box b is satisfiable", "(<>a) && ([]b)", true},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			eng := New()
			verdict, err := eng.RunSource(context.Background(), c.formula)
			require.NoError(t, err)
			assert.Equal(t, c.satisfiable, verdict.Satisfiable, "formula %q", c.formula)
		})
	}
}

func TestRun_PopulatesIntermediateStages(t *testing.T) {
	eng := New()
	_, err := eng.RunSource(context.Background(), "p || !p")
	require.NoError(t, err)

	assert.NotNil(t, eng.AST)
	assert.NotNil(t, eng.APTA)
	assert.NotNil(t, eng.Arena)
	assert.NotNil(t, eng.NPA)
	assert.NotNil(t, eng.DPW)
	assert.NotNil(t, eng.Game)
}

func TestRun_EmitsParseablePGSolverText(t *testing.T) {
	eng := New()
	verdict, err := eng.RunSource(context.Background(), "nu X. (p && <>X)")
	require.NoError(t, err)
	assert.Contains(t, verdict.PGSolverText, "parity ")
}

func TestRunSource_SyntaxErrorSurfacesToCaller(t *testing.T) {
	eng := New()
	_, err := eng.RunSource(context.Background(), "p &&")
	require.Error(t, err)
}

func TestRun_WritesDiagnosticArtifacts(t *testing.T) {
	dir := t.TempDir()
	eng := New()
	eng.DiagnosticsDir = dir
	_, err := eng.RunSource(context.Background(), "<>p")
	require.NoError(t, err)

	orig, err := os.ReadFile(filepath.Join(dir, "orig.dot"))
	require.NoError(t, err)
	assert.Contains(t, string(orig), "digraph APTA")

	graph, err := os.ReadFile(filepath.Join(dir, "graph.dot"))
	require.NoError(t, err)
	assert.Contains(t, string(graph), "digraph ParityGame")
}
