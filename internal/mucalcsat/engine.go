// Package mucalcsat wires together the satisfiability pipeline: parse a
// formula, build its APTA and priority function, derive the game arena and
// tracking NPA, determinize into a DPW, build the parity game, emit
// PGSolver text and decide the verdict. Engine owns the pipeline's
// configuration and exposes one entry point that a thin cmd/ front end
// drives.
package mucalcsat

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dekarrin/mucalcsat/internal/apta"
	"github.com/dekarrin/mucalcsat/internal/arena"
	"github.com/dekarrin/mucalcsat/internal/dpw"
	"github.com/dekarrin/mucalcsat/internal/formula"
	"github.com/dekarrin/mucalcsat/internal/game"
	"github.com/dekarrin/mucalcsat/internal/npa"
	"github.com/dekarrin/mucalcsat/internal/solver"
)

// Verdict is the final, user-visible result of a run.
type Verdict struct {
	// Satisfiable is true iff the existential player wins node 0 of the
	// emitted parity game.
	Satisfiable bool

	// PGSolverText is the emitted game, always populated on success.
	PGSolverText string
}

func (v Verdict) String() string {
	if v.Satisfiable {
		return "True"
	}
	return "False"
}

// ExternalSolver is the "game solver" collaborator: given a constructed
// game, decide whether player 0 wins node 0. Both solver.Zielonka
// (wrapped by zielonkaAdapter below) and external.Solver fit.
type ExternalSolver interface {
	WinsExistential(ctx context.Context, g *game.Game) (bool, error)
}

// Engine owns one run of the pipeline from parsed formula to verdict.
// Fields hold injected collaborators and options; the pipeline itself
// lives in methods rather than free functions so a caller can hold onto
// intermediate state (APTA, Arena, Game) for diagnostics between steps.
type Engine struct {
	// Determinizer turns the tracking NPA into a DPW. Defaults to
	// dpw.BuiltinDeterminizer{} when nil.
	Determinizer dpw.Determinizer

	// Solver decides the game's winner. Defaults to solver.Zielonka{}
	// when nil.
	Solver ExternalSolver

	// DiagnosticsDir, if non-empty, receives the orig.dot and graph.dot
	// diagnostic artifacts after a successful Run.
	DiagnosticsDir string

	// Last-built pipeline stages, retained after Run for diagnostics and
	// testing; nil until Run succeeds past that stage.
	AST   *formula.Formula
	APTA  *apta.APTA
	Arena *arena.Arena
	NPA   *npa.NPA
	DPW   *dpw.DPW
	Game  *game.Game
}

// New returns an Engine with the built-in determinizer and solver; either
// can be overridden on the returned value before calling Run.
func New() *Engine {
	return &Engine{
		Determinizer: dpw.BuiltinDeterminizer{},
		Solver:       zielonkaAdapter{},
	}
}

// zielonkaAdapter satisfies ExternalSolver using the built-in recursive
// Zielonka algorithm, which has no need of a context (it never blocks).
type zielonkaAdapter struct{}

func (zielonkaAdapter) WinsExistential(_ context.Context, g *game.Game) (bool, error) {
	result, err := (solver.Zielonka{}).Solve(g)
	if err != nil {
		return false, err
	}
	return result.Wins(game.Existential, g.Initial), nil
}

// RunSource parses src as a surface formula and runs the full pipeline
// over it.
func (e *Engine) RunSource(ctx context.Context, src string) (Verdict, error) {
	f, err := formula.Parse(src)
	if err != nil {
		return Verdict{}, err
	}
	return e.Run(ctx, f)
}

// Run executes the pipeline over an
// already-parsed formula: build the APTA (with Omega), the arena and
// tracking NPA, determinize, build the parity game, emit PGSolver text,
// write diagnostics, solve, and report the verdict.
func (e *Engine) Run(ctx context.Context, f *formula.Formula) (Verdict, error) {
	e.AST = f

	a, q0, err := apta.Build(f)
	if err != nil {
		return Verdict{}, err
	}
	e.APTA = a

	ar := arena.Build(a, q0)
	e.Arena = ar

	n := npa.Build(a)
	e.NPA = n

	enc := dpw.NewEncoder(a)

	determinizer := e.Determinizer
	if determinizer == nil {
		determinizer = dpw.BuiltinDeterminizer{}
	}
	d, err := determinizer.Determinize(n, enc)
	if err != nil {
		return Verdict{}, err
	}
	e.DPW = d

	g, err := game.Build(ar, enc, d)
	if err != nil {
		return Verdict{}, err
	}
	e.Game = g

	if e.DiagnosticsDir != "" {
		if err := e.writeDiagnostics(); err != nil {
			return Verdict{}, err
		}
	}

	slvr := e.Solver
	if slvr == nil {
		slvr = zielonkaAdapter{}
	}
	won, err := slvr.WinsExistential(ctx, g)
	if err != nil {
		return Verdict{}, err
	}

	return Verdict{Satisfiable: won, PGSolverText: g.Encode()}, nil
}

// writeDiagnostics writes orig.dot and graph.dot into DiagnosticsDir.
// Neither artifact is part of any contract; they exist for eyeballing the
// constructed automaton and game.
func (e *Engine) writeDiagnostics() error {
	if err := os.MkdirAll(e.DiagnosticsDir, 0o755); err != nil {
		return fmt.Errorf("creating diagnostics directory: %w", err)
	}

	origPath := filepath.Join(e.DiagnosticsDir, "orig.dot")
	if err := os.WriteFile(origPath, []byte(aptaGraphviz(e.APTA)), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", origPath, err)
	}

	graphPath := filepath.Join(e.DiagnosticsDir, "graph.dot")
	if err := os.WriteFile(graphPath, []byte(gameGraphviz(e.Game)), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", graphPath, err)
	}

	return nil
}
