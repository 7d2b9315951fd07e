/*
Mucalcsat decides satisfiability of a modal mu-calculus formula by reducing
it to the emptiness of an alternating parity tree automaton, by way of an
intermediate two-player parity game.

Usage:

	mucalcsat [flags] FORMULA

The flags are:

	-v, --version
		Print the current version and exit.

	-f, --file FILE
		Read the formula from FILE instead of the command line.

	-o, --output FILE
		Write the emitted PGSolver game text to FILE. Without this flag
		the game text is not written anywhere.

	--solver PATH
		Shell out to the named PGSolver-compatible solver binary instead
		of the built-in Zielonka recursive solver.

	-d, --diagnostics DIR
		Write orig.dot and graph.dot diagnostic artifacts into DIR.

The formula is parsed according to internal/formula's surface grammar.
Once a verdict is determined, mucalcsat prints "True" or "False" to
stdout.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dekarrin/mucalcsat/internal/external"
	"github.com/dekarrin/mucalcsat/internal/mucalcsat"
	"github.com/dekarrin/mucalcsat/internal/muerrors"
	"github.com/dekarrin/mucalcsat/internal/version"
	"github.com/spf13/pflag"
)

const (
	// ExitSuccess indicates a verdict was determined and printed.
	ExitSuccess = iota

	// ExitParseError indicates the input formula could not be read or
	// parsed.
	ExitParseError

	// ExitInternalError indicates a fatal internal invariant violation
	// (a programmer error in the pipeline, not a malformed input).
	ExitInternalError

	// ExitToolError indicates an external solver/determinizer failed, or
	// the --output file could not be written.
	ExitToolError
)

var (
	returnCode int = ExitSuccess

	flagVersion     = pflag.BoolP("version", "v", false, "print the version and exit")
	flagFile        = pflag.StringP("file", "f", "", "read the formula from this file instead of the command line")
	flagOutput      = pflag.StringP("output", "o", "", "write the PGSolver game text to this file (not written otherwise)")
	flagSolver      = pflag.String("solver", "", "path to an external PGSolver-compatible solver binary")
	flagDiagnostics = pflag.StringP("diagnostics", "d", "", "directory to write orig.dot / graph.dot diagnostic artifacts into")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			fmt.Fprintf(os.Stderr, "ERROR: internal invariant violation: %v\n", panicErr)
			os.Exit(ExitInternalError)
		}
		os.Exit(returnCode)
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("mucalcsat %s\n", version.Current)
		return
	}

	src, err := readFormulaSource()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitParseError
		return
	}

	eng := mucalcsat.New()
	eng.DiagnosticsDir = *flagDiagnostics
	if *flagSolver != "" {
		eng.Solver = external.Solver{Path: *flagSolver}
	}

	verdict, err := eng.RunSource(context.Background(), src)
	if err != nil {
		returnCode = exitCodeFor(err)
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", describeError(err))
		return
	}

	if err := writeOutput(verdict.PGSolverText); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitToolError
		return
	}

	fmt.Println(verdict.String())
}

func readFormulaSource() (string, error) {
	if *flagFile != "" {
		data, err := os.ReadFile(*flagFile)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", *flagFile, err)
		}
		return string(data), nil
	}

	args := pflag.Args()
	if len(args) == 0 {
		return "", fmt.Errorf("no formula given: pass one as an argument or with --file")
	}
	return args[0], nil
}

func writeOutput(text string) error {
	if *flagOutput == "" {
		return nil
	}
	if err := os.WriteFile(*flagOutput, []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", *flagOutput, err)
	}
	return nil
}

func exitCodeFor(err error) int {
	var syn *muerrors.SyntaxError
	var ext *muerrors.ExternalToolError
	switch {
	case errors.As(err, &syn):
		return ExitParseError
	case errors.As(err, &ext):
		return ExitToolError
	default:
		return ExitInternalError
	}
}

func describeError(err error) string {
	var se *muerrors.SyntaxError
	if errors.As(err, &se) {
		return se.FullMessage()
	}
	return err.Error()
}
