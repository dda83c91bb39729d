// Command judged is a thin CLI front end over the judge engine: it reads a
// job description as JSON from stdin (or a file) and writes the job's
// result as JSON to stdout. Transport, schema validation, and server
// bootstrap are deliberately out of scope here — see SPEC_FULL.md §1 — this
// binary exists so the engine can be exercised and scripted without
// standing up a server.
//
// Grounded on the teacher's main.go for flag/CLI shape (--version,
// subcommand dispatch, os.Exit-by-return-code), rebuilt on
// github.com/spf13/cobra instead of a hand-rolled os.Args switch since
// cobra is already in the teacher's own dependency graph and the rest of
// the example pack leans on it for multi-subcommand CLIs.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ecopelan/judged/internal/config"
	"github.com/ecopelan/judged/internal/engine"
	"github.com/ecopelan/judged/internal/judge"
)

var (
	version = "dev"
	inFile  string
)

func main() {
	root := &cobra.Command{
		Use:     "judged",
		Short:   "Sandboxed build-and-execute judge engine",
		Version: version,
	}

	debugCmd := &cobra.Command{
		Use:   "debug",
		Short: "Compile and run one submission once",
		RunE:  runDebug,
	}
	debugCmd.Flags().StringVarP(&inFile, "file", "f", "", "read the job JSON from this file instead of stdin")

	testCmd := &cobra.Command{
		Use:   "test",
		Short: "Compile once and run a submission against many test cases",
		RunE:  runTest,
	}
	testCmd.Flags().StringVarP(&inFile, "file", "f", "", "read the job JSON from this file instead of stdin")

	root.AddCommand(debugCmd, testCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "judged: %v\n", err)
		os.Exit(1)
	}
}

type debugInput struct {
	Code   string  `json:"code"`
	DataIn *string `json:"data_in,omitempty"`
}

type debugOutput struct {
	Result *string `json:"result,omitempty"`
	Error  *string `json:"error,omitempty"`
}

func runDebug(cmd *cobra.Command, args []string) error {
	cfg, eng, err := bootstrap()
	if err != nil {
		return err
	}
	defer cfg.Logger.Sync() //nolint:errcheck

	var in debugInput
	if err := readJSON(&in); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), jobDeadline(cfg))
	defer cancel()

	result, err := eng.Debug(ctx, judge.DebugRequest{Code: in.Code, DataIn: in.DataIn})
	if err != nil {
		return writeFailure(err)
	}

	return writeJSON(debugOutput{Result: result.Result, Error: result.Error})
}

type testCaseInput struct {
	DataIn  *string `json:"data_in,omitempty"`
	DataOut string  `json:"data_out"`
}

type testInput struct {
	Code    string          `json:"code"`
	Checker string          `json:"checker"`
	Tests   []testCaseInput `json:"tests"`
}

type testCaseOutput struct {
	Result *string `json:"result,omitempty"`
	Error  *string `json:"error,omitempty"`
	OK     bool    `json:"ok"`
}

type testOutput struct {
	Tests []testCaseOutput `json:"tests"`
	Num   int               `json:"num"`
	NumOK int               `json:"num_ok"`
	OK    bool              `json:"ok"`
}

func runTest(cmd *cobra.Command, args []string) error {
	cfg, eng, err := bootstrap()
	if err != nil {
		return err
	}
	defer cfg.Logger.Sync() //nolint:errcheck

	var in testInput
	if err := readJSON(&in); err != nil {
		return err
	}

	tests := make([]judge.TestCase, len(in.Tests))
	for i, t := range in.Tests {
		tests[i] = judge.TestCase{DataIn: t.DataIn, DataOut: t.DataOut}
	}

	ctx, cancel := context.WithTimeout(context.Background(), jobDeadline(cfg)*time.Duration(len(tests)+1))
	defer cancel()

	result, err := eng.Testing(ctx, judge.TestsRequest{Code: in.Code, Checker: in.Checker, Tests: tests})
	if err != nil {
		return writeFailure(err)
	}

	out := testOutput{Num: result.Num, NumOK: result.NumOK, OK: result.OK}
	out.Tests = make([]testCaseOutput, len(result.Tests))
	for i, t := range result.Tests {
		out.Tests[i] = testCaseOutput{Result: t.Result, Error: t.Error, OK: t.OK}
	}

	return writeJSON(out)
}

func bootstrap() (*config.Config, *engine.Engine, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if err := os.MkdirAll(cfg.SandboxDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("preparing sandbox directory: %w", err)
	}
	return cfg, engine.New(cfg), nil
}

func jobDeadline(cfg *config.Config) time.Duration {
	return cfg.Timeout + 5*time.Second
}

func readJSON(v any) error {
	var r io.Reader = os.Stdin
	if inFile != "" {
		f, err := os.Open(inFile)
		if err != nil {
			return fmt.Errorf("opening input file: %w", err)
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("decoding job: %w", err)
	}
	return nil
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeFailure reports a host-side failure (CompileError, ExecutionError,
// WorkspaceError, CheckerError) distinctly from an ordinary compile/run
// diagnostic, which is always returned as part of a 200-shaped result.
func writeFailure(err error) error {
	type messager interface{ Message() string }
	msg := err.Error()
	if m, ok := err.(messager); ok {
		msg = m.Message()
	}
	fmt.Fprintf(os.Stderr, "judged: %s\n", msg)
	os.Exit(2)
	return nil
}
