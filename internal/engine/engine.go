// Package engine drives the external build driver and the compiled binary
// as child processes, under a wall-clock timeout and a reduced-privilege
// execution context, and orchestrates the Debug and Testing job shapes.
//
// Grounded on the Python reference service's app/service/main.py
// (RustService._compile, _execute, debug, testing) for exact semantics,
// with the child-process lifecycle idiom — exec.CommandContext, captured
// stdout/stderr buffers, defer-guarded teardown, one runXxxStage-shaped
// helper per kind of run — carried over from the teacher's container.go
// (runValidationStage, ValidateCodeWithProgress).
package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/ecopelan/judged/internal/checker"
	"github.com/ecopelan/judged/internal/config"
	"github.com/ecopelan/judged/internal/judge"
	"github.com/ecopelan/judged/internal/sanitize"
	"github.com/ecopelan/judged/internal/workspace"
)

// Engine drives workspace compilation and execution for one job at a time;
// it holds no mutable state of its own beyond its immutable Config, so
// callers may invoke Debug/Testing concurrently across goroutines, each
// against its own Workspace.
type Engine struct {
	cfg *config.Config
}

// New constructs an Engine from a process-wide Config.
func New(cfg *config.Config) *Engine {
	return &Engine{cfg: cfg}
}

// Debug runs one compilation and (if it succeeds) one execution, and
// always tears down the workspace before returning.
func (e *Engine) Debug(ctx context.Context, req judge.DebugRequest) (*judge.DebugResult, error) {
	ws, err := workspace.New(e.cfg.SandboxDir, req.Code)
	if err != nil {
		return nil, err
	}
	defer ws.Remove()

	e.log().Debug("debug job started", zap.String("workspace", ws.ID))

	result := &judge.DebugResult{}

	compileErr, err := e.compile(ctx, ws)
	if err != nil {
		return nil, err
	}
	if compileErr != nil {
		result.Error = compileErr
		return result, nil
	}

	outcome, err := e.execute(ctx, ws, req.DataIn)
	if err != nil {
		return nil, err
	}
	result.Result = outcome.Result
	result.Error = outcome.Error

	return result, nil
}

// Testing compiles once, then runs every test case in order, judging each
// one's captured output against its expected output with the supplied
// checker. Every test case is populated even when compilation failed, and
// the workspace is torn down once after the last case.
func (e *Engine) Testing(ctx context.Context, req judge.TestsRequest) (*judge.TestsResult, error) {
	ws, err := workspace.New(e.cfg.SandboxDir, req.Code)
	if err != nil {
		return nil, err
	}
	defer ws.Remove()

	e.log().Debug("testing job started", zap.String("workspace", ws.ID), zap.Int("cases", len(req.Tests)))

	compileErr, err := e.compile(ctx, ws)
	if err != nil {
		return nil, err
	}

	result := &judge.TestsResult{Tests: req.Tests}

	for i := range result.Tests {
		tc := &result.Tests[i]

		if compileErr != nil {
			tc.Error = compileErr
			tc.OK = false
			tc.Result = nil
			continue
		}

		outcome, err := e.execute(ctx, ws, tc.DataIn)
		if err != nil {
			return nil, err
		}
		tc.Result = outcome.Result
		tc.Error = outcome.Error

		ok, err := checker.Evaluate(ctx, req.Checker, tc.DataOut, strOrEmpty(tc.Result))
		if err != nil {
			return nil, err
		}
		tc.OK = ok
	}

	result.Summarize()
	return result, nil
}

// compile spawns the build driver with the workspace as its working
// directory and waits up to cfg.Timeout. For a compile failure (non-zero
// exit or non-empty stderr) it returns the stderr passed through
// sanitize.CleanError, which is nil when that stderr is empty or
// whitespace-only, so a non-zero exit with no stderr returns nil just as a
// success does. It returns a CompileError only when the driver itself could
// not be spawned or waited on.
func (e *Engine) compile(ctx context.Context, ws *workspace.Workspace) (*string, error) {
	cctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, e.cfg.BuildDriver, e.cfg.BuildArgs...)
	cmd.Dir = ws.ProjectDir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Start()
	if err != nil {
		return nil, &judge.CompileError{RawDetails: err.Error(), Cause: err}
	}
	defer killIfAlive(cmd)

	waitErr := cmd.Wait()

	if cctx.Err() == context.DeadlineExceeded {
		msg := judge.MsgTimeout
		return &msg, nil
	}

	if waitErr == nil && stderr.Len() == 0 {
		return nil, nil
	}

	if waitErr != nil {
		if _, isExit := waitErr.(*exec.ExitError); !isExit {
			return nil, &judge.CompileError{RawDetails: waitErr.Error(), Cause: waitErr}
		}
	}

	raw := stderr.String()
	cleaned := sanitize.CleanError(&raw)
	return cleaned, nil
}

// execute spawns the compiled binary with stdin/stdout/stderr piped, the
// backtrace environment variable forced off, and identity dropped to the
// configured unprivileged UID/GID, and waits up to cfg.Timeout.
func (e *Engine) execute(ctx context.Context, ws *workspace.Workspace, dataIn *string) (judge.ExecuteOutcome, error) {
	cctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, ws.BinaryPath)
	cmd.Env = e.childEnv()
	applySandboxCredential(cmd, e.cfg.SandboxUserUID)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return judge.ExecuteOutcome{}, &judge.ExecutionError{RawDetails: err.Error(), Cause: err}
	}

	startErr := withRlimits(cmd.Start)
	if startErr != nil {
		return judge.ExecuteOutcome{}, &judge.ExecutionError{RawDetails: startErr.Error(), Cause: startErr}
	}
	defer killIfAlive(cmd)

	writeStdin(stdin, dataIn)

	waitErr := cmd.Wait()

	if cctx.Err() == context.DeadlineExceeded {
		if cmd.Process != nil {
			killProcessGroup(cmd.Process.Pid)
		}
		msg := judge.MsgTimeout
		return judge.ExecuteOutcome{Result: nil, Error: &msg}, nil
	}

	if waitErr != nil {
		if _, isExit := waitErr.(*exec.ExitError); !isExit {
			return judge.ExecuteOutcome{}, &judge.ExecutionError{RawDetails: waitErr.Error(), Cause: waitErr}
		}
	}

	rawStderr := stderr.String()
	cleanedStderr := sanitize.StripBacktrace(&rawStderr)

	if cleanedStderr != nil && strings.Contains(*cleanedStderr, "panicked at") {
		merged := stdout.String() + *cleanedStderr
		msg := judge.MsgPanic
		return judge.ExecuteOutcome{Result: sanitize.CleanStr(&merged), Error: &msg}, nil
	}

	rawStdout := stdout.String()
	return judge.ExecuteOutcome{
		Result: sanitize.CleanStr(&rawStdout),
		Error:  sanitize.CleanError(cleanedStderr),
	}, nil
}

// childEnv copies the configured allowlist from the host environment and
// forces the backtrace hint off, per spec.md §9's design note replacing
// "copy the host environment" with "copy an allowlist".
func (e *Engine) childEnv() []string {
	env := make([]string, 0, len(e.cfg.EnvAllowlist)+1)
	for _, key := range e.cfg.EnvAllowlist {
		if v, ok := os.LookupEnv(key); ok {
			env = append(env, fmt.Sprintf("%s=%s", key, v))
		}
	}
	env = append(env, "RUST_BACKTRACE=0")
	return env
}

// writeStdin replaces newlines with spaces before writing, matching the
// reference service's behavior exactly (see DESIGN.md Open Question 2).
func writeStdin(w io.WriteCloser, dataIn *string) {
	defer w.Close()
	if dataIn == nil {
		return
	}
	text := strings.ReplaceAll(*dataIn, "\n", " ")
	_, _ = w.Write([]byte(text))
}

func killIfAlive(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
	_, _ = cmd.Process.Wait()
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (e *Engine) log() *zap.Logger {
	if e.cfg.Logger != nil {
		return e.cfg.Logger
	}
	return zap.NewNop()
}
