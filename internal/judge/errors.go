package judge

import "fmt"

// CompileError is raised when the build driver itself cannot be spawned or
// waited on (not when it compiles successfully but reports diagnostics —
// that's a CompileFailure, captured in DebugResult.Error / TestCase.Error,
// not an error return).
type CompileError struct {
	RawDetails string
	Cause      error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile error: %s", e.message())
}

func (e *CompileError) Unwrap() error { return e.Cause }

// Message returns the user-facing message, independent of Go's error string
// formatting, so an external HTTP layer can build its own {error, details}
// body without parsing Error() text.
func (e *CompileError) Message() string { return MsgCompileFailure }

// Details returns the system-level detail that should never reach an
// end user verbatim but is useful for operator-facing logs.
func (e *CompileError) Details() string { return e.message() }

func (e *CompileError) message() string {
	if e.RawDetails != "" {
		return e.RawDetails
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return MsgCompileFailure
}

// ExecutionError is raised when the compiled binary cannot be spawned or
// waited on (not when it runs and panics, times out, or exits non-zero —
// those are ExecutionFailure, captured in the result, not an error return).
type ExecutionError struct {
	RawDetails string
	Cause      error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution error: %s", e.message())
}

func (e *ExecutionError) Unwrap() error { return e.Cause }

func (e *ExecutionError) Message() string { return MsgExecutionFailure }

func (e *ExecutionError) Details() string { return e.message() }

func (e *ExecutionError) message() string {
	if e.RawDetails != "" {
		return e.RawDetails
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return MsgExecutionFailure
}

// CheckerError is raised when the checker source is malformed, doesn't bind
// a callable named Checker, has no return token, or raises/returns
// non-boolean at call time.
type CheckerError struct {
	Msg     string
	Details string
	Cause   error
}

func (e *CheckerError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Msg, e.Details)
	}
	return e.Msg
}

func (e *CheckerError) Unwrap() error { return e.Cause }

func (e *CheckerError) Message() string { return e.Msg }

func (e *CheckerError) DetailsText() string { return e.Details }

// WorkspaceError is raised when the scratch workspace can't be materialized
// (directory creation failure). Teardown failures are never raised — they're
// swallowed as best-effort per spec.
type WorkspaceError struct {
	Details string
	Cause   error
}

func (e *WorkspaceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("workspace error: %s: %v", e.Details, e.Cause)
	}
	return fmt.Sprintf("workspace error: %s", e.Details)
}

func (e *WorkspaceError) Unwrap() error { return e.Cause }
