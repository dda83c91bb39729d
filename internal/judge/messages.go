package judge

// Canonical, stable, user-visible diagnostic strings. These identities must
// exist per spec; the text itself is deployment copy and may be swapped
// without changing behavior.
const (
	MsgTimeout                = "Program execution time limit exceeded."
	MsgCheckerSignatureMissing = "Checker predicate must define: func Checker(right, value string) bool"
	MsgCheckerNoReturn         = `Checker predicate has no "return" instruction`
	MsgCheckerNonBoolean       = "Checker predicate must return a boolean value"
	MsgCheckerCallFailed       = "Invalid checker call. See details"
	MsgExecutionFailure        = "Unexpected error during code execution. See details"
	MsgCompileFailure          = "Compilation error. See details"
	MsgMissingStdin            = "You need to specify the console input"
	MsgPanic                   = "Program panicked during execution"
)
