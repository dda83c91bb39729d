// Package sanitize implements the three pure text transforms that keep
// compiler and runtime output safe to show a user: stripping host paths,
// trailing carriage returns, and runtime backtraces, and mapping known
// failure signatures onto canonical human-readable messages.
//
// The three functions here are a direct Go port of the Python reference
// service's app/utils.py (clean_str, clean_error) and the backtrace-skipping
// loop inside app/service/main.py's RustService._strip_backtrace, grounded
// in style on the teacher's own regexp-driven diagnostic parsing in
// parser.go (ParseClangTidyOutput et al.).
package sanitize

import (
	"regexp"
	"strings"

	"github.com/ecopelan/judged/internal/judge"
)

var (
	// hostPathPattern matches a /tmp/<stuff>.<ext> or /sandbox/<stuff>.<ext>
	// path and captures the extension so it can be rewritten to main.<ext>.
	hostPathPattern = regexp.MustCompile(`/(?:tmp|sandbox)/\S*?\.([A-Za-z0-9]+)\b`)

	backtraceFrame  = regexp.MustCompile(`^\s*\d+:\s`)
	backtraceEnvVar = regexp.MustCompile(`(?i)note:.*_BACKTRACE`)
)

// CleanStr trims carriage returns and a trailing run of newlines from a
// captured stream, normalizing an empty or whitespace-only result to nil.
// CleanStr is idempotent: CleanStr(CleanStr(x)) == CleanStr(x).
func CleanStr(x *string) *string {
	if x == nil {
		return nil
	}
	s := strings.ReplaceAll(*x, "\r", "")
	s = strings.TrimRight(s, "\n")
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// CleanError rewrites host paths to main.<ext> and classifies the rewritten
// text against known failure signatures, returning a canonical message when
// one matches. CleanError is idempotent.
func CleanError(x *string) *string {
	if x == nil {
		return nil
	}
	s := hostPathPattern.ReplaceAllString(*x, "main.$1")

	switch {
	case strings.Contains(s, "panicked at"):
		s = judge.MsgPanic
	case strings.Contains(s, "error[E"):
		s = judge.MsgCompileFailure
	case strings.Contains(s, "Terminated"):
		s = judge.MsgTimeout
	case strings.Contains(s, "the monitored command dumped core"):
		s = judge.MsgMissingStdin
	}
	return CleanStr(&s)
}

// StripBacktrace removes the "stack backtrace:" block (and any RUST_BACKTRACE
// hint note) from runtime stderr, leaving panic messages and ordinary output
// intact. StripBacktrace is idempotent: once the block is gone, re-running it
// over the same text is a no-op.
func StripBacktrace(x *string) *string {
	if x == nil {
		return nil
	}

	lines := strings.Split(*x, "\n")
	var out []string
	skipping := false

	for _, line := range lines {
		if strings.HasPrefix(line, "stack backtrace:") {
			skipping = true
			continue
		}
		if skipping {
			if backtraceFrame.MatchString(line) || strings.TrimSpace(line) == "" {
				continue
			}
			skipping = false
		}
		if strings.HasPrefix(line, "note:") && backtraceEnvVar.MatchString(line) {
			continue
		}
		out = append(out, line)
	}

	joined := strings.Join(out, "\n")
	return &joined
}
