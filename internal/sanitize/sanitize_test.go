package sanitize

import (
	"testing"

	"github.com/ecopelan/judged/internal/judge"
)

func strp(s string) *string { return &s }

func TestCleanStr(t *testing.T) {
	tests := []struct {
		name string
		in   *string
		want *string
	}{
		{"nil input", nil, nil},
		{"empty string", strp(""), nil},
		{"whitespace only", strp("   \n\n"), nil},
		{"trailing newlines trimmed", strp("hello\n\n\n"), strp("hello")},
		{"carriage returns stripped", strp("hello\r\nworld\r\n"), strp("hello\nworld")},
		{"ordinary text unchanged", strp("result: 42"), strp("result: 42")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanStr(tt.in)
			assertStrPtrEqual(t, got, tt.want)
		})
	}
}

func TestCleanStrIdempotent(t *testing.T) {
	in := strp("hello\r\nworld\n\n\n")
	once := CleanStr(in)
	twice := CleanStr(once)
	assertStrPtrEqual(t, once, twice)
}

func TestCleanError(t *testing.T) {
	tests := []struct {
		name string
		in   *string
		want *string
	}{
		{"nil input", nil, nil},
		{
			name: "host path rewritten",
			in:   strp("error in /tmp/sandbox_proj_abc123/src/main.rs: mismatched types"),
			want: strp("error in main.rs: mismatched types"),
		},
		{
			name: "panic classified",
			in:   strp("thread 'main' panicked at 'index out of bounds', main.rs:3:5"),
			want: strp(judge.MsgPanic),
		},
		{
			name: "compiler diagnostic classified",
			in:   strp("error[E0308]: mismatched types"),
			want: strp(judge.MsgCompileFailure),
		},
		{
			name: "terminated classified as timeout",
			in:   strp("Terminated"),
			want: strp(judge.MsgTimeout),
		},
		{
			name: "core dump classified as missing stdin",
			in:   strp("the monitored command dumped core"),
			want: strp(judge.MsgMissingStdin),
		},
		{
			name: "unrecognized text passed through cleaned",
			in:   strp("warning: unused variable `x`\n"),
			want: strp("warning: unused variable `x`"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanError(tt.in)
			assertStrPtrEqual(t, got, tt.want)
		})
	}
}

func TestCleanErrorIdempotent(t *testing.T) {
	in := strp("error[E0308]: mismatched types")
	once := CleanError(in)
	twice := CleanError(once)
	assertStrPtrEqual(t, once, twice)
}

func TestStripBacktrace(t *testing.T) {
	raw := "thread 'main' panicked at 'boom', main.rs:2:5\n" +
		"stack backtrace:\n" +
		"   0: rust_begin_unwind\n" +
		"   1: core::panicking::panic_fmt\n" +
		"note: Run with `RUST_BACKTRACE=1` environment variable to display a backtrace\n"

	got := StripBacktrace(&raw)
	want := "thread 'main' panicked at 'boom', main.rs:2:5\n"

	if got == nil || *got != want {
		t.Errorf("StripBacktrace() = %v, want %q", got, want)
	}
}

func TestStripBacktraceIdempotent(t *testing.T) {
	raw := "thread 'main' panicked at 'boom', main.rs:2:5\nstack backtrace:\n   0: foo\n"
	once := StripBacktrace(&raw)
	twice := StripBacktrace(once)
	if *once != *twice {
		t.Errorf("StripBacktrace not idempotent: once=%q twice=%q", *once, *twice)
	}
}

func assertStrPtrEqual(t *testing.T, got, want *string) {
	t.Helper()
	if got == nil && want == nil {
		return
	}
	if got == nil || want == nil {
		t.Fatalf("got %v, want %v", got, want)
	}
	if *got != *want {
		t.Fatalf("got %q, want %q", *got, *want)
	}
}
