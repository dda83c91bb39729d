package wrapper

import (
	"strings"
	"testing"
)

func TestHasEntryPoint(t *testing.T) {
	tests := []struct {
		name string
		code string
		want bool
	}{
		{"has fn main", "fn main() {\n    println!(\"hi\");\n}", true},
		{"has fn main with args spacing", "fn  main ( ) {}", true},
		{"no entry point", "let x = 1;\nprintln!(\"{}\", x);", false},
		{"mentions main but not as fn", "let main_value = 1;", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasEntryPoint(tt.code); got != tt.want {
				t.Errorf("HasEntryPoint(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestWrapLeavesExistingEntryPointUnchanged(t *testing.T) {
	code := "fn main() {\n    println!(\"hi\");\n}"
	if got := Wrap(code); got != code {
		t.Errorf("Wrap() = %q, want unchanged %q", got, code)
	}
}

func TestWrapEmptyBody(t *testing.T) {
	got := Wrap("")
	want := "fn main() {}"
	if got != want {
		t.Errorf("Wrap(\"\") = %q, want %q", got, want)
	}
}

func TestWrapBodyOnly(t *testing.T) {
	got := Wrap("let x = 1;\nprintln!(\"{}\", x);")
	if !strings.Contains(got, "fn main() {\n") {
		t.Errorf("Wrap() missing synthesized entry point: %q", got)
	}
	if !strings.Contains(got, "    let x = 1;") {
		t.Errorf("Wrap() body not indented: %q", got)
	}
	if !strings.HasSuffix(got, "\n}") {
		t.Errorf("Wrap() missing closing brace: %q", got)
	}
}

func TestWrapSeparatesGlobalsFromBody(t *testing.T) {
	code := "use std::collections::HashMap;\n\nstruct Point {\n    x: i32,\n    y: i32,\n}\n\nlet p = Point { x: 1, y: 2 };\nprintln!(\"{}\", p.x);"

	got := Wrap(code)

	useIdx := strings.Index(got, "use std::collections::HashMap;")
	structIdx := strings.Index(got, "struct Point")
	mainIdx := strings.Index(got, "fn main()")
	bodyIdx := strings.Index(got, "let p = Point")

	if useIdx < 0 || structIdx < 0 || mainIdx < 0 || bodyIdx < 0 {
		t.Fatalf("Wrap() missing expected sections: %q", got)
	}
	if !(useIdx < structIdx && structIdx < mainIdx && mainIdx < bodyIdx) {
		t.Errorf("Wrap() sections out of order: %q", got)
	}
}

func TestWrapTrimsBlankEdges(t *testing.T) {
	got := Wrap("\n\nlet x = 1;\n\n\n")
	if strings.Contains(got, "{\n\n") {
		t.Errorf("Wrap() left leading blank line in body: %q", got)
	}
	if strings.Contains(got, "\n\n}") {
		t.Errorf("Wrap() left trailing blank line in body: %q", got)
	}
}
