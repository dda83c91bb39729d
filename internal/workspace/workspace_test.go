package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewCreatesProjectLayout(t *testing.T) {
	root := t.TempDir()

	ws, err := New(root, "fn main() {\n    println!(\"hi\");\n}")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer ws.Remove()

	if _, err := os.Stat(ws.SourcePath); err != nil {
		t.Errorf("source file not created: %v", err)
	}
	if _, err := os.Stat(ws.ManifestPath); err != nil {
		t.Errorf("manifest file not created: %v", err)
	}
	if filepath.Base(ws.SourcePath) != sourceFilename {
		t.Errorf("source filename = %q, want %q", filepath.Base(ws.SourcePath), sourceFilename)
	}
	if ws.ID == "" {
		t.Errorf("workspace ID is empty")
	}
}

func TestNewWrapsBodyOnlyCode(t *testing.T) {
	root := t.TempDir()

	ws, err := New(root, "let x = 1;\nprintln!(\"{}\", x);")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer ws.Remove()

	contents, err := os.ReadFile(ws.SourcePath)
	if err != nil {
		t.Fatalf("reading source file: %v", err)
	}
	if !strings.Contains(string(contents), "fn main()") {
		t.Errorf("source file not wrapped with fn main(): %q", contents)
	}
}

func TestNewTwoWorkspacesDoNotCollide(t *testing.T) {
	root := t.TempDir()

	a, err := New(root, "fn main() {}")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Remove()

	b, err := New(root, "fn main() {}")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer b.Remove()

	if a.ProjectDir == b.ProjectDir {
		t.Errorf("two workspaces share a project directory: %q", a.ProjectDir)
	}
}

func TestRemoveIsIdempotentAndNilSafe(t *testing.T) {
	var nilWs *Workspace
	nilWs.Remove() // must not panic

	root := t.TempDir()
	ws, err := New(root, "fn main() {}")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ws.Remove()
	ws.Remove() // second call must not error

	if _, err := os.Stat(ws.ProjectDir); !os.IsNotExist(err) {
		t.Errorf("project directory still exists after Remove(): %v", err)
	}
}
