// Package workspace materializes and tears down the per-job scratch
// directory a submission is compiled in: a uniquely named package
// directory holding a source file and a minimal build manifest.
//
// Grounded on the Python reference service's app/service/entities.py
// (RustFile: uuid4-derived package name, os.makedirs, Cargo.toml string
// template, predicted target/release/<pkg> path, shutil.rmtree teardown),
// with the directory-lifecycle idiom (os.MkdirTemp-adjacent creation,
// defer-guarded os.RemoveAll) carried over from the teacher's
// container.go (ValidateCodeWithProgress et al.).
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"github.com/ecopelan/judged/internal/judge"
	"github.com/ecopelan/judged/internal/wrapper"
)

const sourceFilename = "main.rs"

// manifest is the minimal build manifest (Cargo.toml equivalent): a package
// name, a release edition, and no dependencies. Encoded through
// BurntSushi/toml rather than built by hand so the output is always valid
// TOML regardless of what's in the package name.
type manifest struct {
	Package manifestPackage `toml:"package"`
	// Dependencies is present-but-empty so the [dependencies] table header
	// still appears, matching the reference template's trailing section.
	Dependencies map[string]string `toml:"dependencies"`
}

type manifestPackage struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
	Edition string `toml:"edition"`
}

// Workspace is a freshly generated, uniquely named project directory
// containing a source file and a build manifest. It owns its directory on
// disk for the duration of one job and must be torn down via Remove on
// every exit path.
type Workspace struct {
	ID          string
	ProjectDir  string
	SourcePath  string
	ManifestPath string
	BinaryPath  string
}

// New materializes a workspace under root for the given submitted code. If
// the code lacks a program entry point, it is run through the source
// wrapper before being written to disk.
func New(root string, code string) (*Workspace, error) {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	packageName := fmt.Sprintf("sandbox_proj_%s", id)

	projectDir := filepath.Join(root, packageName)
	srcDir := filepath.Join(projectDir, "src")
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		return nil, &judge.WorkspaceError{Details: "failed to create workspace directory", Cause: err}
	}

	if !wrapper.HasEntryPoint(code) {
		code = wrapper.Wrap(code)
	}

	sourcePath := filepath.Join(srcDir, sourceFilename)
	if err := os.WriteFile(sourcePath, []byte(code), 0o644); err != nil {
		_ = os.RemoveAll(projectDir)
		return nil, &judge.WorkspaceError{Details: "failed to write source file", Cause: err}
	}

	manifestPath := filepath.Join(projectDir, "Cargo.toml")
	if err := writeManifest(manifestPath, packageName); err != nil {
		_ = os.RemoveAll(projectDir)
		return nil, &judge.WorkspaceError{Details: "failed to write build manifest", Cause: err}
	}

	binaryPath := filepath.Join(projectDir, "target", "release", packageName)

	return &Workspace{
		ID:           id,
		ProjectDir:   projectDir,
		SourcePath:   sourcePath,
		ManifestPath: manifestPath,
		BinaryPath:   binaryPath,
	}, nil
}

func writeManifest(path, packageName string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	m := manifest{
		Package: manifestPackage{
			Name:    packageName,
			Version: "0.1.0",
			Edition: "2021",
		},
		Dependencies: map[string]string{},
	}
	return toml.NewEncoder(f).Encode(m)
}

// Remove recursively, best-effort deletes the project directory. A missing
// directory is not an error and Remove is idempotent.
func (w *Workspace) Remove() {
	if w == nil {
		return
	}
	_ = os.RemoveAll(w.ProjectDir)
}
