// Package checker implements the checker evaluator: it loads a
// user-supplied predicate authored in a small scripting dialect, validates
// it structurally, invokes it with (expected, actual) pairs, and returns a
// Boolean verdict.
//
// The scripting dialect here is a Go-syntax predicate function
//
//	func Checker(right, value string) bool { ... }
//
// interpreted at call time by github.com/traefik/yaegi instead of re-run
// through `go build`. This is the Go-idiomatic analogue of the Python
// reference service's in-process exec() of `def checker(right_value, value)
// -> bool`, grounded in shape on codenerd's internal/autopoiesis
// YaegiExecutor (a whitelisted-stdlib, sandboxed-by-default interpreter used
// to avoid a second compile-and-spawn round trip per tool/test call).
//
// Safety note (spec.md §9 design note / open question 3): before a checker
// source is ever handed to the interpreter, validateImports rejects
// anything outside a short allowlist of safe stdlib packages — in
// particular os, os/exec, net, and syscall are never reachable from
// checker code, even though the interpreter runs in the same address space
// as the engine. This mirrors codenerd's own validateImports gate, which
// runs before its i.Use/i.Eval for the same reason. Operators embedding
// this package with untrusted-author checkers should still treat checker
// evaluation as a privileged capability and restrict who may submit one.
package checker

import (
	"context"
	"fmt"
	"go/parser"
	"go/token"
	"reflect"
	"strconv"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/ecopelan/judged/internal/judge"
)

const entrySignature = "func Checker(right, value string) bool"

// allowedImports is the set of stdlib packages a checker predicate may
// import. Anything touching the filesystem, network, or process control —
// os, os/exec, net, net/http, syscall, unsafe, plugin — is left off this
// list deliberately.
var allowedImports = map[string]bool{
	"strings":       true,
	"strconv":       true,
	"fmt":           true,
	"math":          true,
	"regexp":        true,
	"sort":          true,
	"bytes":         true,
	"unicode":       true,
	"unicode/utf8":  true,
	"encoding/json": true,
}

// Evaluate performs the three-layer structural validation (syntax, entry
// point, return token) against source, then invokes Checker(right, value)
// under timeout and returns its Boolean verdict.
func Evaluate(ctx context.Context, source, right, value string) (bool, error) {
	fn, err := compile(source)
	if err != nil {
		return false, err
	}
	return call(ctx, fn, right, value)
}

// compile performs the three layered structural checks (syntax, entry
// point, return token), running the return-token check first. It is done textually
// before the source is handed to the interpreter: a function declared to
// return bool with no return statement is itself a Go compile error, which
// would otherwise mask the distinct "no return" diagnostic the spec calls
// for. Imports are validated before any of that, so a rejected import never
// reaches the interpreter at all.
func compile(source string) (reflect.Value, error) {
	if err := validateImports(source); err != nil {
		return reflect.Value{}, &judge.CheckerError{Msg: judge.MsgCheckerCallFailed, Details: err.Error(), Cause: err}
	}

	if idx := strings.Index(source, "func Checker"); idx >= 0 && !strings.Contains(source[idx:], "return") {
		return reflect.Value{}, &judge.CheckerError{Msg: judge.MsgCheckerNoReturn}
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return reflect.Value{}, &judge.CheckerError{Msg: judge.MsgCheckerCallFailed, Details: err.Error(), Cause: err}
	}

	// Layer 1: syntax.
	if _, err := i.Eval("package main\n\n" + source); err != nil {
		return reflect.Value{}, &judge.CheckerError{Msg: judge.MsgCheckerCallFailed, Details: err.Error(), Cause: err}
	}

	// Layer 2: entry point — a callable named Checker must be bound.
	v, err := i.Eval("main.Checker")
	if err != nil {
		return reflect.Value{}, &judge.CheckerError{Msg: judge.MsgCheckerSignatureMissing}
	}
	fv := v
	if fv.Kind() != reflect.Func {
		return reflect.Value{}, &judge.CheckerError{Msg: judge.MsgCheckerSignatureMissing, Details: entrySignature}
	}
	if fv.Type().NumIn() != 2 || fv.Type().NumOut() != 1 {
		return reflect.Value{}, &judge.CheckerError{Msg: judge.MsgCheckerSignatureMissing, Details: entrySignature}
	}

	return fv, nil
}

// validateImports extracts every import path from source, both single-line
// `import "pkg"` and block `import (...)` forms, and rejects anything not
// in allowedImports.
func validateImports(source string) error {
	lines := strings.Split(source, "\n")
	var imports []string
	inBlock := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "import (") {
			inBlock = true
			continue
		}
		if inBlock && strings.HasPrefix(trimmed, ")") {
			inBlock = false
			continue
		}

		switch {
		case inBlock:
			if pkg := strings.Trim(trimmed, `"`); pkg != "" {
				imports = append(imports, pkg)
			}
		case strings.HasPrefix(trimmed, "import "):
			pkg := strings.TrimSpace(strings.TrimPrefix(trimmed, "import "))
			imports = append(imports, strings.Trim(pkg, `"`))
		}
	}

	// The line scan misses forms such as import("os") or a path on the line
	// after the keyword; when the source parses, the parser's import list
	// replaces it.
	if f, err := parser.ParseFile(token.NewFileSet(), "", "package main\n\n"+source, parser.ImportsOnly); err == nil {
		imports = imports[:0]
		for _, spec := range f.Imports {
			if pkg, err := strconv.Unquote(spec.Path.Value); err == nil {
				imports = append(imports, pkg)
			}
		}
	}

	var forbidden []string
	for _, pkg := range imports {
		if !allowedImports[pkg] {
			forbidden = append(forbidden, pkg)
		}
	}
	if len(forbidden) > 0 {
		return fmt.Errorf("forbidden imports: %v", forbidden)
	}
	return nil
}

func call(ctx context.Context, fn reflect.Value, right, value string) (bool, error) {
	type outcome struct {
		result reflect.Value
		panic  any
	}
	resultCh := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- outcome{panic: r}
			}
		}()
		out := fn.Call([]reflect.Value{reflect.ValueOf(right), reflect.ValueOf(value)})
		resultCh <- outcome{result: out[0]}
	}()

	select {
	case res := <-resultCh:
		if res.panic != nil {
			return false, &judge.CheckerError{Msg: judge.MsgCheckerNonBoolean, Details: fmt.Sprintf("%v", res.panic)}
		}
		if res.result.Kind() != reflect.Bool {
			return false, &judge.CheckerError{Msg: judge.MsgCheckerNonBoolean}
		}
		return res.result.Bool(), nil
	case <-ctx.Done():
		return false, &judge.CheckerError{Msg: judge.MsgCheckerCallFailed, Details: "checker call timed out"}
	}
}
