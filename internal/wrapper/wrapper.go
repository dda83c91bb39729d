// Package wrapper implements the heuristic source-wrapping preprocessor: if
// submitted code lacks a program entry point, it synthesizes one by
// partitioning top-level declarations from statement-level code.
//
// This is a direct port of the Python reference service's
// app/service/entities.py (_wrap_rust_code): a regex check for `fn main(`,
// then a line-by-line partition into "global" and "body" buckets tracked by
// a running brace-balance count. The wrapper is deliberately permissive —
// the real compiler is the authoritative validator of anything it accepts.
package wrapper

import (
	"regexp"
	"strings"
)

var entryPointPattern = regexp.MustCompile(`\bfn\s+main\s*\(`)

// globalPrefixes are the target language's top-level keywords: a line
// starting with one of these (after trimming leading whitespace) is
// global-starting and opens a brace-balanced block that keeps subsequent
// lines in the global bucket until the block closes.
var globalPrefixes = []string{
	"use ", "extern crate", "struct ", "enum ", "trait ", "impl ",
	"mod ", "type ", "const ", "static ", "#[", "fn ",
}

// HasEntryPoint reports whether code already declares a fn main(...).
func HasEntryPoint(code string) bool {
	return entryPointPattern.MatchString(code)
}

// Wrap partitions code into global declarations and body statements, then
// synthesizes a fn main() around the body lines. If code already has an
// entry point, it is returned unchanged.
func Wrap(code string) string {
	if HasEntryPoint(code) {
		return code
	}

	lines := strings.Split(code, "\n")
	var globalLines, bodyLines []string

	collectingGlobalBlock := false
	blockLevel := 0

	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		opening := strings.Count(trimmed, "{")
		closing := strings.Count(trimmed, "}")

		if collectingGlobalBlock || hasGlobalPrefix(trimmed) {
			globalLines = append(globalLines, line)
			blockLevel += opening - closing
			collectingGlobalBlock = blockLevel > 0
			continue
		}
		bodyLines = append(bodyLines, line)
	}

	bodyLines = trimBlankEdges(bodyLines)

	var sb strings.Builder
	if len(globalLines) > 0 {
		sb.WriteString(strings.Join(globalLines, "\n"))
		sb.WriteString("\n")
	}

	if len(bodyLines) == 0 {
		sb.WriteString("fn main() {}")
		return sb.String()
	}

	indented := make([]string, len(bodyLines))
	for i, l := range bodyLines {
		indented[i] = "    " + l
	}
	sb.WriteString("fn main() {\n")
	sb.WriteString(strings.Join(indented, "\n"))
	sb.WriteString("\n}")

	return sb.String()
}

func hasGlobalPrefix(trimmed string) bool {
	for _, p := range globalPrefixes {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	return false
}

func trimBlankEdges(lines []string) []string {
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	end := len(lines)
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}
