// Package diffscan extracts structured signal from unified-diff text:
// added/removed code lines, added/removed comment lines, and net
// function-level additions and removals. All functions are pure and
// total; malformed input yields empty results, never an error.
package diffscan

import (
	"regexp"
	"strings"
)

// Classification separates the add/remove lines of a diff into code and
// comment buckets, plus the net function change-set by name.
type Classification struct {
	AddedCode       []string
	RemovedCode     []string
	AddedComments   []string
	RemovedComments []string

	// AddedFunctions holds names declared only on the added side;
	// RemovedFunctions names declared only on the removed side. A
	// function renamed without body change shows up in both raw sides
	// and therefore in both sets here — rename detection is out of
	// scope.
	AddedFunctions   []string
	RemovedFunctions []string
}

// declPattern matches a function declaration at the start of a stripped
// diff line: Python def, Go func, or JavaScript function.
var declPattern = regexp.MustCompile(`^(def|func|function)\s+(\w+)\s*\(`)

// Classify parses diff text line by line. A line starting with "+" (but
// not the "+++" file header) is an added candidate; "-" likewise for
// removed. Blank candidates are discarded. A candidate whose stripped
// content starts with a single-line comment token is a comment;
// everything else is code.
func Classify(diff string) Classification {
	var c Classification
	if diff == "" {
		return c
	}

	addedFuncs := map[string]bool{}
	removedFuncs := map[string]bool{}

	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			clean := strings.TrimSpace(line[1:])
			if clean == "" {
				continue
			}
			if isComment(clean) {
				c.AddedComments = append(c.AddedComments, clean)
			} else {
				c.AddedCode = append(c.AddedCode, clean)
				if name := declaredName(clean); name != "" {
					addedFuncs[name] = true
				}
			}
		case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
			clean := strings.TrimSpace(line[1:])
			if clean == "" {
				continue
			}
			if isComment(clean) {
				c.RemovedComments = append(c.RemovedComments, clean)
			} else {
				c.RemovedCode = append(c.RemovedCode, clean)
				if name := declaredName(clean); name != "" {
					removedFuncs[name] = true
				}
			}
		}
	}

	for name := range addedFuncs {
		if !removedFuncs[name] {
			c.AddedFunctions = append(c.AddedFunctions, name)
		}
	}
	for name := range removedFuncs {
		if !addedFuncs[name] {
			c.RemovedFunctions = append(c.RemovedFunctions, name)
		}
	}

	return c
}

// isComment reports whether a stripped line begins with a single-line
// comment token.
func isComment(line string) bool {
	return strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//")
}

// declaredName returns the function name declared on a code line, or ""
// when the line is not a declaration. The name is the identifier before
// the first parenthesis.
func declaredName(line string) string {
	m := declPattern.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	return m[2]
}
