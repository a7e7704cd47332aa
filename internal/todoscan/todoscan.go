// Package todoscan finds TODO/FIXME/NOTE annotations in source files
// and records them with surrounding context and the enclosing
// declaration, so summaries can say what remains to be done and where.
package todoscan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/recaplabs/recap/internal/capsule"
)

// todoPattern matches a comment-leading TODO/FIXME/NOTE annotation with
// an optional (owner) tag and captures the annotation text.
var todoPattern = regexp.MustCompile(`^[ \t]*(?:#{1,2}|//|\*)\s*(?:TODO|FIXME|NOTE)(?:\([^)]+\))?:\s*(.*?)\s*$`)

// Declarations discovered by a backward scan from the annotation line.
var (
	funcPattern  = regexp.MustCompile(`^\s*(?:async\s+)?(?:def|func)\s+(?:\([^)]*\)\s*)?(\w+)\s*\(`)
	classPattern = regexp.MustCompile(`^\s*(?:class|type)\s+(\w+)`)
)

// codeExtensions are the suffixes worth scanning.
var codeExtensions = map[string]struct{}{
	".py": {}, ".js": {}, ".ts": {}, ".jsx": {}, ".tsx": {}, ".java": {}, ".go": {},
}

// ignoredDirs are never descended into.
var ignoredDirs = map[string]struct{}{
	"node_modules": {}, "venv": {}, ".venv": {}, ".git": {}, "__pycache__": {},
	"dist": {}, "build": {}, ".pytest_cache": {}, ".idea": {}, ".vscode": {},
	".mypy_cache": {}, ".recap": {}, "vendor": {}, "tmp": {},
}

const contextLines = 2

// Scanner extracts annotations from the tree below root.
type Scanner struct {
	root string
}

func NewScanner(root string) *Scanner {
	return &Scanner{root: root}
}

// Scan walks the tree and returns every annotation found. Unreadable
// files are skipped; the walk itself only fails if root is unusable.
func (s *Scanner) Scan() ([]capsule.Todo, error) {
	var todos []capsule.Todo

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == s.root {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if _, skip := ignoredDirs[d.Name()]; skip && path != s.root {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := codeExtensions[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}
		todos = append(todos, s.scanFile(path)...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return todos, nil
}

func (s *Scanner) scanFile(path string) []capsule.Todo {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		rel = path
	}

	lines := strings.Split(string(data), "\n")
	var todos []capsule.Todo
	for i, line := range lines {
		m := todoPattern.FindStringSubmatch(line)
		if m == nil || m[1] == "" {
			continue
		}
		lineNo := i + 1
		todos = append(todos, capsule.Todo{
			File:            rel,
			Line:            lineNo,
			Text:            m[1],
			Context:         contextAround(lines, i),
			FunctionContext: enclosingDecl(lines, i),
		})
	}
	return todos
}

// contextAround renders the annotation line with its neighbors, the
// annotation itself marked with ">".
func contextAround(lines []string, idx int) string {
	start := idx - contextLines
	if start < 0 {
		start = 0
	}
	end := idx + contextLines + 1
	if end > len(lines) {
		end = len(lines)
	}

	out := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		prefix := " "
		if i == idx {
			prefix = ">"
		}
		out = append(out, fmt.Sprintf("%s %s", prefix, strings.TrimRight(lines[i], " \t\r")))
	}
	return strings.Join(out, "\n")
}

// enclosingDecl scans backward from the annotation for the nearest
// function and type/class declarations. The scan stops once a function
// is found; a type seen on the way in is reported alongside it.
func enclosingDecl(lines []string, idx int) string {
	var function, class string
	for i := idx; i >= 0; i-- {
		if m := funcPattern.FindStringSubmatch(lines[i]); m != nil && function == "" {
			function = m[1]
		}
		if m := classPattern.FindStringSubmatch(lines[i]); m != nil && class == "" {
			class = m[1]
		}
		if function != "" {
			break
		}
	}

	var parts []string
	if class != "" {
		parts = append(parts, "Class: "+class)
	}
	if function != "" {
		parts = append(parts, "Function: "+function)
	}
	return strings.Join(parts, " | ")
}
