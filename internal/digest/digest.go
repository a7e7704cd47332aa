// Package digest renders a bounded, prioritized textual digest from a
// capture. The digest is the only representation of session state that
// the summarizer sees, so the filters and caps here directly control
// what a downstream model can talk about.
package digest

import (
	"fmt"
	"strings"

	"github.com/recaplabs/recap/internal/capsule"
	"github.com/recaplabs/recap/internal/diffscan"
)

// NoChangesSentinel replaces the digest entirely when the capture holds
// zero file changes.
const NoChangesSentinel = "NO FILE CHANGES - Session captured for tracking only"

// Section caps. Tuning these changes what the summarizer can see.
const (
	maxFiles         = 5
	maxFunctionNames = 2
	maxCodeLines     = 5
	maxCommentLines  = 3
	maxTodos         = 3
)

// dataExtensions are non-code suffixes excluded from code analysis.
var dataExtensions = []string{
	".json", ".db", ".sqlite", ".xml", ".yml", ".yaml", ".DS_Store", ".pyc", ".lock",
}

// dataPathFragments are tooling/artifact path fragments excluded from
// code analysis.
var dataPathFragments = []string{
	"capsule_", ".recap/", ".git/", "__pycache__/", "node_modules/", ".egg-info/",
}

// Build renders the digest for a capture. Section order: branch, then at
// most maxFiles files with per-file function/code/comment sections, then
// TODOs. TODOs are suppressed when there are no file changes, since they
// reflect pre-existing state rather than session activity. Historical
// commits are deliberately absent from the digest.
func Build(ctx *capsule.ContextData, branch string) string {
	if len(ctx.FileDiffs) == 0 {
		return NoChangesSentinel
	}

	var parts []string

	if branch != "" {
		parts = append(parts, fmt.Sprintf("Branch: %s", branch))
	}

	files := filterCodeFiles(ctx.FileDiffs)

	parts = append(parts, "\nModified files:")
	for i, fd := range files {
		if i >= maxFiles {
			break
		}
		parts = append(parts, renderFile(fd)...)
	}

	if len(ctx.Todos) > 0 {
		parts = append(parts, fmt.Sprintf("\nTODOs (%d):", len(ctx.Todos)))
		for i, todo := range ctx.Todos {
			if i >= maxTodos {
				break
			}
			parts = append(parts, fmt.Sprintf("  - %s", todo.Text))
		}
	}

	return strings.Join(parts, "\n")
}

// filterCodeFiles drops non-code and artifact files. When the filter
// removes everything the unfiltered list is returned instead, so the
// digest never goes empty just because a session touched only data
// files.
func filterCodeFiles(diffs []capsule.FileDiff) []capsule.FileDiff {
	code := make([]capsule.FileDiff, 0, len(diffs))
	for _, fd := range diffs {
		if !isDataFile(fd.Path) {
			code = append(code, fd)
		}
	}
	if len(code) == 0 {
		return diffs
	}
	return code
}

// isDataFile reports whether a path is excluded from code analysis.
func isDataFile(path string) bool {
	for _, ext := range dataExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	for _, frag := range dataPathFragments {
		if strings.Contains(path, frag) {
			return true
		}
	}
	return false
}

// renderFile renders one file section: path header, inferred function
// changes, code lines, comment lines — each capped.
func renderFile(fd capsule.FileDiff) []string {
	parts := []string{fmt.Sprintf("\nFile: %s", fd.Path)}

	c := diffscan.Classify(fd.Diff)

	if len(c.AddedFunctions) > 0 {
		parts = append(parts, fmt.Sprintf("   New functions: %s",
			strings.Join(capStrings(c.AddedFunctions, maxFunctionNames), ", ")))
	}
	if len(c.RemovedFunctions) > 0 {
		parts = append(parts, fmt.Sprintf("   Removed functions: %s",
			strings.Join(capStrings(c.RemovedFunctions, maxFunctionNames), ", ")))
	}

	if len(c.AddedCode) > 0 || len(c.RemovedCode) > 0 {
		parts = append(parts, "   Code changes:")
		for _, line := range capStrings(c.RemovedCode, maxCodeLines) {
			parts = append(parts, fmt.Sprintf("     REMOVED: %s", line))
		}
		for _, line := range capStrings(c.AddedCode, maxCodeLines) {
			parts = append(parts, fmt.Sprintf("     ADDED: %s", line))
		}
	}

	if len(c.AddedComments) > 0 || len(c.RemovedComments) > 0 {
		parts = append(parts, "   Comment/TODO changes:")
		for _, line := range capStrings(c.RemovedComments, maxCommentLines) {
			parts = append(parts, fmt.Sprintf("     REMOVED: %s", line))
		}
		for _, line := range capStrings(c.AddedComments, maxCommentLines) {
			parts = append(parts, fmt.Sprintf("     ADDED: %s", line))
		}
	}

	return parts
}

// capStrings returns at most n elements of s.
func capStrings(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
