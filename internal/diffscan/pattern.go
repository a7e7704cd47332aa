package diffscan

import (
	"regexp"
	"strings"
)

// Change pattern tags attached to a FileDiff.
const (
	PatternFeature   = "feature"
	PatternRefactor  = "refactor"
	PatternFix       = "fix"
	PatternDebugging = "debugging"
	PatternUnknown   = "unknown"
)

// debugPattern spots temporary diagnostic statements in added lines.
var debugPattern = regexp.MustCompile(`(?i)(print\(|console\.log|fmt\.Println|debugger|breakpoint)`)

// DetectChangePattern tags a diff with a coarse change pattern. The
// checks run in fixed priority order: debug markers, fix/bug keywords,
// add-heavy diffs (feature), balanced diffs (refactor).
func DetectChangePattern(diff string) string {
	if diff == "" {
		return PatternUnknown
	}

	var added, removed []string
	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++") {
			added = append(added, line)
		} else if strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---") {
			removed = append(removed, line)
		}
	}

	for _, line := range added {
		if debugPattern.MatchString(line) {
			return PatternDebugging
		}
	}

	lower := strings.ToLower(diff)
	if strings.Contains(lower, "fix") || strings.Contains(lower, "bug") {
		return PatternFix
	}

	// Add-heavy diffs read as new work; balanced diffs as rework.
	if len(added) > len(removed)*2 {
		return PatternFeature
	}
	if abs(len(added)-len(removed)) < 5 {
		return PatternRefactor
	}

	return PatternUnknown
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
