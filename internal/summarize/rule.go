package summarize

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/recaplabs/recap/internal/capsule"
)

var addedFuncPattern = regexp.MustCompile(`\+\s*(?:def|func)\s+(\w+)`)

// ruleStrategy generates text by inspecting the capsule directly,
// without a model. It never returns an error; the error in its
// signatures exists only to satisfy the strategy interface.
type ruleStrategy struct{}

func (ruleStrategy) summary(_ context.Context, c *capsule.Capsule) (string, error) {
	diffs := c.Context.FileDiffs
	if len(diffs) == 0 {
		return NoChangesSummary, nil
	}

	primary := primaryDiff(diffs, func(fd capsule.FileDiff) int {
		return fd.Additions + fd.Deletions
	})
	stem := strings.TrimSuffix(filepath.Base(primary.Path), filepath.Ext(primary.Path))

	parts := []string{fmt.Sprintf("You were working on %s", stem)}

	matches := addedFuncPattern.FindAllStringSubmatch(primary.Diff, -1)
	if len(matches) > 0 {
		names := make([]string, 0, 2)
		for _, m := range matches {
			names = append(names, m[1])
			if len(names) == 2 {
				break
			}
		}
		parts = append(parts, fmt.Sprintf("— added %s()", strings.Join(names, ", ")))
	}

	if len(c.Context.Todos) > 0 {
		parts = append(parts, fmt.Sprintf("Still need to: %s", c.Context.Todos[0].Text))
	}

	return strings.Join(parts, " "), nil
}

func (ruleStrategy) nextSteps(_ context.Context, c *capsule.Capsule) ([]string, error) {
	var steps []string
	for i, todo := range c.Context.Todos {
		if i >= 2 {
			break
		}
		steps = append(steps, todo.Text)
	}
	if len(steps) == 0 {
		steps = []string{"Continue development"}
	}
	return steps, nil
}

func (ruleStrategy) why(_ context.Context, c *capsule.Capsule, _ string, _ map[string]string) (string, error) {
	diffs := c.Context.FileDiffs
	if len(diffs) == 0 {
		return "No code changes detected in this session.", nil
	}

	primary := primaryDiff(diffs, func(fd capsule.FileDiff) int {
		return fd.Additions
	})
	name := filepath.Base(primary.Path)

	switch {
	case strings.Contains(primary.Diff, "+def ") || strings.Contains(primary.Diff, "+class ") ||
		strings.Contains(primary.Diff, "+func "):
		return fmt.Sprintf("You were building new features in %s.", name), nil
	case strings.Contains(primary.Diff, "fix") || strings.Contains(primary.Diff, "bug"):
		return fmt.Sprintf("You were fixing bugs in %s.", name), nil
	default:
		return fmt.Sprintf("You were refactoring %s.", name), nil
	}
}

// primaryDiff picks the diff with the highest score; earliest wins ties.
func primaryDiff(diffs []capsule.FileDiff, score func(capsule.FileDiff) int) capsule.FileDiff {
	best := diffs[0]
	bestScore := score(best)
	for _, fd := range diffs[1:] {
		if s := score(fd); s > bestScore {
			best, bestScore = fd, s
		}
	}
	return best
}
