package analyzer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recaplabs/recap/internal/watch"
)

func sessionFromFiles(start, end time.Time, workType string, files ...watch.FileActivity) Session {
	s := AnalyzeSession(files, start, end)
	s.WorkType = workType
	return s
}

func TestAnalyzeWorkflowEmpty(t *testing.T) {
	assert.Empty(t, AnalyzeWorkflow(nil))
}

func TestAnalyzeWorkflowDeepFocusAndContextSwitch(t *testing.T) {
	now := time.Now()
	s1 := sessionFromFiles(now.Add(-2*time.Hour), now.Add(-time.Hour), PatternDevelopment,
		watch.FileActivity{Path: "focus.go", EditCount: 25, TimeSpent: time.Hour})
	s2 := sessionFromFiles(now.Add(-time.Hour), now, PatternDevelopment,
		watch.FileActivity{Path: "different.go", EditCount: 15, TimeSpent: time.Hour})

	insights := AnalyzeWorkflow([]Session{s1, s2})
	require.NotEmpty(t, insights)

	types := make(map[string]int)
	for _, in := range insights {
		types[in.Type]++
	}
	assert.Positive(t, types["deep_focus"], "single-file sessions should classify as deep focus")
	assert.Positive(t, types["context_switch"], "disjoint file sets should flag a context switch")
	assert.Positive(t, types["focus"], "high average score should flag sustained focus")
}

func TestAnalyzeWorkflowTaskSwitch(t *testing.T) {
	now := time.Now()
	s := sessionFromFiles(now.Add(-time.Hour), now, PatternDevelopment,
		watch.FileActivity{Path: "a.go", EditCount: 3},
		watch.FileActivity{Path: "b.go", EditCount: 3},
		watch.FileActivity{Path: "c.go", EditCount: 3},
		watch.FileActivity{Path: "d.go", EditCount: 3})

	insights := AnalyzeWorkflow([]Session{s})
	var found bool
	for _, in := range insights {
		if in.Type == "task_switch" {
			found = true
			assert.LessOrEqual(t, len(in.RelatedFiles), 3)
		}
	}
	assert.True(t, found, "evenly split edits across four files should classify as task switch")
}

func TestAnalyzeWorkflowRecurringWorkType(t *testing.T) {
	now := time.Now()
	s1 := sessionFromFiles(now.Add(-2*time.Hour), now.Add(-time.Hour), PatternDebugging,
		watch.FileActivity{Path: "a.go", EditCount: 2, TimeSpent: time.Minute},
		watch.FileActivity{Path: "b.go", EditCount: 2, TimeSpent: time.Minute})
	s2 := sessionFromFiles(now.Add(-time.Hour), now, PatternDebugging,
		watch.FileActivity{Path: "a.go", EditCount: 2, TimeSpent: time.Minute},
		watch.FileActivity{Path: "b.go", EditCount: 2, TimeSpent: time.Minute})

	insights := AnalyzeWorkflow([]Session{s1, s2})
	var pattern string
	for _, in := range insights {
		if in.Title == "Work Pattern Detected" {
			pattern = in.Description
		}
	}
	assert.Contains(t, pattern, "debugging")
	assert.Contains(t, pattern, "2 sessions")
}

func TestAnalyzeWorkflowPrimaryFileTypes(t *testing.T) {
	now := time.Now()
	s := sessionFromFiles(now.Add(-time.Hour), now, PatternDevelopment,
		watch.FileActivity{Path: "a.go", EditCount: 5},
		watch.FileActivity{Path: "b.go", EditCount: 4},
		watch.FileActivity{Path: "c.py", EditCount: 1})

	insights := AnalyzeWorkflow([]Session{s})
	require.NotEmpty(t, insights)
	assert.Equal(t, "Primary Development Focus", insights[0].Title)
	assert.Contains(t, insights[0].Description, ".go (2)")
	assert.Contains(t, insights[0].Description, ".py (1)")
}
