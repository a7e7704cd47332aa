package analyzer

import (
	"reflect"
	"testing"
	"time"

	"github.com/recaplabs/recap/internal/capsule"
	"github.com/recaplabs/recap/internal/watch"
)

func TestAnalyzeSessionEmpty(t *testing.T) {
	s := AnalyzeSession(nil, time.Now(), time.Now())
	if s.ActivityScore != 0 {
		t.Errorf("ActivityScore = %v, want 0", s.ActivityScore)
	}
	if s.Summary != "No active files detected in this session." {
		t.Errorf("Summary = %q", s.Summary)
	}
}

func TestAnalyzeSessionScoreAndRanking(t *testing.T) {
	files := []watch.FileActivity{
		{Path: "a.go", EditCount: 2, TimeSpent: 2 * time.Minute},
		{Path: "b.go", EditCount: 5, TimeSpent: time.Minute},
		{Path: "c.py", EditCount: 1, TimeSpent: 30 * time.Second},
	}
	s := AnalyzeSession(files, time.Now().Add(-time.Hour), time.Now())

	// 8 edits * 10 + 3.5 minutes of presence
	if s.ActivityScore != 83.5 {
		t.Errorf("ActivityScore = %v, want 83.5", s.ActivityScore)
	}
	if s.TotalEdits != 8 {
		t.Errorf("TotalEdits = %d, want 8", s.TotalEdits)
	}
	want := []string{"b.go", "a.go", "c.py"}
	for i, p := range want {
		if s.MainFiles[i] != p {
			t.Errorf("MainFiles[%d] = %q, want %q", i, s.MainFiles[i], p)
		}
	}
	if s.FilePatterns[".go"] != 2 || s.FilePatterns[".py"] != 1 {
		t.Errorf("FilePatterns = %v", s.FilePatterns)
	}
}

func TestAnalyzeSessionScoreSaturates(t *testing.T) {
	files := []watch.FileActivity{{Path: "a.go", EditCount: 50}}
	s := AnalyzeSession(files, time.Now(), time.Now())
	if s.ActivityScore != 100 {
		t.Errorf("ActivityScore = %v, want 100", s.ActivityScore)
	}
}

func TestDetectWorkPattern(t *testing.T) {
	tests := []struct {
		name     string
		changes  []capsule.FileDiff
		commands []string
		todos    int
		want     string
	}{
		{
			name:    "debug markers win",
			changes: []capsule.FileDiff{{Path: "new.go", Status: capsule.StatusAdded, Diff: "+fmt.Println(x)\n+console.log(y)\n"}},
			want:    PatternDebugging,
		},
		{
			name:     "many test commands mean debugging",
			commands: []string{"go test ./...", "go test -run X", "pytest", "go test -v"},
			want:     PatternDebugging,
		},
		{
			name:    "refactor keywords",
			changes: []capsule.FileDiff{{Path: "a.go", Diff: "+func renameUser() {\n"}},
			want:    PatternRefactoring,
		},
		{
			name:    "added file means new feature",
			changes: []capsule.FileDiff{{Path: "feature.go", Status: capsule.StatusAdded, Diff: "+package x\n"}},
			want:    PatternNewFeature,
		},
		{
			name:  "todo pile means bug fixing",
			todos: 6,
			want:  PatternBugFixing,
		},
		{
			name:     "a test command means testing",
			commands: []string{"go test ./internal/..."},
			want:     PatternTesting,
		},
		{
			name: "default",
			want: PatternDevelopment,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			todos := make([]capsule.Todo, tt.todos)
			got := DetectWorkPattern(tt.changes, tt.commands, todos)
			if got != tt.want {
				t.Errorf("DetectWorkPattern() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectContextSwitch(t *testing.T) {
	tests := []struct {
		name     string
		current  []string
		previous []string
		want     bool
	}{
		{"no previous", []string{"a.go"}, nil, false},
		{"identical", []string{"a.go", "b.go"}, []string{"a.go", "b.go"}, false},
		{"disjoint", []string{"x.go"}, []string{"a.go"}, true},
		{"half overlap", []string{"a.go", "x.go"}, []string{"a.go", "b.go"}, false},
		{"one of four", []string{"a.go", "x.go", "y.go", "z.go"}, []string{"a.go"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectContextSwitch(tt.current, tt.previous); got != tt.want {
				t.Errorf("DetectContextSwitch() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInsightLogBoundedAndNonMutating(t *testing.T) {
	a := New()
	for i := 0; i < 60; i++ {
		a.AddInsight(capsule.Insight{Title: "insight", Priority: i % 5, Timestamp: time.Now()})
	}
	if got := len(a.insights); got != 50 {
		t.Errorf("log size = %d, want 50", got)
	}

	before := len(a.insights)
	first := a.RecentInsights(5)
	second := a.RecentInsights(5)
	if len(a.insights) != before {
		t.Error("retrieval mutated the log")
	}
	if len(first) != 5 || len(second) != 5 {
		t.Fatalf("lens = %d, %d, want 5", len(first), len(second))
	}
	for i := range first {
		if !reflect.DeepEqual(first[i], second[i]) {
			t.Errorf("retrieval not idempotent at %d", i)
		}
	}
	for i := 1; i < len(first); i++ {
		if first[i].Priority > first[i-1].Priority {
			t.Error("insights not sorted by priority descending")
		}
	}
}
