package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/recaplabs/recap/internal/capsule"
)

// fakeClient returns a canned response or error for every Generate call.
type fakeClient struct {
	response string
	err      error
	calls    int
}

func (f *fakeClient) Generate(_ context.Context, _ string, _ int32) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func capsuleWithDiff(path, diff string, additions int) *capsule.Capsule {
	return &capsule.Capsule{
		Project: capsule.ProjectInfo{Name: "demo", Branch: "main"},
		Context: capsule.ContextData{
			FileDiffs: []capsule.FileDiff{{Path: path, Diff: diff, Additions: additions}},
		},
	}
}

func TestSummaryNoChanges(t *testing.T) {
	fc := &fakeClient{response: "should not be called"}
	s := New(fc, nil)
	got := s.Summary(context.Background(), &capsule.Capsule{})
	if got != NoChangesSummary {
		t.Errorf("Summary() = %q, want sentinel", got)
	}
	if fc.calls != 0 {
		t.Error("model should not be called when there are no file changes")
	}
}

func TestSummaryUsesModel(t *testing.T) {
	fc := &fakeClient{response: "Added Parse function to lexer.go."}
	s := New(fc, nil)
	got := s.Summary(context.Background(), capsuleWithDiff("lexer.go", "+func Parse() {\n", 1))
	if got != "Added Parse function to lexer.go." {
		t.Errorf("Summary() = %q", got)
	}
	if fc.calls != 1 {
		t.Errorf("model called %d times, want 1", fc.calls)
	}
}

func TestSummaryFallsBackOnError(t *testing.T) {
	fc := &fakeClient{err: errors.New("quota exceeded")}
	s := New(fc, nil)
	got := s.Summary(context.Background(), capsuleWithDiff("lexer.go", "+func Parse() {\n", 1))
	if !strings.HasPrefix(got, "You were working on lexer") {
		t.Errorf("expected rule-based fallback, got %q", got)
	}
}

func TestSummaryFallsBackOnShortResponse(t *testing.T) {
	fc := &fakeClient{response: "ok"}
	s := New(fc, nil)
	got := s.Summary(context.Background(), capsuleWithDiff("lexer.go", "+x := 1\n", 1))
	if got == "ok" {
		t.Error("degenerate model response should trigger fallback")
	}
}

func TestRuleSummaryPrimaryFileAndFunctions(t *testing.T) {
	c := &capsule.Capsule{
		Context: capsule.ContextData{
			FileDiffs: []capsule.FileDiff{
				{Path: "small.go", Diff: "+x\n", Additions: 1},
				{Path: "pkg/mathutil.go", Diff: "+func Lcm(a, b int) int {\n+func Gcd(a, b int) int {\n+func Extra() {\n", Additions: 30},
			},
			Todos: []capsule.Todo{{Text: "TODO: handle zero"}},
		},
	}
	s := New(nil, nil)
	got := s.Summary(context.Background(), c)
	if !strings.Contains(got, "You were working on mathutil") {
		t.Errorf("primary file not picked by churn: %q", got)
	}
	if !strings.Contains(got, "Lcm, Gcd()") {
		t.Errorf("expected at most two added functions: %q", got)
	}
	if strings.Contains(got, "Extra") {
		t.Errorf("third function should be dropped: %q", got)
	}
	if !strings.Contains(got, "Still need to: TODO: handle zero") {
		t.Errorf("first TODO missing: %q", got)
	}
}

func TestNextStepsParsesModelList(t *testing.T) {
	fc := &fakeClient{response: "Here are some ideas:\n- Add tests\n- Wire config\n- Handle errors\n- Ship it\n- Too many"}
	s := New(fc, nil)
	steps := s.NextSteps(context.Background(), capsuleWithDiff("a.go", "+x\n", 1))
	if len(steps) != 4 {
		t.Fatalf("len(steps) = %d, want 4", len(steps))
	}
	if steps[0] != "Add tests" {
		t.Errorf("steps[0] = %q", steps[0])
	}
}

func TestNextStepsFallback(t *testing.T) {
	s := New(nil, nil)

	c := &capsule.Capsule{Context: capsule.ContextData{
		Todos: []capsule.Todo{{Text: "TODO: a"}, {Text: "TODO: b"}, {Text: "TODO: c"}},
	}}
	steps := s.NextSteps(context.Background(), c)
	if len(steps) != 2 || steps[0] != "TODO: a" || steps[1] != "TODO: b" {
		t.Errorf("steps = %v, want first two TODOs", steps)
	}

	steps = s.NextSteps(context.Background(), &capsule.Capsule{})
	if len(steps) != 1 || steps[0] != "Continue development" {
		t.Errorf("steps = %v, want default", steps)
	}
}

func TestExplainWhyNoChangesWithModel(t *testing.T) {
	fc := &fakeClient{response: "should not be called"}
	s := New(fc, nil)
	got := s.ExplainWhy(context.Background(), &capsule.Capsule{}, "", nil)
	if got != "No code changes in this session - just tracking activity." {
		t.Errorf("ExplainWhy() = %q", got)
	}
	if fc.calls != 0 {
		t.Error("model should not be called for empty sessions")
	}
}

func TestExplainWhyRuleClassification(t *testing.T) {
	s := New(nil, nil)
	tests := []struct {
		name string
		diff string
		want string
	}{
		{"new feature", "+func Login() {\n", "You were building new features in auth.go."},
		{"bug fix", "+if ok { // fix nil deref\n", "You were fixing bugs in auth.go."},
		{"refactor", "+x := rename(y)\n", "You were refactoring auth.go."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.ExplainWhy(context.Background(), capsuleWithDiff("internal/auth.go", tt.diff, 3), "", nil)
			if got != tt.want {
				t.Errorf("ExplainWhy() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExplainWhyRuleNoChanges(t *testing.T) {
	s := New(nil, nil)
	got := s.ExplainWhy(context.Background(), &capsule.Capsule{}, "", nil)
	if got != "No code changes detected in this session." {
		t.Errorf("ExplainWhy() = %q", got)
	}
}
