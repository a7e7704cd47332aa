package capture

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/recaplabs/recap/internal/capsule"
	"github.com/recaplabs/recap/internal/config"
	"github.com/recaplabs/recap/internal/gitx"
	"github.com/recaplabs/recap/internal/watch"
)

type stubGit struct {
	branch  string
	repo    string
	staged  []gitx.StagedFile
	changed []capsule.ModifiedFile
	diffs   map[string]string
	commits []capsule.Commit
}

func (s *stubGit) Branch(context.Context) string   { return s.branch }
func (s *stubGit) RepoName(context.Context) string { return s.repo }

func (s *stubGit) StagedFilesWithDiffs(context.Context) ([]gitx.StagedFile, error) {
	return s.staged, nil
}

func (s *stubGit) ListChangedFiles(context.Context) ([]capsule.ModifiedFile, error) {
	return s.changed, nil
}

func (s *stubGit) DiffFor(_ context.Context, path string) (string, error) {
	return s.diffs[path], nil
}

func (s *stubGit) RecentCommits(context.Context, int) ([]capsule.Commit, error) {
	return s.commits, nil
}

type stubTodos struct {
	todos []capsule.Todo
}

func (s *stubTodos) Scan() ([]capsule.Todo, error) { return s.todos, nil }

type stubActivity struct {
	active string
	files  []watch.FileActivity
}

func (s *stubActivity) Start() error       { return nil }
func (s *stubActivity) Stop()              {}
func (s *stubActivity) ActiveFile() string { return s.active }

func (s *stubActivity) ActiveFiles(limit int) []watch.FileActivity {
	if limit > 0 && len(s.files) > limit {
		return s.files[:limit]
	}
	return s.files
}

func TestSnapshotStagedChanges(t *testing.T) {
	git := &stubGit{
		branch: "main",
		repo:   "recap",
		staged: []gitx.StagedFile{
			{
				Path:   "auth.go",
				Status: capsule.StatusModified,
				Diff:   "+func Login() {\n+\treturn nil\n+}\n-old line",
			},
			{
				Path:   "auth_test.go",
				Status: capsule.StatusAdded,
				Diff:   "+func TestLogin(t *testing.T) {}",
			},
		},
		commits: []capsule.Commit{{Hash: "abc1234", Message: "initial"}},
	}
	c := New(t.TempDir(), nil, git, &stubTodos{}, &stubActivity{active: "auth.go"}, nil)

	snap, err := c.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	if snap.Project.Branch != "main" || snap.Project.Repo != "recap" {
		t.Errorf("project = %+v", snap.Project)
	}
	if len(snap.Context.ModifiedFiles) != 2 || len(snap.Context.FileDiffs) != 2 {
		t.Fatalf("got %d files / %d diffs, want 2 / 2",
			len(snap.Context.ModifiedFiles), len(snap.Context.FileDiffs))
	}
	for i := range snap.Context.FileDiffs {
		if snap.Context.ModifiedFiles[i].Path != snap.Context.FileDiffs[i].Path {
			t.Errorf("index %d misaligned: %q vs %q",
				i, snap.Context.ModifiedFiles[i].Path, snap.Context.FileDiffs[i].Path)
		}
	}

	// Line counts come from "\n+"/"\n-" occurrences, so the first
	// line of the diff is never counted.
	fd := snap.Context.FileDiffs[0]
	if fd.Additions != 2 || fd.Deletions != 1 {
		t.Errorf("additions/deletions = %d/%d, want 2/1", fd.Additions, fd.Deletions)
	}
	if len(fd.ModifiedFunctions) != 1 || fd.ModifiedFunctions[0].Name != "Login" {
		t.Errorf("ModifiedFunctions = %v, want Login", fd.ModifiedFunctions)
	}
	if fd.ChangePattern == "" {
		t.Error("ChangePattern not set")
	}

	if snap.Context.ActiveFile != "auth.go" {
		t.Errorf("ActiveFile = %q", snap.Context.ActiveFile)
	}
	if len(snap.Context.Commits) != 1 {
		t.Errorf("got %d commits, want 1", len(snap.Context.Commits))
	}
}

func TestSnapshotFallsBackToChangedFiles(t *testing.T) {
	git := &stubGit{
		changed: []capsule.ModifiedFile{
			{Path: "notes.md", Status: capsule.StatusUntracked},
		},
		diffs: map[string]string{"notes.md": "+++ NEW FILE (untracked) +++\n# notes"},
	}
	c := New(t.TempDir(), nil, git, nil, nil, nil)

	snap, err := c.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(snap.Context.FileDiffs) != 1 {
		t.Fatalf("got %d diffs, want 1", len(snap.Context.FileDiffs))
	}
	if !strings.Contains(snap.Context.FileDiffs[0].Diff, "NEW FILE") {
		t.Errorf("diff = %q, want untracked pseudo-diff", snap.Context.FileDiffs[0].Diff)
	}
}

func TestSnapshotWithoutRepository(t *testing.T) {
	c := New(t.TempDir(), nil, nil, &stubTodos{
		todos: []capsule.Todo{{File: "main.py", Line: 3, Text: "wire config"}},
	}, nil, nil)

	snap, err := c.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(snap.Context.FileDiffs) != 0 || len(snap.Context.ModifiedFiles) != 0 {
		t.Error("expected no changes without a repository")
	}
	if len(snap.Context.Todos) != 1 {
		t.Errorf("got %d todos, want 1", len(snap.Context.Todos))
	}
	if snap.Project.Branch != "" || snap.Project.Repo != "" {
		t.Errorf("project = %+v, want no git fields", snap.Project)
	}
}

func TestSnapshotMetadata(t *testing.T) {
	c := New(t.TempDir(), nil, nil, nil, nil, nil)

	snap, err := c.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if snap.Metadata.Version != capsule.SchemaVersion {
		t.Errorf("Version = %q, want %q", snap.Metadata.Version, capsule.SchemaVersion)
	}
	if len(snap.Metadata.SessionID) != 26 {
		t.Errorf("SessionID = %q, want 26-char ULID", snap.Metadata.SessionID)
	}
	if snap.Metadata.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}

	other, _ := c.Snapshot(context.Background())
	if other.Metadata.SessionID == snap.Metadata.SessionID {
		t.Error("session IDs not unique across snapshots")
	}
}

func TestSnapshotFileCap(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.MaxFilesToAnalyze = 2
	git := &stubGit{}
	for _, p := range []string{"a.go", "b.go", "c.go", "d.go"} {
		git.staged = append(git.staged, gitx.StagedFile{
			Path: p, Status: capsule.StatusModified, Diff: "+x",
		})
	}
	c := New(t.TempDir(), cfg, git, nil, nil, nil)

	snap, err := c.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(snap.Context.FileDiffs) != 2 {
		t.Errorf("got %d diffs, want cap of 2", len(snap.Context.FileDiffs))
	}
}

func TestSnapshotTruncatesDiff(t *testing.T) {
	git := &stubGit{staged: []gitx.StagedFile{{
		Path:   "big.go",
		Status: capsule.StatusModified,
		Diff:   "+" + strings.Repeat("x", capsule.MaxDiffChars*2),
	}}}
	c := New(t.TempDir(), nil, git, nil, nil, nil)

	snap, _ := c.Snapshot(context.Background())
	if got := len(snap.Context.FileDiffs[0].Diff); got != capsule.MaxDiffChars {
		t.Errorf("diff length = %d, want %d", got, capsule.MaxDiffChars)
	}
}

func TestSnapshotWorkSession(t *testing.T) {
	activity := &stubActivity{files: []watch.FileActivity{
		{Path: "auth.go", EditCount: 6, TimeSpent: 10 * time.Minute},
		{Path: "db.go", EditCount: 1, TimeSpent: time.Minute},
	}}
	git := &stubGit{staged: []gitx.StagedFile{{
		Path:   "auth.go",
		Status: capsule.StatusModified,
		Diff:   "+func Login() {\n+\t// TODO: handle MFA\n+}",
	}}}
	c := New(t.TempDir(), nil, git, nil, activity, nil)

	snap, err := c.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	ws := snap.Context.WorkSession
	if ws == nil {
		t.Fatal("WorkSession is nil")
	}
	if ws.ActivityScore <= 0 {
		t.Errorf("ActivityScore = %v, want > 0", ws.ActivityScore)
	}
	if len(ws.FocusFiles) != 2 || ws.FocusFiles[0] != "auth.go" {
		t.Errorf("FocusFiles = %v", ws.FocusFiles)
	}
	if len(ws.IncompleteFunctions) != 1 || ws.IncompleteFunctions[0].FunctionName != "Login" {
		t.Errorf("IncompleteFunctions = %v", ws.IncompleteFunctions)
	}
	if ws.WorkType == "" {
		t.Error("WorkType not set")
	}
}
