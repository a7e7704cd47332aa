// Package capture assembles immutable context snapshots. It pulls
// repository state, TODO annotations, and live file activity from its
// collaborators, runs the analyzer over them, and produces a Capsule.
// Persistence is the caller's responsibility.
package capture

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/recaplabs/recap/internal/analyzer"
	"github.com/recaplabs/recap/internal/capsule"
	"github.com/recaplabs/recap/internal/config"
	"github.com/recaplabs/recap/internal/diffscan"
	"github.com/recaplabs/recap/internal/gitx"
	"github.com/recaplabs/recap/internal/watch"
)

// GitSource is the repository view a capture needs. *gitx.Client
// satisfies it; tests use a stub.
type GitSource interface {
	Branch(ctx context.Context) string
	RepoName(ctx context.Context) string
	StagedFilesWithDiffs(ctx context.Context) ([]gitx.StagedFile, error)
	ListChangedFiles(ctx context.Context) ([]capsule.ModifiedFile, error)
	DiffFor(ctx context.Context, path string) (string, error)
	RecentCommits(ctx context.Context, limit int) ([]capsule.Commit, error)
}

// TodoSource lists outstanding annotations under the project root.
type TodoSource interface {
	Scan() ([]capsule.Todo, error)
}

// ActivitySource reports live file activity. *watch.Monitor satisfies
// it.
type ActivitySource interface {
	Start() error
	Stop()
	ActiveFile() string
	ActiveFiles(limit int) []watch.FileActivity
}

// Capture orchestrates snapshot assembly for one project root.
type Capture struct {
	root     string
	cfg      *config.Config
	git      GitSource // nil when root is not a repository
	todos    TodoSource
	activity ActivitySource
	an       *analyzer.Analyzer
	log      *slog.Logger

	sessionStart time.Time
}

// New builds a Capture. git may be nil for non-repository roots; every
// git-derived field is then simply empty.
func New(root string, cfg *config.Config, git GitSource, todos TodoSource, activity ActivitySource, logger *slog.Logger) *Capture {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Capture{
		root:         root,
		cfg:          cfg,
		git:          git,
		todos:        todos,
		activity:     activity,
		an:           analyzer.New(),
		log:          logger,
		sessionStart: time.Now(),
	}
}

// StartMonitoring begins live file tracking.
func (c *Capture) StartMonitoring() error {
	if c.activity == nil {
		return nil
	}
	return c.activity.Start()
}

// StopMonitoring halts live file tracking.
func (c *Capture) StopMonitoring() {
	if c.activity != nil {
		c.activity.Stop()
	}
}

// ActiveFile returns the most recently written file, or empty when
// monitoring is off or nothing has been touched yet.
func (c *Capture) ActiveFile() string {
	if c.activity == nil {
		return ""
	}
	return c.activity.ActiveFile()
}

// Insights returns the analyzer's recent insight log.
func (c *Capture) Insights(limit int) []capsule.Insight {
	return c.an.RecentInsights(limit)
}

// Snapshot assembles a capsule from the current project state.
func (c *Capture) Snapshot(ctx context.Context) (*capsule.Capsule, error) {
	now := time.Now()

	project := capsule.ProjectInfo{
		Name:     filepath.Base(c.root),
		RootPath: c.root,
	}
	if c.git != nil {
		project.Branch = c.git.Branch(ctx)
		project.Repo = c.git.RepoName(ctx)
	}

	modified, diffs := c.collectChanges(ctx)

	var todos []capsule.Todo
	if c.todos != nil {
		scanned, err := c.todos.Scan()
		if err != nil {
			c.log.Warn("todo scan failed", "error", err)
		} else {
			todos = scanned
		}
	}

	var commits []capsule.Commit
	if c.git != nil {
		commits, _ = c.git.RecentCommits(ctx, 10)
	}

	var activeFiles []watch.FileActivity
	var activeFile string
	if c.activity != nil {
		activeFiles = c.activity.ActiveFiles(0)
		activeFile = c.activity.ActiveFile()
	}

	session := analyzer.AnalyzeSession(activeFiles, c.sessionStart, now)
	workType := analyzer.DetectWorkPattern(diffs, nil, todos)
	session.WorkType = workType

	work := &capsule.WorkSession{
		WorkType:            workType,
		StartTime:           c.sessionStart,
		EndTime:             now,
		FocusFiles:          focusFiles(session),
		ActivityScore:       session.ActivityScore,
		FocusDuration:       int(now.Sub(c.sessionStart).Seconds()),
		IncompleteFunctions: incompleteFunctions(diffs),
	}

	for _, in := range analyzer.AnalyzeWorkflow([]analyzer.Session{session}) {
		c.an.AddInsight(in)
	}

	snap := &capsule.Capsule{
		Project: project,
		Context: capsule.ContextData{
			ModifiedFiles: modified,
			FileDiffs:     diffs,
			Todos:         todos,
			ActiveFile:    activeFile,
			Insights:      c.an.RecentInsights(5),
			WorkSession:   work,
			Commits:       commits,
		},
		Metadata: capsule.Metadata{
			Timestamp: now,
			Version:   capsule.SchemaVersion,
			SessionID: ulid.Make().String(),
		},
	}
	return snap, nil
}

// collectChanges builds the index-aligned modified-file and diff lists.
// Staged changes are preferred; when nothing is staged the full changed
// set (unstaged and untracked included) is used instead.
func (c *Capture) collectChanges(ctx context.Context) ([]capsule.ModifiedFile, []capsule.FileDiff) {
	if c.git == nil {
		return nil, nil
	}

	var modified []capsule.ModifiedFile
	var diffs []capsule.FileDiff

	add := func(path string, status capsule.FileStatus, diff string) {
		diff = capsule.TruncateDiff(diff)
		modified = append(modified, capsule.ModifiedFile{
			Path:         path,
			Status:       status,
			LastModified: c.fileMtime(path),
		})
		diffs = append(diffs, capsule.FileDiff{
			Path:              path,
			Status:            status,
			ChangePattern:     diffscan.DetectChangePattern(diff),
			Diff:              diff,
			ModifiedFunctions: modifiedFunctions(diff),
			Additions:         strings.Count(diff, "\n+"),
			Deletions:         strings.Count(diff, "\n-"),
		})
	}

	staged, err := c.git.StagedFilesWithDiffs(ctx)
	if err != nil {
		c.log.Warn("listing staged files failed", "error", err)
	}

	if len(staged) > 0 {
		for i, sf := range staged {
			if i >= c.cfg.MaxFilesToAnalyze {
				break
			}
			add(sf.Path, sf.Status, sf.Diff)
		}
		return modified, diffs
	}

	changed, err := c.git.ListChangedFiles(ctx)
	if err != nil {
		c.log.Warn("listing changed files failed", "error", err)
		return nil, nil
	}
	for i, mf := range changed {
		if i >= c.cfg.MaxFilesToAnalyze {
			break
		}
		diff, err := c.git.DiffFor(ctx, mf.Path)
		if err != nil {
			diff = ""
		}
		add(mf.Path, mf.Status, diff)
	}
	return modified, diffs
}

func (c *Capture) fileMtime(path string) time.Time {
	info, err := os.Stat(filepath.Join(c.root, path))
	if err != nil {
		return time.Now().UTC()
	}
	return info.ModTime()
}

// modifiedFunctions derives touched function names from the diff.
func modifiedFunctions(diff string) []capsule.ModifiedFunction {
	cls := diffscan.Classify(diff)
	var funcs []capsule.ModifiedFunction
	for _, name := range cls.AddedFunctions {
		funcs = append(funcs, capsule.ModifiedFunction{Name: name})
	}
	return funcs
}

// incompleteFunctions flags functions added this session whose diff
// also introduces a TODO or FIXME marker.
func incompleteFunctions(diffs []capsule.FileDiff) []capsule.CodeSnippet {
	var snippets []capsule.CodeSnippet
	for _, fd := range diffs {
		if !strings.Contains(fd.Diff, "TODO") && !strings.Contains(fd.Diff, "FIXME") {
			continue
		}
		for _, fn := range fd.ModifiedFunctions {
			snippets = append(snippets, capsule.CodeSnippet{
				File:         fd.Path,
				FunctionName: fn.Name,
			})
		}
	}
	return snippets
}

func focusFiles(s analyzer.Session) []string {
	var files []string
	for i, f := range s.Files {
		if i >= capsule.MaxFocusFiles {
			break
		}
		files = append(files, f.Path)
	}
	return files
}
