package capsule

import "time"

// SchemaVersion is the capsule schema version recorded in metadata.
// Bump this when the capsule layout changes.
const SchemaVersion = "0.2.0"

// MaxDiffChars caps the raw diff text stored per file.
const MaxDiffChars = 5000

// MaxFocusFiles caps how many files a WorkSession records as its focus.
const MaxFocusFiles = 5

// FileStatus classifies a changed file relative to the repository index.
type FileStatus string

const (
	StatusAdded     FileStatus = "added"
	StatusModified  FileStatus = "modified"
	StatusDeleted   FileStatus = "deleted"
	StatusUntracked FileStatus = "untracked"
)

// Capsule is one immutable snapshot of captured development context.
// It is assembled once per capture invocation and never mutated after
// construction; persistence is the caller's responsibility.
type Capsule struct {
	Project  ProjectInfo `json:"project"`
	Context  ContextData `json:"context"`
	Metadata Metadata    `json:"metadata"`
}

// ProjectInfo identifies the project a capsule was captured from.
type ProjectInfo struct {
	// Name is the project directory name
	Name string `json:"name"`

	// RootPath is the absolute path of the project root
	RootPath string `json:"root_path"`

	// Branch is the current git branch, empty when detached or not a repo
	Branch string `json:"branch,omitempty"`

	// Repo is the repository name derived from the origin remote
	Repo string `json:"repo,omitempty"`
}

// Metadata carries capture bookkeeping.
type Metadata struct {
	// Timestamp is when the capsule was created
	Timestamp time.Time `json:"timestamp"`

	// Version is the capsule schema version
	Version string `json:"version"`

	// SessionID is a ULID identifying the capture session
	SessionID string `json:"session_id"`
}

// ContextData holds everything extracted and derived during a capture.
// ModifiedFiles and FileDiffs are index-aligned when both are present.
type ContextData struct {
	ModifiedFiles []ModifiedFile `json:"modified_files"`
	FileDiffs     []FileDiff     `json:"file_diffs"`
	Todos         []Todo         `json:"todos"`
	ActiveFile    string         `json:"active_file,omitempty"`
	Insights      []Insight      `json:"insights,omitempty"`
	WorkSession   *WorkSession   `json:"work_session,omitempty"`
	Commits       []Commit       `json:"recent_commits,omitempty"`

	// Filled in after capture by the summarizer.
	Summary   string   `json:"ai_summary,omitempty"`
	NextSteps []string `json:"next_steps,omitempty"`
}

// ModifiedFile is one entry in the changed-file list.
type ModifiedFile struct {
	Path         string     `json:"path"`
	Status       FileStatus `json:"status"`
	LastModified time.Time  `json:"last_modified"`
}

// FileDiff pairs a changed file with its diff and the signal extracted
// from it. Diff is truncated to MaxDiffChars before storage; Additions
// and Deletions are line counts and never negative.
type FileDiff struct {
	Path   string     `json:"path"`
	Status FileStatus `json:"status,omitempty"`

	// ChangePattern is the heuristic tag for the change: feature,
	// refactor, fix, debugging, or unknown.
	ChangePattern string `json:"change_pattern"`

	Diff              string             `json:"diff,omitempty"`
	ModifiedFunctions []ModifiedFunction `json:"modified_functions,omitempty"`
	Additions         int                `json:"additions"`
	Deletions         int                `json:"deletions"`
}

// ModifiedFunction describes a function touched in this session.
type ModifiedFunction struct {
	Name      string `json:"name"`
	ClassName string `json:"class_name,omitempty"`
	LineStart int    `json:"line_start"`
	LineEnd   int    `json:"line_end"`
}

// Todo is one TODO/FIXME/NOTE marker found by the lexical scanner.
// It reflects current file content, not git state.
type Todo struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Text    string `json:"text"`
	Context string `json:"context,omitempty"`

	// FunctionContext names the enclosing function/class, when found
	FunctionContext string `json:"function_context,omitempty"`
}

// Commit is one entry of recent history. Commits are captured for
// display surfaces only; the digest and summarizer never consume them.
type Commit struct {
	Hash      string    `json:"hash"`
	Message   string    `json:"message"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
}

// WorkSession aggregates per-file activity over one capture window.
type WorkSession struct {
	// WorkType is the detected pattern: debugging, refactoring,
	// new_feature, bug_fixing, testing, or development
	WorkType string `json:"work_type"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	// FocusFiles is a prefix of the ranked active-file list,
	// at most MaxFocusFiles entries
	FocusFiles []string `json:"focus_files"`

	// ActivityScore is a 0-100 signal combining edit frequency
	// and time spent
	ActivityScore float64 `json:"activity_score"`

	ContextSwitches int `json:"context_switches"`

	// FocusDuration is the session length in seconds
	FocusDuration int `json:"focus_duration"`

	// IncompleteFunctions are functions touched this session whose
	// body still contains a TODO or FIXME marker
	IncompleteFunctions []CodeSnippet `json:"incomplete_functions,omitempty"`
}

// CodeSnippet is an excerpt of a function body, used for incomplete-work
// tracking.
type CodeSnippet struct {
	File         string `json:"file"`
	FunctionName string `json:"function_name"`
	ClassName    string `json:"class_name,omitempty"`
	LineStart    int    `json:"line_start"`
	LineEnd      int    `json:"line_end"`
	Content      string `json:"content"`
}

// Insight is one workflow observation emitted by the analyzer.
type Insight struct {
	// Type is the insight vocabulary tag: focus, pattern, suggestion,
	// context_switch, or stale_todo
	Type string `json:"type"`

	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Timestamp    time.Time `json:"timestamp"`
	Priority     int       `json:"priority"` // 1-5, higher is more important
	RelatedFiles []string  `json:"related_files,omitempty"`

	// Confidence is set for analytically derived insights, in [0,1]
	Confidence float64 `json:"confidence,omitempty"`
}

// TruncateDiff caps diff text at MaxDiffChars.
func TruncateDiff(diff string) string {
	if len(diff) <= MaxDiffChars {
		return diff
	}
	return diff[:MaxDiffChars]
}
