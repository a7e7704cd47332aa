// Package analyzer derives sessions, work patterns, and insights from
// captured activity. Everything here is computed from inputs passed in;
// the only state an Analyzer holds is its bounded insight log.
package analyzer

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/recaplabs/recap/internal/capsule"
	"github.com/recaplabs/recap/internal/watch"
)

// Thresholds for workflow classification.
const (
	maxInsights          = 50
	deepFocusShare       = 0.8  // single file holds >= 80% of edits
	taskSwitchShare      = 0.4  // no file above 40% across >= 3 files
	contextSwitchOverlap = 0.3  // file-set overlap below 30% between sessions
	highFocusScore       = 80.0 // average activity score across sessions
)

// Session is the analyzed view of one monitoring window.
type Session struct {
	Start         time.Time
	End           time.Time
	Files         []watch.FileActivity // sorted by (edits, time) descending
	MainFiles     []string             // top 3 paths
	FilePatterns  map[string]int       // extension -> file count
	ActivityScore float64              // 0-100
	TotalEdits    int
	Summary       string
	WorkType      string
}

// Analyzer accumulates insights across captures. Not safe for
// concurrent use; the capture orchestrator owns one per process.
type Analyzer struct {
	insights []capsule.Insight
}

func New() *Analyzer {
	return &Analyzer{}
}

// AnalyzeSession ranks file activity and scores the session. Files
// sort by edit count, then time spent. The activity score saturates at
// 100: ten edits or an hour of presence each max it out alone.
func AnalyzeSession(files []watch.FileActivity, start, end time.Time) Session {
	s := Session{Start: start, End: end, FilePatterns: map[string]int{}}

	if len(files) == 0 {
		s.Summary = "No active files detected in this session."
		return s
	}

	sorted := make([]watch.FileActivity, len(files))
	copy(sorted, files)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].EditCount != sorted[j].EditCount {
			return sorted[i].EditCount > sorted[j].EditCount
		}
		return sorted[i].TimeSpent > sorted[j].TimeSpent
	})
	s.Files = sorted

	var totalEdits int
	var totalTime time.Duration
	for _, f := range sorted {
		s.FilePatterns[filepath.Ext(f.Path)]++
		totalEdits += f.EditCount
		totalTime += f.TimeSpent
	}
	s.TotalEdits = totalEdits

	score := float64(totalEdits)*10 + totalTime.Seconds()/60
	if score > 100 {
		score = 100
	}
	s.ActivityScore = score

	for i, f := range sorted {
		if i >= 3 {
			break
		}
		s.MainFiles = append(s.MainFiles, f.Path)
	}

	exts := make([]string, 0, len(s.FilePatterns))
	for ext := range s.FilePatterns {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	s.Summary = fmt.Sprintf("Focused on %d files (%s). Most active: %s",
		len(files), strings.Join(exts, ", "), strings.Join(s.MainFiles, ", "))

	return s
}

// Work pattern labels, in decision order.
const (
	PatternDebugging   = "debugging"
	PatternRefactoring = "refactoring"
	PatternNewFeature  = "new_feature"
	PatternBugFixing   = "bug_fixing"
	PatternTesting     = "testing"
	PatternDevelopment = "development"
)

var debugMarkers = []string{"print(", "console.log", "debugger", "breakpoint", "pdb"}
var refactorKeywords = []string{"rename", "extract", "move", "refactor"}

// DetectWorkPattern classifies what kind of work a session was. The
// decision order is fixed: debugging beats refactoring beats new
// feature work, so a session doing several things reports the most
// diagnostic-looking one.
func DetectWorkPattern(changes []capsule.FileDiff, commands []string, todos []capsule.Todo) string {
	var testCommands int
	for _, cmd := range commands {
		lower := strings.ToLower(cmd)
		if strings.Contains(lower, "test") || strings.Contains(lower, "pytest") {
			testCommands++
		}
	}

	var hasDebug, hasRefactor, hasNewFile bool
	for _, fd := range changes {
		for _, m := range debugMarkers {
			if strings.Contains(fd.Diff, m) {
				hasDebug = true
			}
		}
		lower := strings.ToLower(fd.Diff + " " + fd.Path)
		for _, k := range refactorKeywords {
			if strings.Contains(lower, k) {
				hasRefactor = true
			}
		}
		if fd.Status == capsule.StatusAdded {
			hasNewFile = true
		}
	}

	switch {
	case testCommands > 3 || hasDebug:
		return PatternDebugging
	case hasRefactor:
		return PatternRefactoring
	case hasNewFile:
		return PatternNewFeature
	case len(todos) > 5:
		return PatternBugFixing
	case testCommands > 0:
		return PatternTesting
	default:
		return PatternDevelopment
	}
}

// DetectContextSwitch reports whether two sessions' file sets overlap
// too little to be the same piece of work.
func DetectContextSwitch(current, previous []string) bool {
	if len(previous) == 0 || len(current) == 0 {
		return false
	}
	curr := map[string]struct{}{}
	for _, f := range current {
		curr[f] = struct{}{}
	}
	var shared int
	seen := map[string]struct{}{}
	for _, f := range previous {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		if _, ok := curr[f]; ok {
			shared++
		}
	}
	larger := len(curr)
	if len(seen) > larger {
		larger = len(seen)
	}
	return float64(shared)/float64(larger) < contextSwitchOverlap
}

// AnalyzeWorkflow derives insights from a run of sessions: dominant
// file types, recurring work patterns, per-session focus shape, context
// switches between adjacent sessions, and sustained high focus.
func AnalyzeWorkflow(sessions []Session) []capsule.Insight {
	var insights []capsule.Insight
	if len(sessions) == 0 {
		return insights
	}
	now := time.Now()

	allPatterns := map[string]int{}
	workTypes := map[string]int{}
	var allFiles []string
	for _, s := range sessions {
		for ext, count := range s.FilePatterns {
			allPatterns[ext] += count
		}
		if s.WorkType != "" {
			workTypes[s.WorkType]++
		}
		allFiles = append(allFiles, s.MainFiles...)
	}

	if len(allPatterns) > 0 {
		type extCount struct {
			ext   string
			count int
		}
		ranked := make([]extCount, 0, len(allPatterns))
		for ext, count := range allPatterns {
			ranked = append(ranked, extCount{ext, count})
		}
		sort.Slice(ranked, func(i, j int) bool {
			if ranked[i].count != ranked[j].count {
				return ranked[i].count > ranked[j].count
			}
			return ranked[i].ext < ranked[j].ext
		})
		if len(ranked) > 3 {
			ranked = ranked[:3]
		}
		descs := make([]string, len(ranked))
		for i, rc := range ranked {
			descs[i] = fmt.Sprintf("%s (%d)", rc.ext, rc.count)
		}
		insights = append(insights, capsule.Insight{
			Type:        "pattern",
			Title:       "Primary Development Focus",
			Description: "Main file types: " + strings.Join(descs, ", "),
			Timestamp:   now,
			Priority:    3,
		})
	}

	if top, count := dominantWorkType(workTypes); count > 1 {
		related := allFiles
		if len(related) > 5 {
			related = related[:5]
		}
		insights = append(insights, capsule.Insight{
			Type:         "pattern",
			Title:        "Work Pattern Detected",
			Description:  fmt.Sprintf("Primary activity: %s (%d sessions)", top, count),
			Timestamp:    now,
			Priority:     4,
			RelatedFiles: dedupe(related),
		})
	}

	for _, s := range sessions {
		if in, ok := classifyFocus(s); ok {
			insights = append(insights, in)
		}
	}

	for i := 1; i < len(sessions); i++ {
		prev, curr := sessions[i-1].MainFiles, sessions[i].MainFiles
		if DetectContextSwitch(curr, prev) {
			insights = append(insights, capsule.Insight{
				Type:         "context_switch",
				Title:        "Context Switch Detected",
				Description:  fmt.Sprintf("Switched from %s to %s", first(prev), first(curr)),
				Timestamp:    sessions[i].Start,
				Priority:     3,
				RelatedFiles: capPaths(curr, 3),
			})
		}
	}

	if len(sessions) >= 2 {
		var sum float64
		for _, s := range sessions {
			sum += s.ActivityScore
		}
		if sum/float64(len(sessions)) > highFocusScore {
			insights = append(insights, capsule.Insight{
				Type:        "focus",
				Title:       "High Focus Sessions",
				Description: "You maintain consistently high focus across sessions",
				Timestamp:   now,
				Priority:    4,
			})
		}
	}

	return insights
}

// classifyFocus labels a session deep_focus when one file dominates its
// edits, or task_switch when edits scatter across three or more files
// with none dominant.
func classifyFocus(s Session) (capsule.Insight, bool) {
	if s.TotalEdits == 0 || len(s.Files) == 0 {
		return capsule.Insight{}, false
	}
	topShare := float64(s.Files[0].EditCount) / float64(s.TotalEdits)

	if topShare >= deepFocusShare {
		f := s.Files[0]
		return capsule.Insight{
			Type:  "deep_focus",
			Title: "Deep Focus Detected",
			Description: fmt.Sprintf("You spent %d minutes on %s with %d edits",
				int(f.TimeSpent.Minutes()), f.Path, f.EditCount),
			Timestamp:    s.End,
			Priority:     4,
			RelatedFiles: []string{f.Path},
			Confidence:   topShare,
		}, true
	}

	if len(s.Files) >= 3 && topShare <= taskSwitchShare {
		return capsule.Insight{
			Type:         "task_switch",
			Title:        "Scattered Session",
			Description:  fmt.Sprintf("Edits spread across %d files with no clear focus", len(s.Files)),
			Timestamp:    s.End,
			Priority:     3,
			RelatedFiles: capPaths(s.MainFiles, 3),
			Confidence:   1 - topShare,
		}, true
	}

	return capsule.Insight{}, false
}

// AddInsight appends to the bounded log, dropping the oldest entries
// past the cap.
func (a *Analyzer) AddInsight(in capsule.Insight) {
	a.insights = append(a.insights, in)
	if len(a.insights) > maxInsights {
		a.insights = a.insights[len(a.insights)-maxInsights:]
	}
}

// RecentInsights returns up to limit of the newest insights, highest
// priority first, newest first within a priority. The log itself is
// left untouched.
func (a *Analyzer) RecentInsights(limit int) []capsule.Insight {
	n := len(a.insights)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]capsule.Insight, n)
	copy(out, a.insights[len(a.insights)-n:])
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

func dominantWorkType(counts map[string]int) (string, int) {
	var top string
	var best int
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if counts[k] > best {
			top, best = k, counts[k]
		}
	}
	return top, best
}

func dedupe(paths []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func capPaths(paths []string, n int) []string {
	if len(paths) > n {
		return paths[:n]
	}
	return paths
}

func first(paths []string) string {
	if len(paths) == 0 {
		return "unknown"
	}
	return paths[0]
}
