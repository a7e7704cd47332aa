// Package watch tracks real-time file activity under a project root.
// It maintains per-file activity scores and the most recently written
// file so captures can report what the developer was actually touching.
//
// A single goroutine consumes fsnotify events and is the only writer of
// the shared state; readers go through the mutex.
package watch

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// staleAfter is how long a file can sit untouched before its activity
// score is dropped.
const staleAfter = 5 * time.Minute

// defaultIgnores are path fragments never worth tracking.
var defaultIgnores = []string{
	".git", "__pycache__", "node_modules", ".pytest_cache", ".recap", ".idea", ".vscode",
}

// FileActivity is a read-only snapshot of one file's activity.
type FileActivity struct {
	Path        string
	EditCount   int
	AccessCount int
	TimeSpent   time.Duration
	LastAccess  time.Time
}

type fileState struct {
	editCount   int
	accessCount int
	timeSpent   time.Duration
	lastAccess  time.Time
}

// touch accumulates presence time since the previous access.
func (s *fileState) touch(now time.Time) {
	if !s.lastAccess.IsZero() {
		s.timeSpent += now.Sub(s.lastAccess)
	}
	s.lastAccess = now
	s.accessCount++
}

// Monitor watches a directory tree and tracks file activity.
type Monitor struct {
	root    string
	ignores []string
	log     *slog.Logger

	mu         sync.Mutex
	activity   map[string]*fileState
	modified   map[string]struct{}
	activeFile string

	fw      *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
	started bool
}

// NewMonitor builds a monitor for root. extraIgnores extends the
// built-in ignore set. Monitoring does not begin until Start.
func NewMonitor(root string, extraIgnores []string, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		root:     root,
		ignores:  append(append([]string{}, defaultIgnores...), extraIgnores...),
		log:      logger,
		activity: make(map[string]*fileState),
		modified: make(map[string]struct{}),
	}
}

// Start begins watching the tree rooted at the monitor's root,
// including subdirectories. Calling Start twice is a no-op.
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := m.addTree(fw, m.root); err != nil {
		fw.Close()
		return err
	}

	m.fw = fw
	m.done = make(chan struct{})
	m.started = true
	m.wg.Add(1)
	go m.run()

	m.log.Debug("file monitoring started", "root", m.root)
	return nil
}

// Stop halts monitoring. Accumulated activity remains readable.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.started = false
	close(m.done)
	fw := m.fw
	m.mu.Unlock()

	fw.Close()
	m.wg.Wait()
	m.log.Debug("file monitoring stopped", "root", m.root)
}

// addTree registers fw on dir and every non-ignored subdirectory.
func (m *Monitor) addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtrees are skipped, not fatal
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && m.ignored(path) {
			return filepath.SkipDir
		}
		if addErr := fw.Add(path); addErr != nil {
			m.log.Debug("cannot watch directory", "path", path, "error", addErr)
		}
		return nil
	})
}

func (m *Monitor) run() {
	defer m.wg.Done()
	for {
		select {
		case ev, ok := <-m.fw.Events:
			if !ok {
				return
			}
			m.handle(ev)
		case err, ok := <-m.fw.Errors:
			if !ok {
				return
			}
			m.log.Debug("watch error", "error", err)
		case <-m.done:
			return
		}
	}
}

func (m *Monitor) handle(ev fsnotify.Event) {
	if m.ignored(ev.Name) {
		return
	}

	// New directories join the watch so the tree stays covered.
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			m.mu.Lock()
			fw := m.fw
			m.mu.Unlock()
			if fw != nil {
				m.addTree(fw, ev.Name)
			}
			return
		}
	}

	now := time.Now()
	rel, err := filepath.Rel(m.root, ev.Name)
	if err != nil {
		rel = ev.Name
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create):
		st := m.activity[rel]
		if st == nil {
			st = &fileState{}
			m.activity[rel] = st
		}
		st.touch(now)
		st.editCount++
		m.modified[rel] = struct{}{}
		m.activeFile = rel
		m.pruneStale(now)
	case ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename):
		delete(m.activity, rel)
		delete(m.modified, rel)
		if m.activeFile == rel {
			m.activeFile = ""
		}
	}
}

// pruneStale drops scores idle past staleAfter. Caller holds the lock.
func (m *Monitor) pruneStale(now time.Time) {
	for path, st := range m.activity {
		if now.Sub(st.lastAccess) > staleAfter {
			delete(m.activity, path)
		}
	}
}

func (m *Monitor) ignored(path string) bool {
	for _, frag := range m.ignores {
		for _, part := range strings.Split(filepath.ToSlash(path), "/") {
			if part == frag {
				return true
			}
		}
	}
	return false
}

// ActiveFile returns the most recently written file, relative to root,
// or "" when nothing has been written yet.
func (m *Monitor) ActiveFile() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeFile
}

// ModifiedFiles returns the set of files written since the last
// ClearHistory, in no particular order.
func (m *Monitor) ModifiedFiles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.modified))
	for path := range m.modified {
		out = append(out, path)
	}
	return out
}

// ActiveFiles returns up to limit files ranked by edit count, then time
// spent.
func (m *Monitor) ActiveFiles(limit int) []FileActivity {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]FileActivity, 0, len(m.activity))
	for path, st := range m.activity {
		out = append(out, FileActivity{
			Path:        path,
			EditCount:   st.editCount,
			AccessCount: st.accessCount,
			TimeSpent:   st.timeSpent,
			LastAccess:  st.lastAccess,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].EditCount != out[j].EditCount {
			return out[i].EditCount > out[j].EditCount
		}
		return out[i].TimeSpent > out[j].TimeSpent
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ClearHistory resets all tracked activity.
func (m *Monitor) ClearHistory() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activity = make(map[string]*fileState)
	m.modified = make(map[string]struct{})
	m.activeFile = ""
}
