// Package gitx reads repository state by shelling out to git. Every
// query degrades gracefully on empty or just-initialized repositories:
// callers get empty results, not errors, when there is simply nothing
// there yet.
package gitx

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/recaplabs/recap/internal/capsule"
	recaperr "github.com/recaplabs/recap/internal/errors"
)

// ignoreFragments are artifact paths excluded from change listings.
var ignoreFragments = []string{
	"__pycache__", ".pyc", ".pyo",
	"node_modules/", ".git/", ".recap/",
	".egg-info/", "dist/", "build/",
	".DS_Store", ".pytest_cache/", ".venv/", "venv/",
}

// StagedFile is one staged path with its diff.
type StagedFile struct {
	Path   string
	Status capsule.FileStatus
	Diff   string
}

// Client runs git commands against one repository root.
type Client struct {
	root string
}

// NewClient verifies root is inside a git repository.
func NewClient(root string) (*Client, error) {
	if !IsRepository(root) {
		return nil, recaperr.NewNoRepository(root)
	}
	return &Client{root: root}, nil
}

// IsRepository reports whether path is inside a git work tree.
func IsRepository(path string) bool {
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = path
	return cmd.Run() == nil
}

func (c *Client) Root() string { return c.root }

func (c *Client) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.root
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Branch returns the current branch name, or "" when HEAD is detached
// or the repository has no commits.
func (c *Client) Branch(ctx context.Context) string {
	out, err := c.git(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return ""
	}
	branch := strings.TrimSpace(out)
	if branch == "HEAD" { // detached
		return ""
	}
	return branch
}

// RepoName derives the repository name from the origin URL, falling
// back to the directory name when there is no origin.
func (c *Client) RepoName(ctx context.Context) string {
	out, err := c.git(ctx, "remote", "get-url", "origin")
	if err == nil {
		if name := repoNameFromURL(strings.TrimSpace(out)); name != "" {
			return name
		}
	}
	return filepath.Base(c.root)
}

// repoNameFromURL extracts the repo basename from a remote URL,
// handling both https and scp-style ssh forms.
func repoNameFromURL(url string) string {
	if url == "" {
		return ""
	}
	name := url
	if i := strings.LastIndexAny(name, "/:"); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, ".git")
}

// ListChangedFiles returns staged, unstaged, and untracked files,
// deduplicated in that order. Artifact paths are dropped. An empty
// repository yields an empty slice.
func (c *Client) ListChangedFiles(ctx context.Context) ([]capsule.ModifiedFile, error) {
	var files []capsule.ModifiedFile
	seen := map[string]struct{}{}

	add := func(path string, status capsule.FileStatus) {
		if path == "" || isIgnored(path) {
			return
		}
		if _, dup := seen[path]; dup {
			return
		}
		seen[path] = struct{}{}
		files = append(files, capsule.ModifiedFile{
			Path:         path,
			Status:       status,
			LastModified: c.mtime(path),
		})
	}

	// Staged. Fails on a repo with no commits; treated as empty.
	if out, err := c.git(ctx, "diff", "--cached", "--name-status"); err == nil {
		for _, e := range parseNameStatus(out) {
			add(e.path, e.status)
		}
	}

	// Unstaged.
	if out, err := c.git(ctx, "diff", "--name-status"); err == nil {
		for _, e := range parseNameStatus(out) {
			add(e.path, e.status)
		}
	}

	// Untracked.
	out, err := c.git(ctx, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return files, nil
	}
	for _, path := range strings.Split(strings.TrimSpace(out), "\n") {
		add(strings.TrimSpace(path), capsule.StatusUntracked)
	}

	return files, nil
}

type nameStatus struct {
	path   string
	status capsule.FileStatus
}

// parseNameStatus parses `git diff --name-status` output in order.
// Renames and copies report the destination path.
func parseNameStatus(out string) []nameStatus {
	var result []nameStatus
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}
		e := nameStatus{path: fields[len(fields)-1]}
		switch fields[0][0] {
		case 'A':
			e.status = capsule.StatusAdded
		case 'D':
			e.status = capsule.StatusDeleted
		default:
			e.status = capsule.StatusModified
		}
		result = append(result, e)
	}
	return result
}

func isIgnored(path string) bool {
	for _, frag := range ignoreFragments {
		if strings.Contains(path, frag) {
			return true
		}
	}
	return false
}

func (c *Client) mtime(path string) time.Time {
	info, err := os.Stat(filepath.Join(c.root, path))
	if err != nil {
		return time.Now().UTC()
	}
	return info.ModTime()
}

// DiffFor returns the diff for one file: staged first, then unstaged,
// then a pseudo-diff of the full content for untracked files. Empty
// string when the file has no changes.
func (c *Client) DiffFor(ctx context.Context, path string) (string, error) {
	if out, err := c.git(ctx, "diff", "--cached", "--", path); err == nil && out != "" {
		return capsule.TruncateDiff(out), nil
	}
	if out, err := c.git(ctx, "diff", "--", path); err == nil && out != "" {
		return capsule.TruncateDiff(out), nil
	}
	if c.isUntracked(ctx, path) {
		data, err := os.ReadFile(filepath.Join(c.root, path))
		if err != nil {
			return "", nil
		}
		content := string(data)
		if len(content) > 2000 {
			content = content[:2000]
		}
		return "+++ NEW FILE (untracked) +++\n" + content, nil
	}
	return "", nil
}

func (c *Client) isUntracked(ctx context.Context, path string) bool {
	out, err := c.git(ctx, "ls-files", "--others", "--exclude-standard", "--", path)
	return err == nil && strings.TrimSpace(out) != ""
}

// StagedFilesWithDiffs returns every staged file with its diff. Empty
// repositories and repositories with nothing staged return an empty
// slice.
func (c *Client) StagedFilesWithDiffs(ctx context.Context) ([]StagedFile, error) {
	out, err := c.git(ctx, "diff", "--cached", "--name-status")
	if err != nil {
		return nil, nil
	}

	var staged []StagedFile
	for _, e := range parseNameStatus(out) {
		diff, _ := c.git(ctx, "diff", "--cached", "--", e.path)
		staged = append(staged, StagedFile{
			Path:   e.path,
			Status: e.status,
			Diff:   capsule.TruncateDiff(diff),
		})
	}
	return staged, nil
}

// RecentCommits returns up to limit commits, newest first. Hashes are
// abbreviated to seven characters. A repository without commits
// returns an empty slice.
func (c *Client) RecentCommits(ctx context.Context, limit int) ([]capsule.Commit, error) {
	if limit <= 0 {
		limit = 10
	}
	out, err := c.git(ctx, "log", "-n", strconv.Itoa(limit), "--pretty=format:%h%x1f%s%x1f%an%x1f%aI")
	if err != nil {
		return nil, nil // no commits yet
	}

	var commits []capsule.Commit
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		fields := strings.Split(line, "\x1f")
		if len(fields) != 4 {
			continue
		}
		ts, _ := time.Parse(time.RFC3339, fields[3])
		commits = append(commits, capsule.Commit{
			Hash:      fields[0],
			Message:   fields[1],
			Author:    fields[2],
			Timestamp: ts,
		})
	}
	return commits, nil
}
