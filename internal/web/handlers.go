package web

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/recaplabs/recap/internal/capsule"
	"github.com/recaplabs/recap/internal/config"
	"github.com/recaplabs/recap/internal/digest"
	"github.com/recaplabs/recap/internal/errors"
	"github.com/recaplabs/recap/internal/store"
)

// Handlers contains HTTP route handlers for the viewer.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	renderer *Renderer
}

// HandleList handles GET /snapshots — list captured snapshots.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", h.cfg.HistoryLimit)

	entries, err := store.List(h.db, limit)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, "list", ListPageData{
		PageData: PageData{
			Title:   "Snapshots",
			Version: h.renderer.version,
		},
		Entries: entries,
		Limit:   limit,
	})
}

// HandleDetail handles GET /snapshots/{id} — view a single snapshot.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("snapshot ID is required"))
		return
	}

	snap, err := store.Load(h.db, id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, "detail", DetailPageData{
		PageData: PageData{
			Title:   displayName(snap),
			Version: h.renderer.version,
		},
		Snapshot:     snap,
		RenderedHTML: renderMarkdown(detailMarkdown(snap)),
		DisplayName:  displayName(snap),
	})
}

// detailMarkdown assembles the markdown body for a snapshot detail page:
// summary, next steps, then the context digest in a fenced block so its
// indentation survives rendering.
func detailMarkdown(snap *capsule.Capsule) string {
	var b strings.Builder

	if snap.Context.Summary != "" {
		fmt.Fprintf(&b, "%s\n", snap.Context.Summary)
	}

	if len(snap.Context.NextSteps) > 0 {
		b.WriteString("\n## Next steps\n\n")
		for _, step := range snap.Context.NextSteps {
			fmt.Fprintf(&b, "- %s\n", step)
		}
	}

	b.WriteString("\n## Context digest\n\n```\n")
	b.WriteString(digest.Build(&snap.Context, snap.Project.Branch))
	b.WriteString("\n```\n")

	return b.String()
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// displayName returns the snapshot's project name with a truncated id.
func displayName(snap *capsule.Capsule) string {
	id := snap.Metadata.SessionID
	if len(id) > 10 {
		id = id[:10]
	}
	if snap.Project.Name == "" {
		return id
	}
	return fmt.Sprintf("%s (%s)", snap.Project.Name, id)
}
