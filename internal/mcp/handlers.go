package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/recaplabs/recap/internal/capsule"
	"github.com/recaplabs/recap/internal/capture"
	"github.com/recaplabs/recap/internal/config"
	"github.com/recaplabs/recap/internal/errors"
	"github.com/recaplabs/recap/internal/store"
	"github.com/recaplabs/recap/internal/summarize"
)

// maxFileContentChars caps how much of a requested file is fed into an
// explanation prompt.
const maxFileContentChars = 3000

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db   *sql.DB
	cfg  *config.Config
	cap  *capture.Capture
	sum  *summarize.Summarizer
	root string
}

// NewHandlers creates a new Handlers instance. root is the project root
// that recap_explain resolves file paths against.
func NewHandlers(db *sql.DB, cfg *config.Config, cap *capture.Capture, sum *summarize.Summarizer, root string) *Handlers {
	return &Handlers{db: db, cfg: cfg, cap: cap, sum: sum, root: root}
}

// Request types for each tool

// SummaryRequest represents the arguments for summary.
type SummaryRequest struct {
	ID string `json:"id,omitempty"`
}

// NextStepsRequest represents the arguments for next_steps.
type NextStepsRequest struct {
	ID string `json:"id,omitempty"`
}

// ExplainRequest represents the arguments for explain.
type ExplainRequest struct {
	Question string   `json:"question,omitempty"`
	Files    []string `json:"files,omitempty"`
}

// HistoryRequest represents the arguments for history.
type HistoryRequest struct {
	Limit int `json:"limit,omitempty"`
}

// InsightsRequest represents the arguments for insights.
type InsightsRequest struct {
	Limit int `json:"limit,omitempty"`
}

// CleanupRequest represents the arguments for cleanup.
type CleanupRequest struct {
	Days int `json:"days,omitempty"`
}

// Handler implementations

// HandleCapture handles the capture tool call.
func (h *Handlers) HandleCapture(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := h.cap.Snapshot(ctx)
	if err != nil {
		return errorResult(err), nil
	}

	snap.Context.Summary = h.sum.Summary(ctx, snap)
	snap.Context.NextSteps = h.sum.NextSteps(ctx, snap)

	if err := store.Save(h.db, snap); err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{
		"session_id":    snap.Metadata.SessionID,
		"summary":       snap.Context.Summary,
		"files_changed": len(snap.Context.ModifiedFiles),
		"todos":         len(snap.Context.Todos),
		"work_type":     workType(snap),
	})
}

// HandleSummary handles the summary tool call.
func (h *Handlers) HandleSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SummaryRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	snap, err := h.load(input.ID)
	if err != nil {
		return errorResult(err), nil
	}

	summary := snap.Context.Summary
	if summary == "" {
		summary = h.sum.Summary(ctx, snap)
	}

	return successResult(map[string]any{
		"session_id": snap.Metadata.SessionID,
		"summary":    summary,
	})
}

// HandleNextSteps handles the next_steps tool call.
func (h *Handlers) HandleNextSteps(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NextStepsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	snap, err := h.load(input.ID)
	if err != nil {
		return errorResult(err), nil
	}

	steps := snap.Context.NextSteps
	if len(steps) == 0 {
		steps = h.sum.NextSteps(ctx, snap)
	}

	return successResult(map[string]any{
		"session_id": snap.Metadata.SessionID,
		"next_steps": steps,
	})
}

// HandleExplain handles the explain tool call.
func (h *Handlers) HandleExplain(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExplainRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	snap, err := h.load("")
	if err != nil {
		return errorResult(err), nil
	}

	answer := h.sum.ExplainWhy(ctx, snap, input.Question, h.readFiles(input.Files))

	return successResult(map[string]any{
		"session_id":  snap.Metadata.SessionID,
		"explanation": answer,
	})
}

// HandleHistory handles the history tool call.
func (h *Handlers) HandleHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HistoryRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	entries, err := store.List(h.db, input.Limit)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{
		"count":   len(entries),
		"entries": entries,
	})
}

// HandleInsights handles the insights tool call.
func (h *Handlers) HandleInsights(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[InsightsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 5
	}

	insights := h.cap.Insights(limit)
	if len(insights) == 0 {
		// Nothing analyzed in this process yet; fall back to the
		// insights stored with the latest snapshot.
		if snap, err := h.load(""); err == nil {
			insights = snap.Context.Insights
			if len(insights) > limit {
				insights = insights[:limit]
			}
		}
	}
	if insights == nil {
		insights = []capsule.Insight{}
	}

	return successResult(map[string]any{
		"count":    len(insights),
		"insights": insights,
	})
}

// HandleCleanup handles the cleanup tool call.
func (h *Handlers) HandleCleanup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CleanupRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	days := input.Days
	if days <= 0 {
		days = h.cfg.RetentionDays
	}
	if days <= 0 {
		return errorResult(errors.NewInvalidRequest("days must be positive")), nil
	}

	removed, err := store.CleanupOlderThan(h.db, time.Duration(days)*24*time.Hour)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{
		"removed": removed,
		"days":    days,
	})
}

// load fetches a stored snapshot by id, or the latest when id is empty.
func (h *Handlers) load(id string) (*capsule.Capsule, error) {
	if id == "" {
		return store.Latest(h.db)
	}
	return store.Load(h.db, id)
}

// readFiles reads the requested project-relative files, skipping any
// that cannot be read. Contents are capped so one large file cannot
// blow the prompt budget.
func (h *Handlers) readFiles(paths []string) map[string]string {
	if len(paths) == 0 {
		return nil
	}
	contents := make(map[string]string, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(filepath.Join(h.root, filepath.Clean(p)))
		if err != nil {
			continue
		}
		text := string(data)
		if len(text) > maxFileContentChars {
			text = text[:maxFileContentChars]
		}
		contents[p] = text
	}
	if len(contents) == 0 {
		return nil
	}
	return contents
}

func workType(c *capsule.Capsule) string {
	if c.Context.WorkSession == nil {
		return ""
	}
	return c.Context.WorkSession.WorkType
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if rErr, ok := err.(*errors.RecapError); ok {
		errorObj := map[string]any{
			"code":    rErr.Code,
			"message": rErr.Message,
			"status":  rErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if rErr.Code != errors.ErrInternal && rErr.Details != nil {
			errorObj["details"] = rErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
