// Package mcp exposes recap's capture and summarization operations as
// MCP tools over stdio.
package mcp

import (
	"context"
	"database/sql"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/recaplabs/recap/internal/capture"
	"github.com/recaplabs/recap/internal/config"
	"github.com/recaplabs/recap/internal/summarize"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"recap_capture": {
		def:     captureToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCapture },
	},
	"recap_summary": {
		def:     summaryToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSummary },
	},
	"recap_next_steps": {
		def:     nextStepsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNextSteps },
	},
	"recap_explain": {
		def:     explainToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExplain },
	},
	"recap_history": {
		def:     historyToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHistory },
	},
	"recap_insights": {
		def:     insightsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleInsights },
	},
	"recap_cleanup": {
		def:     cleanupToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCleanup },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// NewServer creates a new MCP server with recap tools registered.
func NewServer(db *sql.DB, cfg *config.Config, cap *capture.Capture, sum *summarize.Summarizer, root, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"recap",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(db, cfg, cap, sum, root)

	for _, entry := range toolRegistry {
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(db *sql.DB, cfg *config.Config, cap *capture.Capture, sum *summarize.Summarizer, root, version string) error {
	s := NewServer(db, cfg, cap, sum, root, version)
	return server.ServeStdio(s)
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
