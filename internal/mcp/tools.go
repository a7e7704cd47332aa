package mcp

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions. Descriptions are the contract an MCP client sees;
// keep them in sync with the handler semantics.

var captureToolDef = mcp.NewTool("recap_capture",
	mcp.WithDescription("Capture the current development context (changed files, diffs, TODOs, activity), summarize it, and persist the snapshot."),
)

var summaryToolDef = mcp.NewTool("recap_summary",
	mcp.WithDescription("Return the one-sentence summary of a captured snapshot. Defaults to the most recent snapshot."),
	mcp.WithString("id",
		mcp.Description("Snapshot session id; omit for the latest"),
	),
)

var nextStepsToolDef = mcp.NewTool("recap_next_steps",
	mcp.WithDescription("Return suggested next steps for a captured snapshot. Defaults to the most recent snapshot."),
	mcp.WithString("id",
		mcp.Description("Snapshot session id; omit for the latest"),
	),
)

var explainToolDef = mcp.NewTool("recap_explain",
	mcp.WithDescription("Explain what was being worked on in the most recent snapshot and why."),
	mcp.WithString("question",
		mcp.Description("Optional question to focus the explanation, e.g. \"why did I change auth.go?\""),
	),
	mcp.WithArray("files",
		mcp.Description("Project-relative file paths whose current contents should inform the answer"),
		mcp.Items(map[string]any{"type": "string"}),
	),
)

var historyToolDef = mcp.NewTool("recap_history",
	mcp.WithDescription("List captured snapshots, newest first."),
	mcp.WithNumber("limit",
		mcp.Description("Maximum entries to return (default 10)"),
	),
)

var insightsToolDef = mcp.NewTool("recap_insights",
	mcp.WithDescription("Return recent workflow insights, highest priority first."),
	mcp.WithNumber("limit",
		mcp.Description("Maximum insights to return (default 5)"),
	),
)

var cleanupToolDef = mcp.NewTool("recap_cleanup",
	mcp.WithDescription("Delete snapshots older than the retention window."),
	mcp.WithNumber("days",
		mcp.Description("Retention window in days (default from config)"),
	),
)
