package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/recaplabs/recap/internal/capsule"
	"github.com/recaplabs/recap/internal/config"
	"github.com/recaplabs/recap/internal/errors"
	"github.com/recaplabs/recap/internal/llm"
	"github.com/recaplabs/recap/internal/store"
	"github.com/recaplabs/recap/internal/web"
)

// newModelClient builds the Gemini client when AI is enabled and a key
// is present. Any failure degrades to the rule-based fallback.
func newModelClient(cfg *config.Config, logger *slog.Logger) llm.Client {
	if cfg.DisableAI {
		logger.Info("AI summaries disabled by config")
		return nil
	}
	key := config.APIKey()
	if key == "" {
		return nil
	}
	client, err := llm.NewGeminiClient(context.Background(), key, cfg.Model)
	if err != nil {
		logger.Warn("model client unavailable, using rule-based summaries", "error", err)
		return nil
	}
	return client
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(env *appEnv) *cli.App {
	app := &cli.App{
		Name:    "recap",
		Usage:   "Development context capture",
		Version: Version,
		Commands: []*cli.Command{
			captureCmd(env),
			statusCmd(env),
			historyCmd(env),
			summaryCmd(env),
			nextCmd(env),
			whyCmd(env),
			insightsCmd(env),
			cleanupCmd(env),
			webCmd(env),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// captureCmd creates the capture command.
func captureCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "capture",
		Usage: "Capture the current development context and persist a snapshot",
		Action: func(c *cli.Context) error {
			snap, err := env.cap.Snapshot(c.Context)
			if err != nil {
				return outputError(err)
			}

			snap.Context.Summary = env.sum.Summary(c.Context, snap)
			snap.Context.NextSteps = env.sum.NextSteps(c.Context, snap)

			if err := store.Save(env.db, snap); err != nil {
				return outputError(err)
			}

			return outputJSON(map[string]any{
				"session_id":    snap.Metadata.SessionID,
				"summary":       snap.Context.Summary,
				"next_steps":    snap.Context.NextSteps,
				"files_changed": len(snap.Context.ModifiedFiles),
				"todos":         len(snap.Context.Todos),
				"work_type":     workType(snap),
			})
		},
	}
}

// statusCmd creates the status command.
func statusCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the current branch and changed files without persisting",
		Action: func(c *cli.Context) error {
			out := map[string]any{
				"project":     filepath.Base(env.root),
				"ai":          env.sum.AIAvailable(),
				"active_file": env.cap.ActiveFile(),
			}

			if env.git == nil {
				out["repository"] = false
				return outputJSON(out)
			}

			out["repository"] = true
			out["branch"] = env.git.Branch(c.Context)

			changed, err := env.git.ListChangedFiles(c.Context)
			if err != nil {
				return outputError(err)
			}
			files := make([]map[string]any, 0, len(changed))
			for _, f := range changed {
				files = append(files, map[string]any{
					"path":   f.Path,
					"status": f.Status,
				})
			}
			out["changed_files"] = files

			return outputJSON(out)
		},
	}
}

// historyCmd creates the history command.
func historyCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List captured snapshots, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 0, Usage: "Maximum entries to return"},
		},
		Action: func(c *cli.Context) error {
			limit := c.Int("limit")
			if limit <= 0 {
				limit = env.cfg.HistoryLimit
			}
			entries, err := store.List(env.db, limit)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{
				"count":   len(entries),
				"entries": entries,
			})
		},
	}
}

// summaryCmd creates the summary command.
func summaryCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "summary",
		Usage:     "Print the summary of a snapshot (latest by default)",
		ArgsUsage: "[id]",
		Action: func(c *cli.Context) error {
			snap, err := loadSnapshot(env, c.Args().First())
			if err != nil {
				return outputError(err)
			}
			summary := snap.Context.Summary
			if summary == "" {
				summary = env.sum.Summary(c.Context, snap)
			}
			return outputJSON(map[string]any{
				"session_id": snap.Metadata.SessionID,
				"summary":    summary,
			})
		},
	}
}

// nextCmd creates the next command.
func nextCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "next",
		Usage:     "Print suggested next steps for a snapshot (latest by default)",
		ArgsUsage: "[id]",
		Action: func(c *cli.Context) error {
			snap, err := loadSnapshot(env, c.Args().First())
			if err != nil {
				return outputError(err)
			}
			steps := snap.Context.NextSteps
			if len(steps) == 0 {
				steps = env.sum.NextSteps(c.Context, snap)
			}
			return outputJSON(map[string]any{
				"session_id": snap.Metadata.SessionID,
				"next_steps": steps,
			})
		},
	}
}

// whyCmd creates the why command.
func whyCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "why",
		Usage:     "Explain what the latest snapshot was about",
		ArgsUsage: "[question]",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "file", Aliases: []string{"f"}, Usage: "Project-relative file whose contents should inform the answer"},
		},
		Action: func(c *cli.Context) error {
			snap, err := loadSnapshot(env, "")
			if err != nil {
				return outputError(err)
			}

			contents := readFileContents(env.root, c.StringSlice("file"))
			answer := env.sum.ExplainWhy(c.Context, snap, c.Args().First(), contents)

			return outputJSON(map[string]any{
				"session_id":  snap.Metadata.SessionID,
				"explanation": answer,
			})
		},
	}
}

// insightsCmd creates the insights command.
func insightsCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "insights",
		Usage: "Show workflow insights from the latest snapshot",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 5, Usage: "Maximum insights to return"},
		},
		Action: func(c *cli.Context) error {
			snap, err := loadSnapshot(env, "")
			if err != nil {
				return outputError(err)
			}
			insights := snap.Context.Insights
			if limit := c.Int("limit"); limit > 0 && len(insights) > limit {
				insights = insights[:limit]
			}
			if insights == nil {
				insights = []capsule.Insight{}
			}
			return outputJSON(map[string]any{
				"count":    len(insights),
				"insights": insights,
			})
		},
	}
}

// cleanupCmd creates the cleanup command.
func cleanupCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "cleanup",
		Usage: "Delete snapshots older than the retention window",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "days", Aliases: []string{"d"}, Value: 0, Usage: "Retention window in days (default from config)"},
		},
		Action: func(c *cli.Context) error {
			days := c.Int("days")
			if days <= 0 {
				days = env.cfg.RetentionDays
			}
			if days <= 0 {
				return outputError(errors.NewInvalidRequest("days must be positive"))
			}
			removed, err := store.CleanupOlderThan(env.db, time.Duration(days)*24*time.Hour)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{
				"removed": removed,
				"days":    days,
			})
		},
	}
}

// webCmd creates the web command.
func webCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Serve the read-only snapshot viewer",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 0, Usage: "Port to listen on (default from config)"},
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
		},
		Action: func(c *cli.Context) error {
			port := c.Int("port")
			if port <= 0 {
				port = env.cfg.WebPort
			}
			srv := web.NewServer(env.db, env.cfg, Version, c.String("bind"), port)
			return web.Run(srv)
		},
	}
}

// Helper functions

// loadSnapshot fetches a stored snapshot by id, or the latest when id
// is empty.
func loadSnapshot(env *appEnv, id string) (*capsule.Capsule, error) {
	if id == "" {
		return store.Latest(env.db)
	}
	return store.Load(env.db, id)
}

// readFileContents reads the requested project-relative files, skipping
// any that cannot be read.
func readFileContents(root string, paths []string) map[string]string {
	if len(paths) == 0 {
		return nil
	}
	contents := make(map[string]string, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(filepath.Join(root, filepath.Clean(p)))
		if err != nil {
			continue
		}
		contents[p] = string(data)
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

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if rErr, ok := err.(*errors.RecapError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", rErr.Code, rErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
