package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/recaplabs/recap/internal/capture"
	"github.com/recaplabs/recap/internal/config"
	"github.com/recaplabs/recap/internal/gitx"
	"github.com/recaplabs/recap/internal/mcp"
	"github.com/recaplabs/recap/internal/store"
	"github.com/recaplabs/recap/internal/summarize"
	"github.com/recaplabs/recap/internal/todoscan"
	"github.com/recaplabs/recap/internal/watch"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// appEnv carries the wired dependencies shared by every command.
type appEnv struct {
	db   *sql.DB
	cfg  *config.Config
	root string
	cap  *capture.Capture
	sum  *summarize.Summarizer
	git  *gitx.Client // nil when root is not a repository
	log  *slog.Logger
}

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"capture": true, "status": true, "history": true,
	"summary": true, "next": true, "why": true,
	"insights": true, "cleanup": true, "web": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → MCP server
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   _ __ ___  ___ __ _ _ __
  | '__/ _ \/ __/ _' | '_ \
  | | |  __/ (_| (_| | |_) |
  |_|  \___|\___\__,_| .__/
                     |_|

  Development context capture

  Usage: recap <command> [options]
         recap --help

  MCP server mode requires piped input.`)
}

// buildEnv wires the full dependency stack for the current directory.
func buildEnv() (*appEnv, error) {
	// .env is optional; used for GEMINI_API_KEY during development.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	baseDir, err := config.BaseDir()
	if err != nil {
		return nil, fmt.Errorf("could not determine base directory: %w", err)
	}

	root, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("could not determine working directory: %w", err)
	}

	cfg, err := config.LoadWithRepo(baseDir, root)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	database, err := store.Init(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	store.ConfigurePool(database, cfg)

	// Not every directory is a repository; capture still works without.
	git, err := gitx.NewClient(root)
	if err != nil {
		git = nil
	}

	var gitSrc capture.GitSource
	if git != nil {
		gitSrc = git
	}

	monitor := watch.NewMonitor(root, cfg.IgnorePatterns, logger)
	scanner := todoscan.NewScanner(root)
	cap := capture.New(root, cfg, gitSrc, scanner, monitor, logger)

	sum := summarize.New(newModelClient(cfg, logger), logger)

	return &appEnv{
		db:   database,
		cfg:  cfg,
		root: root,
		cap:  cap,
		sum:  sum,
		git:  git,
		log:  logger,
	}, nil
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before wiring dependencies
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	env, err := buildEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer env.db.Close()

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(env)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'recap --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default). Live file tracking runs for the
	// lifetime of the server so captures see real activity.
	if err := env.cap.StartMonitoring(); err != nil {
		env.log.Warn("file monitoring unavailable", "error", err)
	}
	defer env.cap.StopMonitoring()

	if err := mcp.Run(env.db, env.cfg, env.cap, env.sum, env.root, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
