package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds application configuration.
type Config struct {
	// Model is the Gemini model used for summaries.
	Model string `json:"model"`

	// RetentionDays is how long captured capsules are kept before
	// cleanup removes them.
	RetentionDays int `json:"retention_days"`

	// MaxFilesToAnalyze bounds how many changed files a capture
	// inspects in depth.
	MaxFilesToAnalyze int `json:"max_files_to_analyze"`

	// HistoryLimit is the default number of entries shown by history
	// views.
	HistoryLimit int `json:"history_limit"`

	// WebPort is the default port for the local capsule viewer.
	WebPort int `json:"web_port"`

	// IgnorePatterns extends the built-in ignore set used by file
	// monitoring and TODO scanning (directory or fragment names).
	IgnorePatterns []string `json:"ignore_patterns,omitempty"`

	// DisableAI forces the rule-based summarizer even when a
	// credential is present.
	DisableAI bool `json:"disable_ai,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is locked" errors).
	// 0 means use sql.DB default (unlimited). Only set if you experience contention.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Model:             "gemini-2.5-flash",
		RetentionDays:     7,
		MaxFilesToAnalyze: 50,
		HistoryLimit:      10,
		WebPort:           8722,
	}
}

// APIKey reads the model credential from the environment. Empty means
// the rule-based summarizer runs instead.
func APIKey() string {
	return strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
}

// BaseDir returns the global recap directory, ~/.recap by default.
// RECAP_HOME overrides it, which tests and sandboxes rely on.
func BaseDir() (string, error) {
	if dir := os.Getenv("RECAP_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".recap"), nil
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.recap.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.recap) and repo (.recap) directories.
// Repo config is found by walking upward from startDir to find the nearest .recap/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	// Walk upward from startDir to find repo config
	repoConfigPath := FindRepoConfig(startDir)
	repo, err := loadFileRaw(repoConfigPath)
	if err != nil {
		return nil, err
	}

	// Apply defaults, then global, then repo
	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .recap/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".recap", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root, not found
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// File doesn't exist, return zero config
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.Model = overlay.Model
	if result.Model == "" {
		result.Model = base.Model
	}

	result.RetentionDays = overlay.RetentionDays
	if result.RetentionDays == 0 {
		result.RetentionDays = base.RetentionDays
	}

	result.MaxFilesToAnalyze = overlay.MaxFilesToAnalyze
	if result.MaxFilesToAnalyze == 0 {
		result.MaxFilesToAnalyze = base.MaxFilesToAnalyze
	}

	result.HistoryLimit = overlay.HistoryLimit
	if result.HistoryLimit == 0 {
		result.HistoryLimit = base.HistoryLimit
	}

	result.WebPort = overlay.WebPort
	if result.WebPort == 0 {
		result.WebPort = base.WebPort
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	// Booleans: overlay wins if true, else base
	result.DisableAI = base.DisableAI || overlay.DisableAI

	// Arrays: merge and deduplicate
	result.IgnorePatterns = mergeStringSlice(base.IgnorePatterns, overlay.IgnorePatterns)

	return result
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
