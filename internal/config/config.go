package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	LogDir  string `toml:"log_dir"`
	DataDir string `toml:"data_dir"`
}

// Catalog contains configuration for the storefront feed.
type Catalog struct {
	// BaseURL hosts the appdetails metadata API.
	BaseURL string `toml:"base_url"`
	// StoreURL hosts the search listing page and the public item pages.
	StoreURL          string  `toml:"store_url"`
	SortOrder         string  `toml:"sort_order"`
	FilterTag         string  `toml:"filter_tag"`
	Country           string  `toml:"country"`
	Language          string  `toml:"language"`
	UserAgent         string  `toml:"user_agent"`
	RequestTimeout    int     `toml:"request_timeout"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// Channels maps each announcement category to a webhook URL.
type Channels struct {
	Demo        string `toml:"demo"`
	Coop        string `toml:"coop"`
	Multiplayer string `toml:"multiplayer"`
	Solo        string `toml:"solo"`
}

// Dispatch contains configuration for announcement delivery.
type Dispatch struct {
	MediaMode        string `toml:"media_mode"`
	ItemDelaySeconds int    `toml:"item_delay_seconds"`
	MaxScreenshots   int    `toml:"max_screenshots"`
	RequestTimeout   int    `toml:"request_timeout"`
	Username         string `toml:"username"`
}

// Schedule contains configuration for pass timing.
type Schedule struct {
	PollIntervalMinutes int  `toml:"poll_interval_minutes"`
	RunOnStart          bool `toml:"run_on_start"`
}

// Ledger contains configuration for the announced-item store.
type Ledger struct {
	Driver string `toml:"driver"`
	Path   string `toml:"path"`
	DSN    string `toml:"dsn"`
}

// Notifications contains configuration for ntfy operator alerts.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	PassFailures   bool   `toml:"pass_failures"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for releasewatch.
//
// Configuration sections by subsystem:
//   - Paths: log and data directories
//   - Catalog: storefront endpoints, query, and request pacing
//   - Channels: webhook destination per category
//   - Dispatch: media mode, inter-item delay, and webhook timeouts
//   - Schedule: poll interval
//   - Ledger: announced-item storage backend
//   - Notifications: ntfy operator alerts
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Catalog       Catalog       `toml:"catalog"`
	Channels      Channels      `toml:"channels"`
	Dispatch      Dispatch      `toml:"dispatch"`
	Schedule      Schedule      `toml:"schedule"`
	Ledger        Ledger        `toml:"ledger"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg, resolvedPath, exists, err := decode(path)
	if err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return cfg, resolvedPath, exists, nil
}

// decode reads and normalizes a configuration without validating it.
func decode(path string) (*Config, string, bool, error) {
	loadDotEnv()
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

// loadDotEnv pulls secrets from .env files in the working directory. Values
// already present in the environment win.
func loadDotEnv() {
	for _, name := range []string{".env.local", ".env"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		_ = godotenv.Load(name)
	}
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("releasewatch.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.DataDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Ledger.Driver == LedgerDriverSQLite && strings.TrimSpace(c.Ledger.Path) != "" {
		if err := os.MkdirAll(filepath.Dir(c.Ledger.Path), 0o755); err != nil {
			return fmt.Errorf("create ledger directory: %w", err)
		}
	}
	return nil
}

// Channel returns the webhook configured for a category name such as "demo".
// Unknown names and unset channels return an empty string.
func (c *Config) Channel(category string) string {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "demo":
		return c.Channels.Demo
	case "coop":
		return c.Channels.Coop
	case "multiplayer":
		return c.Channels.Multiplayer
	case "solo":
		return c.Channels.Solo
	default:
		return ""
	}
}

// ThreadMode reports whether media is delivered as follow-ups in a thread.
func (c *Config) ThreadMode() bool {
	return c.Dispatch.MediaMode == MediaModeThread
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
