// Package config loads the small set of static, process-level tunables
// that are not runtime flags: the index directory override, the
// watcher's debounce window, the freshness window used to decide
// whether init_index should perform a full rebuild, and the log level
// (loaded and validated, but not applied by the CLI).
// Runtime flags (indexed, indexed_files, …) live in the State Store,
// not here.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFreshnessWindowDays is the age, in days, beyond which
// init_index performs a full rebuild instead of trusting the existing
// index.
const DefaultFreshnessWindowDays = 15

// Config holds the static configuration for one project root.
type Config struct {
	// IndexDir overrides where the index and state files are stored.
	// Empty means the default under the project root.
	IndexDir string `yaml:"index_dir"`

	// DebounceWindow is how long the Watcher coalesces rapid events for
	// the same path before applying a mutation.
	DebounceWindow time.Duration `yaml:"debounce_window"`

	// FreshnessWindowDays overrides the hard-coded rebuild-trigger age.
	FreshnessWindowDays int `yaml:"freshness_window_days"`

	// LogLevel is one of debug, info, warn, error. It is loaded and
	// validated, but the CLI does not apply it: the log level comes from
	// the --debug flag.
	LogLevel string `yaml:"log_level"`
}

// defaults returns a Config with the documented hard-coded defaults.
func defaults() *Config {
	return &Config{
		IndexDir:            "",
		DebounceWindow:      200 * time.Millisecond,
		FreshnessWindowDays: DefaultFreshnessWindowDays,
		LogLevel:            "info",
	}
}

// FileName is the static configuration file searched for in a project
// root.
const FileName = ".filesearch.yaml"

// Load reads FileName from dir if present, falling back to defaults,
// then applies FILESEARCH_* environment overrides and validates the
// result.
func Load(dir string) (*Config, error) {
	cfg := defaults()

	path := filepath.Join(dir, FileName)
	if data, err := os.ReadFile(path); err == nil {
		var parsed Config
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg.mergeWith(&parsed)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}
	return cfg, nil
}

// mergeWith overlays non-zero fields of other onto c.
func (c *Config) mergeWith(other *Config) {
	if other.IndexDir != "" {
		c.IndexDir = other.IndexDir
	}
	if other.DebounceWindow != 0 {
		c.DebounceWindow = other.DebounceWindow
	}
	if other.FreshnessWindowDays != 0 {
		c.FreshnessWindowDays = other.FreshnessWindowDays
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}

// applyEnvOverrides applies FILESEARCH_* environment variable
// overrides, taking precedence over both defaults and the file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("FILESEARCH_INDEX_DIR"); v != "" {
		c.IndexDir = v
	}
	if v := os.Getenv("FILESEARCH_DEBOUNCE_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.DebounceWindow = d
		}
	}
	if v := os.Getenv("FILESEARCH_FRESHNESS_WINDOW_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.FreshnessWindowDays = n
		}
	}
	if v := os.Getenv("FILESEARCH_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate checks the configuration for internally consistent values.
func (c *Config) Validate() error {
	if c.DebounceWindow < 0 {
		return fmt.Errorf("debounce_window must be non-negative, got %s", c.DebounceWindow)
	}
	if c.FreshnessWindowDays <= 0 {
		return fmt.Errorf("freshness_window_days must be positive, got %d", c.FreshnessWindowDays)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("log_level must be one of debug, info, warn, error, got %s", c.LogLevel)
	}
	return nil
}

// WriteYAML writes the configuration to path as YAML. `filesearch init`
// does not use it; init writes the embedded example template instead.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
