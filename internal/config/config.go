// Package config loads and validates the optional .runbook YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for executor configuration.
const (
	DefaultTimeout   = 300 * time.Second
	DefaultShell     = "sh"
	DefaultMaxOutput = 1 << 20 // 1 MB per command
)

// Config holds the parsed .runbook configuration.
// All fields are optional; zero values represent defaults.
type Config struct {
	Version      int      `yaml:"version"`
	RawTimeout   string   `yaml:"timeout"`    // e.g. "5m", "30s"
	RawShell     string   `yaml:"shell"`      // interpreter binary, default sh
	RawMaxOutput int      `yaml:"max_output"` // bytes per command
	DenyPatterns []string `yaml:"deny"`       // extra regexp deny patterns
	History      History  `yaml:"history"`
	NoColor      bool     `yaml:"no_color"` // disable console colour markers
}

// History controls where batch runs are recorded.
type History struct {
	Path     string `yaml:"path"`     // SQLite database path
	Disabled bool   `yaml:"disabled"` // skip recording entirely
}

// Timeout returns the configured batch budget or the default.
func (c *Config) Timeout() time.Duration {
	if c.RawTimeout != "" {
		d, err := time.ParseDuration(c.RawTimeout)
		if err == nil && d > 0 {
			return d
		}
	}
	return DefaultTimeout
}

// Shell returns the configured interpreter or the default.
func (c *Config) Shell() string {
	if c.RawShell != "" {
		return c.RawShell
	}
	return DefaultShell
}

// MaxOutputBytes returns the configured per-command output cap or the default.
func (c *Config) MaxOutputBytes() int {
	if c.RawMaxOutput > 0 {
		return c.RawMaxOutput
	}
	return DefaultMaxOutput
}

// HistoryPath returns the configured database path or a per-user default.
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "runbook", "history.db")
}

// Load reads the .runbook file from dir. A missing file yields a default
// Config; a malformed file is an error.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ".runbook")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading .runbook: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing .runbook: %w", err)
	}
	return cfg, nil
}
