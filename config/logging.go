package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// DispatchLogConfig defines settings for dispatch log storage and rotation.
type DispatchLogConfig struct {
	// Backend selects the log store type: "jsonl", "sqlite" or "none".
	Backend string `json:"backend"`
	// Path is the file location of the log store.
	Path string `json:"path"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	// Zero disables rotation.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *DispatchLogConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	c.Backend = strings.ToLower(c.Backend)
	if c.Path == "" {
		c.Path = "meshcast-dispatch.log"
		if c.Backend == "sqlite" {
			c.Path = "meshcast-dispatch.db"
		}
	}
}

// Validate checks mandatory fields.
func (c DispatchLogConfig) Validate() error {
	switch c.Backend {
	case "jsonl", "sqlite", "none":
	default:
		return fmt.Errorf("dispatch_log: unknown backend %q", c.Backend)
	}
	if c.Backend != "none" && c.Path == "" {
		return fmt.Errorf("dispatch_log: path is required")
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("dispatch_log: rotation settings must not be negative")
	}
	return nil
}

// LogConfig selects the application log level and output format.
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// SetDefaults applies defaults.
func (c *LogConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "console"
	}
}

// Validate checks the level and format names.
func (c LogConfig) Validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Level)); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	switch strings.ToLower(c.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("log: unknown format %q", c.Format)
	}
	return nil
}
