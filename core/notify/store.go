package notify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store persists the ledger as a key to ISO-8601 timestamp mapping. Load on a
// store that holds nothing yet returns an empty map and no error.
type Store interface {
	Load(ctx context.Context) (map[string]string, error)
	Save(ctx context.Context, entries map[string]string) error
	Reset(ctx context.Context) error
	Close() error
}

// Config selects and tunes the ledger backend.
type Config struct {
	Driver           string `json:"driver"`
	Path             string `json:"path"`
	RetentionDays    int    `json:"retention_days"`
	ToleranceMinutes int    `json:"tolerance_minutes"`
}

// SetDefaults fills empty fields.
func (c *Config) SetDefaults() {
	if c.Driver == "" {
		c.Driver = "file"
	}
	c.Driver = strings.ToLower(c.Driver)
	if c.Path == "" {
		name := ".meshcore_calendar_state.json"
		if c.Driver == "sqlite" {
			name = ".meshcast_ledger.db"
		}
		if home, err := os.UserHomeDir(); err == nil {
			c.Path = filepath.Join(home, name)
		} else {
			c.Path = name
		}
	}
	if c.RetentionDays == 0 {
		c.RetentionDays = 7
	}
	if c.ToleranceMinutes == 0 {
		c.ToleranceMinutes = 15
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch c.Driver {
	case "file", "sqlite":
	default:
		return fmt.Errorf("ledger: unknown driver %q", c.Driver)
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("ledger: retention_days must be positive")
	}
	if c.ToleranceMinutes < 0 {
		return fmt.Errorf("ledger: tolerance_minutes must be positive")
	}
	return nil
}

// Options converts the configuration into ledger options.
func (c Config) Options(loc *time.Location) Options {
	return Options{
		Retention: time.Duration(c.RetentionDays) * 24 * time.Hour,
		Tolerance: time.Duration(c.ToleranceMinutes) * time.Minute,
		Location:  loc,
	}
}

// OpenStore opens the configured backend.
func OpenStore(c Config) (Store, error) {
	switch c.Driver {
	case "", "file":
		return NewFileStore(c.Path), nil
	case "sqlite":
		return NewSQLiteStore(c.Path)
	default:
		return nil, fmt.Errorf("ledger: unknown driver %q", c.Driver)
	}
}
