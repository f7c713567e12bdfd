package config

import (
	"fmt"
	"time"
	// Embedded zone database so configured time zones resolve on hosts
	// without one.
	_ "time/tzdata"

	"github.com/kilianp07/meshcast/core/dispatch"
	"github.com/kilianp07/meshcast/core/model"
)

// BroadcastConfig tunes message building and dispatch.
type BroadcastConfig struct {
	DelaySeconds float64 `json:"delay_seconds"`
	MaxBytes     int     `json:"max_bytes"`
	// Timezone renders event times and interprets naive timestamps.
	Timezone string `json:"timezone"`
	// DefaultChannel is used when a command names no channel. Empty selects
	// the first configured channel.
	DefaultChannel string `json:"default_channel"`
}

// SetDefaults fills unset fields.
func (c *BroadcastConfig) SetDefaults() {
	if c.DelaySeconds == 0 {
		c.DelaySeconds = 5
	}
	if c.MaxBytes == 0 {
		c.MaxBytes = model.MaxMessageBytes
	}
	if c.Timezone == "" {
		c.Timezone = "America/Los_Angeles"
	}
}

// Validate checks the settings.
func (c BroadcastConfig) Validate() error {
	if err := c.Dispatch().Validate(); err != nil {
		return err
	}
	if c.MaxBytes > model.MaxMessageBytes {
		return fmt.Errorf("broadcast: max_bytes %d exceeds %d", c.MaxBytes, model.MaxMessageBytes)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("broadcast: bad timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Location loads the configured time zone, falling back to local time.
func (c BroadcastConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Dispatch converts the settings to dispatcher configuration.
func (c BroadcastConfig) Dispatch() dispatch.Config {
	return dispatch.Config{DelaySeconds: c.DelaySeconds, MaxBytes: c.MaxBytes}
}
