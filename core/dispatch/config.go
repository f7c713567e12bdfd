package dispatch

import (
	"fmt"
	"time"
)

// Config defines dispatch-related settings.
type Config struct {
	// DelaySeconds separates successive sends.
	DelaySeconds float64 `json:"delay_seconds"`
	// MaxBytes is the per-message byte budget.
	MaxBytes int `json:"max_bytes"`
}

// Delay returns the inter-message delay.
func (c Config) Delay() time.Duration {
	return time.Duration(c.DelaySeconds * float64(time.Second))
}

// Validate checks the settings.
func (c Config) Validate() error {
	if c.DelaySeconds < 0 {
		return fmt.Errorf("dispatch: delay_seconds must not be negative")
	}
	if c.MaxBytes < 0 {
		return fmt.Errorf("dispatch: max_bytes must not be negative")
	}
	return nil
}
