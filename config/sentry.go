package config

import "fmt"

// SentryConfig controls error reporting. Reporting is off while DSN is empty.
type SentryConfig struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	Release          string  `json:"release"`
}

func (c SentryConfig) Enabled() bool { return c.DSN != "" }

func (c *SentryConfig) SetDefaults() {
	if c.Enabled() && c.Environment == "" {
		c.Environment = "production"
	}
}

func (c SentryConfig) Validate() error {
	if c.TracesSampleRate < 0 || c.TracesSampleRate > 1 {
		return fmt.Errorf("sentry: traces_sample_rate %v outside [0,1]", c.TracesSampleRate)
	}
	return nil
}
