package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/meshcast/auth"
)

// CalendarConfig configures the calendar reminder job.
type CalendarConfig struct {
	// EventsURL is an http(s) URL or a local path to the events CSV.
	EventsURL      string  `json:"events_url"`
	WindowsHours   []int   `json:"windows_hours"`
	TimeoutSeconds float64 `json:"timeout_seconds"`
	DefaultChannel string  `json:"default_channel"`
	// Cron schedules the job for the schedule command.
	Cron string `json:"cron"`
	// Auth authenticates remote fetches of EventsURL.
	Auth auth.Conf `json:"auth"`
}

// SetDefaults fills unset fields.
func (c *CalendarConfig) SetDefaults() {
	if len(c.WindowsHours) == 0 {
		c.WindowsHours = []int{24, 2}
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 15
	}
	if c.DefaultChannel == "" {
		c.DefaultChannel = "public"
	}
	if c.Cron == "" {
		c.Cron = "*/15 * * * *"
	}
}

// Validate checks the settings.
func (c CalendarConfig) Validate() error {
	for _, h := range c.WindowsHours {
		if h <= 0 {
			return fmt.Errorf("calendar: window %dh must be positive", h)
		}
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("calendar: %w", err)
	}
	return nil
}

// Timeout bounds the CSV fetch.
func (c CalendarConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds * float64(time.Second))
}
