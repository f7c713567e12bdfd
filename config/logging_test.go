package config

import "testing"

func TestDispatchLogConfigDefaults(t *testing.T) {
	var c DispatchLogConfig
	c.SetDefaults()
	if c.Backend != "jsonl" || c.Path != "meshcast-dispatch.log" {
		t.Fatalf("defaults not applied: %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	none := DispatchLogConfig{Backend: "NONE"}
	none.SetDefaults()
	if err := none.Validate(); err != nil {
		t.Fatalf("none backend: %v", err)
	}
	bad := DispatchLogConfig{Backend: "jsonl", Path: "x", MaxSizeMB: -1}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected negative rotation error")
	}
}

func TestLogConfigValidate(t *testing.T) {
	if err := (LogConfig{Level: "warn"}).Validate(); err != nil {
		t.Fatalf("warn: %v", err)
	}
	if err := (LogConfig{Level: "loud"}).Validate(); err == nil {
		t.Fatalf("expected bad level error")
	}
	if err := (LogConfig{Level: "info", Format: "xml"}).Validate(); err == nil {
		t.Fatalf("expected bad format error")
	}
}

func TestCalendarConfigDefaults(t *testing.T) {
	var c CalendarConfig
	c.SetDefaults()
	if len(c.WindowsHours) != 2 || c.WindowsHours[0] != 24 || c.WindowsHours[1] != 2 {
		t.Fatalf("windows = %v", c.WindowsHours)
	}
	if c.Timeout().Seconds() != 15 || c.DefaultChannel != "public" {
		t.Fatalf("defaults not applied: %+v", c)
	}
	if err := (CalendarConfig{WindowsHours: []int{0}}).Validate(); err == nil {
		t.Fatalf("expected window error")
	}
}
