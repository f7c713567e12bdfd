package monitoring

import (
	"testing"

	"github.com/kilianp07/meshcast/config"
	coremon "github.com/kilianp07/meshcast/core/monitoring"
)

func TestNewSentryMonitorWithoutDSN(t *testing.T) {
	mon, err := NewSentryMonitor(config.SentryConfig{})
	if err != nil {
		t.Fatalf("monitor: %v", err)
	}
	if _, ok := mon.(coremon.NopMonitor); !ok {
		t.Fatalf("expected NopMonitor, got %T", mon)
	}
}

func TestNewSentryMonitorBadDSN(t *testing.T) {
	if _, err := NewSentryMonitor(config.SentryConfig{DSN: "::not a dsn"}); err == nil {
		t.Fatalf("expected dsn error")
	}
}
