package plugins

import (
	"path/filepath"
	"testing"

	"github.com/kilianp07/meshcast/config"
	dispatchlog "github.com/kilianp07/meshcast/core/dispatch/logging"
)

func TestOpenLogStoreBackends(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name string
		cfg  config.DispatchLogConfig
		ok   func(dispatchlog.LogStore) bool
	}{
		{"jsonl", config.DispatchLogConfig{Backend: "jsonl", Path: filepath.Join(dir, "a.log")},
			func(s dispatchlog.LogStore) bool { j, ok := s.(*dispatchlog.JSONLStore); return ok && !j.Rotating() }},
		{"rotating", config.DispatchLogConfig{Backend: "jsonl", Path: filepath.Join(dir, "b.log"), MaxSizeMB: 1},
			func(s dispatchlog.LogStore) bool { j, ok := s.(*dispatchlog.JSONLStore); return ok && j.Rotating() }},
		{"sqlite", config.DispatchLogConfig{Backend: "sqlite", Path: filepath.Join(dir, "c.db")},
			func(s dispatchlog.LogStore) bool { _, ok := s.(*dispatchlog.SQLiteStore); return ok }},
		{"none", config.DispatchLogConfig{Backend: "none"},
			func(s dispatchlog.LogStore) bool { _, ok := s.(dispatchlog.NopStore); return ok }},
	}
	for _, c := range cases {
		s, err := OpenLogStore(c.cfg)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if !c.ok(s) {
			t.Fatalf("%s: unexpected store %T", c.name, s)
		}
		_ = s.Close()
	}
}

func TestOpenLogStoreUnknown(t *testing.T) {
	if _, err := OpenLogStore(config.DispatchLogConfig{Backend: "kafka"}); err == nil {
		t.Fatalf("expected unknown backend error")
	}
}
