package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/kilianp07/meshcast/core/factory"
)

type recordSink struct {
	count int
	err   error
}

func (r *recordSink) RecordDispatch(DispatchEvent) error {
	r.count++
	return r.err
}

type fullSink struct {
	recordSink
	resolutions int
	flushed     bool
}

func (f *fullSink) RecordResolution(ResolutionEvent) error { f.resolutions++; return nil }
func (f *fullSink) Flush(context.Context) error            { f.flushed = true; return nil }

// TestMultiSink ensures events are forwarded to all sinks.
func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &fullSink{}
	m := NewMultiSink(s1, nil, s2)
	if err := m.RecordDispatch(DispatchEvent{Status: "sent"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := m.RecordResolution(ResolutionEvent{Found: true}); err != nil {
		t.Fatalf("resolution: %v", err)
	}
	if err := m.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if s1.count != 1 || s2.count != 1 || s2.resolutions != 1 || !s2.flushed {
		t.Fatalf("events not forwarded")
	}
}

func TestMultiSinkJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	m := NewMultiSink(&recordSink{err: boom}, &recordSink{})
	if err := m.RecordDispatch(DispatchEvent{}); !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
}

func TestNewMetricsSink(t *testing.T) {
	if err := RegisterMetricsSink("test-record", func(map[string]any) (MetricsSink, error) {
		return &recordSink{}, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	s, err := NewMetricsSink(nil)
	if err != nil {
		t.Fatalf("empty: %v", err)
	}
	if _, ok := s.(NopSink); !ok {
		t.Fatalf("expected NopSink, got %T", s)
	}
	s, err = NewMetricsSink([]factory.ModuleConfig{{Type: "test-record"}, {Type: "test-record"}})
	if err != nil {
		t.Fatalf("multi: %v", err)
	}
	if _, ok := s.(*MultiSink); !ok {
		t.Fatalf("expected MultiSink, got %T", s)
	}
	if _, err := NewMetricsSink([]factory.ModuleConfig{{Type: "missing"}}); err == nil {
		t.Fatalf("expected unknown sink error")
	}
}

func TestNewMetricsSinkDropsNop(t *testing.T) {
	if err := RegisterMetricsSink("test-nop", func(map[string]any) (MetricsSink, error) {
		return NopSink{}, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := RegisterMetricsSink("test-single", func(map[string]any) (MetricsSink, error) {
		return &recordSink{}, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	s, err := NewMetricsSink([]factory.ModuleConfig{{Type: "test-nop"}, {Type: "test-single"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, ok := s.(*recordSink); !ok {
		t.Fatalf("expected lone recordSink, got %T", s)
	}
	found := false
	for _, n := range SinkTypes() {
		found = found || n == "test-single"
	}
	if !found {
		t.Fatalf("SinkTypes() = %v", SinkTypes())
	}
}
