package metrics

import (
	"context"
	"time"
)

// DispatchEvent describes the outcome of one message.
type DispatchEvent struct {
	RunID      string
	ChannelKey string
	Slot       int
	Label      string
	Status     string
	Bytes      int
	Latency    time.Duration
	Error      string
	Time       time.Time
}

// MetricsSink records dispatch outcomes.
type MetricsSink interface {
	RecordDispatch(ev DispatchEvent) error
}

// ResolutionEvent describes one channel lookup on the device.
type ResolutionEvent struct {
	RunID      string
	ChannelKey string
	Slot       int
	Found      bool
	Time       time.Time
}

// ResolutionRecorder records channel lookups.
type ResolutionRecorder interface {
	RecordResolution(ev ResolutionEvent) error
}

// Flusher is implemented by sinks that buffer or push at the end of a run.
type Flusher interface {
	Flush(ctx context.Context) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordDispatch(DispatchEvent) error     { return nil }
func (NopSink) RecordResolution(ResolutionEvent) error { return nil }
func (NopSink) Flush(context.Context) error            { return nil }
