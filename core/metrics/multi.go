package metrics

import (
	"context"
	"errors"
	"io"
)

// MultiSink forwards every event to all sinks.
type MultiSink struct {
	sinks []MetricsSink
}

// NewMultiSink combines sinks; nil entries are dropped.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

func (m *MultiSink) RecordDispatch(ev DispatchEvent) error {
	var errs []error
	for _, s := range m.sinks {
		errs = append(errs, s.RecordDispatch(ev))
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordResolution(ev ResolutionEvent) error {
	var errs []error
	for _, s := range m.sinks {
		if r, ok := s.(ResolutionRecorder); ok {
			errs = append(errs, r.RecordResolution(ev))
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) Flush(ctx context.Context) error {
	var errs []error
	for _, s := range m.sinks {
		if f, ok := s.(Flusher); ok {
			errs = append(errs, f.Flush(ctx))
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink implementing io.Closer.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if c, ok := s.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
