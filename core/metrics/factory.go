package metrics

import (
	"fmt"

	"github.com/kilianp07/meshcast/core/factory"
)

// Config lists the sinks a broadcast run reports to. An empty list disables
// reporting.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
}

var sinks = factory.NewRegistry[MetricsSink]()

// RegisterMetricsSink makes a sink type available to NewMetricsSink.
func RegisterMetricsSink(name string, f factory.Factory[MetricsSink]) error {
	return sinks.Register(name, f)
}

// SinkTypes lists the registered sink types.
func SinkTypes() []string { return sinks.Names() }

// NewMetricsSink builds every configured sink. NopSink entries are dropped
// and several live sinks are combined into a MultiSink.
func NewMetricsSink(cfgs []factory.ModuleConfig) (MetricsSink, error) {
	live := make([]MetricsSink, 0, len(cfgs))
	for i, c := range cfgs {
		s, err := sinks.Create(c)
		if err != nil {
			return nil, fmt.Errorf("metrics sink %d (%s): %w", i, c.Type, err)
		}
		if _, nop := s.(NopSink); nop {
			continue
		}
		live = append(live, s)
	}
	switch len(live) {
	case 0:
		return NopSink{}, nil
	case 1:
		return live[0], nil
	default:
		return NewMultiSink(live...), nil
	}
}
