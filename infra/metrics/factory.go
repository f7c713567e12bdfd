package metrics

import (
	"github.com/kilianp07/meshcast/core/factory"
	coremetrics "github.com/kilianp07/meshcast/core/metrics"
)

// Sink types accepted in metrics.sinks[].type.
const (
	SinkNop        = "nop"
	SinkPrometheus = "prometheus"
	SinkInflux     = "influx"
)

// decoded adapts a typed constructor to a factory that reads its settings
// from the raw sink conf.
func decoded[C any](build func(C) (coremetrics.MetricsSink, error)) factory.Factory[coremetrics.MetricsSink] {
	return func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c C
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return build(c)
	}
}

func mustRegister(name string, f factory.Factory[coremetrics.MetricsSink]) {
	if err := coremetrics.RegisterMetricsSink(name, f); err != nil {
		panic(err)
	}
}

func init() {
	mustRegister(SinkNop, func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})
	mustRegister(SinkPrometheus, decoded(func(c PromConfig) (coremetrics.MetricsSink, error) {
		return NewPromSink(c)
	}))
	mustRegister(SinkInflux, decoded(func(c InfluxConfig) (coremetrics.MetricsSink, error) {
		return NewInfluxSinkWithFallback(c), nil
	}))
}
