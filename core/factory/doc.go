// Package factory builds pluggable components by name. Configuration names a
// module type and carries its settings as a raw map, which the registered
// factory decodes into its own typed struct with Decode.
//
// Metrics sinks are built this way:
//
//	sinks := factory.NewRegistry[metrics.MetricsSink]()
//	_ = sinks.Register("influx", func(conf map[string]any) (metrics.MetricsSink, error) {
//		var c InfluxConfig
//		if err := factory.Decode(conf, &c); err != nil {
//			return nil, err
//		}
//		return NewInfluxSink(c)
//	})
//	sink, err := sinks.Create(factory.ModuleConfig{
//		Type: "influx",
//		Conf: map[string]any{"url": "http://influx:8086", "bucket": "mesh"},
//	})
package factory
