package metrics

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	coremetrics "github.com/kilianp07/meshcast/core/metrics"
)

// PromConfig configures the Prometheus sink. When Pushgateway is set, Flush
// pushes the collected metrics under Job.
type PromConfig struct {
	Pushgateway string `json:"pushgateway"`
	Job         string `json:"job"`
}

// PromSink records dispatch outcomes in Prometheus collectors.
type PromSink struct {
	messages    *prometheus.CounterVec
	bytes       prometheus.Histogram
	latency     *prometheus.HistogramVec
	resolutions *prometheus.CounterVec

	gatherer prometheus.Gatherer
	pushURL  string
	job      string
}

// NewPromSink registers the collectors on the default Prometheus registry.
func NewPromSink(cfg PromConfig) (*PromSink, error) {
	return newPromSink(cfg, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewPromSinkWithRegistry registers the collectors on reg. A nil registry
// selects the default one.
func NewPromSinkWithRegistry(cfg PromConfig, reg *prometheus.Registry) (*PromSink, error) {
	if reg == nil {
		return NewPromSink(cfg)
	}
	return newPromSink(cfg, reg, reg)
}

func newPromSink(cfg PromConfig, reg prometheus.Registerer, g prometheus.Gatherer) (*PromSink, error) {
	s := &PromSink{gatherer: g, pushURL: cfg.Pushgateway, job: cfg.Job}
	if s.job == "" {
		s.job = "meshcast"
	}
	var err error
	if s.messages, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "meshcast_messages_total",
		Help: "Messages handled by the dispatcher, by channel and outcome",
	}, []string{"channel", "status"})); err != nil {
		return nil, err
	}
	if s.bytes, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "meshcast_message_bytes",
		Help:    "Encoded size of sent messages",
		Buckets: prometheus.LinearBuckets(15, 15, 9),
	})); err != nil {
		return nil, err
	}
	if s.latency, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "meshcast_send_latency_seconds",
		Help:    "Time between send request and device answer",
		Buckets: prometheus.DefBuckets,
	}, []string{"channel"})); err != nil {
		return nil, err
	}
	if s.resolutions, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "meshcast_channel_resolutions_total",
		Help: "Channel lookups on the device, by result",
	}, []string{"channel", "result"})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordDispatch counts the outcome; sizes and latencies are observed for
// sent messages only.
func (s *PromSink) RecordDispatch(ev coremetrics.DispatchEvent) error {
	s.messages.WithLabelValues(ev.ChannelKey, ev.Status).Inc()
	if ev.Status == "sent" {
		s.bytes.Observe(float64(ev.Bytes))
		s.latency.WithLabelValues(ev.ChannelKey).Observe(ev.Latency.Seconds())
	}
	return nil
}

// RecordResolution counts channel lookups.
func (s *PromSink) RecordResolution(ev coremetrics.ResolutionEvent) error {
	result := "missing"
	if ev.Found {
		result = "found"
	}
	s.resolutions.WithLabelValues(ev.ChannelKey, result).Inc()
	return nil
}

// Flush pushes the registry to the configured Pushgateway.
func (s *PromSink) Flush(ctx context.Context) error {
	if s.pushURL == "" {
		return nil
	}
	if err := push.New(s.pushURL, s.job).Gatherer(s.gatherer).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
