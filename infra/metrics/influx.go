package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/meshcast/core/metrics"
	"github.com/kilianp07/meshcast/infra/logger"
)

// InfluxConfig locates the bucket receiving dispatch points. Timeout bounds
// each write and the startup health check.
type InfluxConfig struct {
	URL     string        `json:"url"`
	Token   string        `json:"token"`
	Org     string        `json:"org"`
	Bucket  string        `json:"bucket"`
	Timeout time.Duration `json:"timeout"`
}

func (c InfluxConfig) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 5 * time.Second
	}
	return c.Timeout
}

// InfluxSink writes one point per message outcome and channel lookup.
type InfluxSink struct {
	client  influxdb2.Client
	writer  api.WriteAPIBlocking
	timeout time.Duration
	log     logger.Logger
}

// NewInfluxSink accepts either the server root or its /api/v2/write URL.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(strings.TrimSuffix(cfg.URL, "/"), "/api/v2/write")
	opts := influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: cfg.timeout()})
	client := influxdb2.NewClientWithOptions(base, cfg.Token, opts)
	return &InfluxSink{
		client:  client,
		writer:  client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		timeout: cfg.timeout(),
		log:     logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback returns a NopSink when the server does not pass
// its health check, so an unreachable InfluxDB never blocks a broadcast.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), sink.timeout)
	defer cancel()
	health, err := sink.client.Health(ctx)
	switch {
	case err != nil:
		sink.log.Errorf("influx health check: %v; metrics disabled", err)
	case health.Status != "pass":
		sink.log.Errorf("influx health status %s; metrics disabled", health.Status)
	default:
		return sink
	}
	sink.client.Close()
	return coremetrics.NopSink{}
}

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.writer.WritePoint(ctx, p)
}

func (s *InfluxSink) RecordDispatch(ev coremetrics.DispatchEvent) error {
	return s.write(dispatchPoint(ev))
}

func (s *InfluxSink) RecordResolution(ev coremetrics.ResolutionEvent) error {
	return s.write(resolutionPoint(ev))
}

func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func dispatchPoint(ev coremetrics.DispatchEvent) *write.Point {
	p := write.NewPointWithMeasurement("message_dispatch").
		AddTag("channel", ev.ChannelKey).
		AddTag("status", ev.Status).
		AddTag("run_id", ev.RunID).
		AddField("slot", ev.Slot).
		AddField("label", ev.Label).
		AddField("bytes", ev.Bytes).
		AddField("latency_ms", round3(ev.Latency.Seconds()*1000))
	if ev.Error != "" {
		p = p.AddField("error", ev.Error)
	}
	return p.SetTime(ev.Time)
}

func resolutionPoint(ev coremetrics.ResolutionEvent) *write.Point {
	return write.NewPointWithMeasurement("channel_resolution").
		AddTag("channel", ev.ChannelKey).
		AddTag("run_id", ev.RunID).
		AddField("found", ev.Found).
		AddField("slot", ev.Slot).
		SetTime(ev.Time)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
