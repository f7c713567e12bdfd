package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/kilianp07/meshcast/core/metrics"
)

func TestPromSink_RecordDispatch(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(PromConfig{}, reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	for _, ev := range []coremetrics.DispatchEvent{
		{ChannelKey: "public", Status: "sent", Bytes: 42, Latency: 150 * time.Millisecond},
		{ChannelKey: "public", Status: "sent", Bytes: 120, Latency: time.Second},
		{ChannelKey: "ops", Status: "skipped"},
	} {
		if err := sink.RecordDispatch(ev); err != nil {
			t.Fatalf("record error: %v", err)
		}
	}

	expected := `
# HELP meshcast_messages_total Messages handled by the dispatcher, by channel and outcome
# TYPE meshcast_messages_total counter
meshcast_messages_total{channel="ops",status="skipped"} 1
meshcast_messages_total{channel="public",status="sent"} 2
`
	if err := testutil.CollectAndCompare(sink.messages, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
	if c := testutil.CollectAndCount(sink.latency); c != 1 {
		t.Errorf("latency series = %d, want 1", c)
	}
	if c := testutil.CollectAndCount(sink.bytes); c != 1 {
		t.Errorf("bytes histogram not collected")
	}
}

func TestPromSink_RecordResolution(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(PromConfig{}, reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	_ = sink.RecordResolution(coremetrics.ResolutionEvent{ChannelKey: "public", Found: true})
	_ = sink.RecordResolution(coremetrics.ResolutionEvent{ChannelKey: "gone", Slot: -1})
	if v := testutil.ToFloat64(sink.resolutions.WithLabelValues("public", "found")); v != 1 {
		t.Fatalf("found = %v", v)
	}
	if v := testutil.ToFloat64(sink.resolutions.WithLabelValues("gone", "missing")); v != 1 {
		t.Fatalf("missing = %v", v)
	}
}

func TestPromSinkReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewPromSinkWithRegistry(PromConfig{}, reg)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	b, err := NewPromSinkWithRegistry(PromConfig{}, reg)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	_ = a.RecordDispatch(coremetrics.DispatchEvent{ChannelKey: "public", Status: "failed"})
	_ = b.RecordDispatch(coremetrics.DispatchEvent{ChannelKey: "public", Status: "failed"})
	if v := testutil.ToFloat64(a.messages.WithLabelValues("public", "failed")); v != 2 {
		t.Fatalf("shared counter = %v, want 2", v)
	}
}

func TestPromSinkFlushPushes(t *testing.T) {
	var path, body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(PromConfig{Pushgateway: srv.URL, Job: "calendar"}, reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	_ = sink.RecordDispatch(coremetrics.DispatchEvent{ChannelKey: "public", Status: "sent", Bytes: 10})
	if err := sink.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if path != "/metrics/job/calendar" {
		t.Fatalf("push path = %q", path)
	}
	if !strings.Contains(body, "meshcast_messages_total") {
		t.Fatalf("pushed body missing counter")
	}
}

func TestPromSinkFlushWithoutGateway(t *testing.T) {
	sink, err := NewPromSinkWithRegistry(PromConfig{}, prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	if err := sink.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
}
