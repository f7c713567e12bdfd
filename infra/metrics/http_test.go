package metrics

import (
	"context"
	"net"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/meshcast/core/metrics"
	"github.com/kilianp07/meshcast/test/util"
)

func TestServePromExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(PromConfig{}, reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	_ = sink.RecordDispatch(coremetrics.DispatchEvent{ChannelKey: "public", Status: "sent", Bytes: 20})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ServeProm(ctx, ln, reg) }()

	waitCtx, waitCancel := context.WithTimeout(ctx, util.MetricTimeout)
	defer waitCancel()
	if err := util.WaitForMetric(waitCtx, "http://"+ln.Addr().String()+"/metrics", `meshcast_messages_total{channel="public",status="sent"} 1`); err != nil {
		t.Fatalf("metric not served: %v", err)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("serve: %v", err)
	}
}
