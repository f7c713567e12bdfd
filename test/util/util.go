// Package util holds helpers for integration tests that need a live MQTT
// broker or a scrapeable metrics endpoint.
package util

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	MosquittoImage        = "eclipse-mosquitto:2.0"
	MosquittoReadyTimeout = 5 * time.Second
	MetricTimeout         = 5 * time.Second

	pollInterval = 50 * time.Millisecond
)

// mosquittoConf lets the bridge fake and the transport connect without
// credentials.
const mosquittoConf = "listener 1883\nallow_anonymous true\npersistence false\nlog_dest stdout\n"

// WaitForMetric scrapes metricsURL until the body contains substr.
func WaitForMetric(ctx context.Context, metricsURL, substr string) error {
	var last string
	for {
		body, err := scrape(ctx, metricsURL)
		if err == nil {
			if strings.Contains(body, substr) {
				return nil
			}
			last = body
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("metric %q not found (last scrape %d bytes): %w", substr, len(last), ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}

func scrape(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read metrics body: %w", err)
	}
	return string(b), nil
}

// StartMosquitto runs a throwaway broker for the lifetime of t and returns
// its tcp:// URL. The test is skipped when no container runtime answers.
func StartMosquitto(ctx context.Context, t testing.TB) string {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        MosquittoImage,
		ExposedPorts: []string{"1883/tcp"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
		Files: []tc.ContainerFile{{
			Reader:            strings.NewReader(mosquittoConf),
			ContainerFilePath: "/mosquitto/config/mosquitto.conf",
			FileMode:          0o644,
		}},
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("mosquitto unavailable: %v", err)
	}
	t.Cleanup(func() { _ = cont.Terminate(context.Background()) })

	endpoint, err := cont.PortEndpoint(ctx, "1883/tcp", "tcp")
	if err != nil {
		t.Fatalf("mosquitto endpoint: %v", err)
	}
	readyCtx, cancel := context.WithTimeout(ctx, MosquittoReadyTimeout)
	defer cancel()
	if err := waitForBroker(readyCtx, endpoint); err != nil {
		t.Fatalf("mosquitto not ready at %s: %v", endpoint, err)
	}
	return endpoint
}

func waitForBroker(ctx context.Context, broker string) error {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("meshcast-probe").
		SetConnectTimeout(time.Second)
	for {
		cli := paho.NewClient(opts)
		tok := cli.Connect()
		if tok.WaitTimeout(time.Second) && tok.Error() == nil {
			cli.Disconnect(100)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}
