package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/meshcast/infra/logger"
)

// NewServeMux returns a dedicated mux serving /metrics from g. A nil
// gatherer selects the default registry. Callers may mount more handlers.
func NewServeMux(g prometheus.Gatherer) *http.ServeMux {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return mux
}

// StartPromServer exposes Prometheus metrics on addr until ctx is canceled.
func StartPromServer(ctx context.Context, addr string, g prometheus.Gatherer) error {
	return StartServer(ctx, addr, NewServeMux(g))
}

// ServeProm serves /metrics on ln.
func ServeProm(ctx context.Context, ln net.Listener, g prometheus.Gatherer) error {
	return Serve(ctx, ln, NewServeMux(g))
}

// StartServer serves h on addr until ctx is canceled.
func StartServer(ctx context.Context, addr string, h http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return Serve(ctx, ln, h)
}

// Serve serves h on ln and shuts down gracefully when ctx is canceled.
func Serve(ctx context.Context, ln net.Listener, h http.Handler) error {
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 5 * time.Second}
	log := logger.New("http-server")
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("http server shutdown: %v", err)
		}
		cancel()
	}()
	log.Infof("serving on %s", ln.Addr())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
