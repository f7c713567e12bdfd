package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/meshcast/app/plugins"
	"github.com/kilianp07/meshcast/config"
	"github.com/kilianp07/meshcast/core/channel"
	"github.com/kilianp07/meshcast/core/device"
	"github.com/kilianp07/meshcast/core/dispatch"
	dispatchlog "github.com/kilianp07/meshcast/core/dispatch/logging"
	"github.com/kilianp07/meshcast/core/logger"
	"github.com/kilianp07/meshcast/core/message"
	coremetrics "github.com/kilianp07/meshcast/core/metrics"
	"github.com/kilianp07/meshcast/core/model"
	"github.com/kilianp07/meshcast/core/notify"
	infralogger "github.com/kilianp07/meshcast/infra/logger"
	_ "github.com/kilianp07/meshcast/infra/metrics" // registers metrics sinks
	"github.com/kilianp07/meshcast/infra/mqtt"
)

// Service runs broadcasts: it opens the device, resolves channels, dispatches
// messages and records reminders in the ledger.
type Service struct {
	cfg      *config.Config
	registry *channel.Registry
	builder  message.Builder
	open     device.Opener
	sink     coremetrics.MetricsSink
	logs     dispatchlog.LogStore
	ledger   notify.Store
	client   *http.Client
	now      func() time.Time
	dryRun   bool
	log      logger.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithOpener replaces the MQTT device opener.
func WithOpener(o device.Opener) Option { return func(s *Service) { s.open = o } }

// WithMetricsSink replaces the configured metrics sinks.
func WithMetricsSink(m coremetrics.MetricsSink) Option { return func(s *Service) { s.sink = m } }

// WithLogStore replaces the configured dispatch log.
func WithLogStore(l dispatchlog.LogStore) Option { return func(s *Service) { s.logs = l } }

// WithLedgerStore replaces the configured ledger backend.
func WithLedgerStore(st notify.Store) Option { return func(s *Service) { s.ledger = st } }

// WithHTTPClient sets the client used to fetch remote calendars. Configured
// calendar credentials are layered on top of it.
func WithHTTPClient(c *http.Client) Option { return func(s *Service) { s.client = c } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithDryRun builds and reports messages without opening the device or
// writing the ledger.
func WithDryRun(dry bool) Option { return func(s *Service) { s.dryRun = dry } }

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) Option { return func(s *Service) { s.log = l } }

// New creates a Service from the configuration. Backends not supplied as
// options are opened from cfg.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	reg, err := cfg.Registry()
	if err != nil {
		return nil, err
	}
	s := &Service{
		cfg:      cfg,
		registry: reg,
		builder:  message.NewBuilder(cfg.Broadcast.MaxBytes, cfg.Broadcast.Location()),
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = infralogger.New("service")
	}
	s.client = cfg.Calendar.Auth.Client(s.client)
	if s.open == nil {
		s.open = mqtt.Opener(cfg.Device, infralogger.New("mqtt"))
	}
	if s.sink == nil {
		if s.sink, err = coremetrics.NewMetricsSink(cfg.Metrics.Sinks); err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
	}
	if s.logs == nil {
		if s.logs, err = plugins.OpenLogStore(cfg.DispatchLog); err != nil {
			return nil, err
		}
	}
	if s.ledger == nil {
		if s.ledger, err = notify.OpenStore(cfg.Ledger); err != nil {
			_ = s.logs.Close()
			return nil, err
		}
	}
	return s, nil
}

// Builder returns the message builder for the configured budget and zone.
func (s *Service) Builder() message.Builder { return s.builder }

// Registry returns the configured channels.
func (s *Service) Registry() *channel.Registry { return s.registry }

// DryRun reports whether sends are suppressed.
func (s *Service) DryRun() bool { return s.dryRun }

// DefaultChannel returns the channel used when none is named.
func (s *Service) DefaultChannel() string {
	if s.cfg.Broadcast.DefaultChannel != "" {
		return model.NormalizeName(s.cfg.Broadcast.DefaultChannel)
	}
	ch, _ := s.registry.Default()
	return ch.Key
}

// Broadcast sends msgs over one device connection. In dry-run mode no
// connection is opened and the result holds no outcomes.
func (s *Service) Broadcast(ctx context.Context, msgs []model.OutboundMessage) (dispatch.Result, error) {
	runID := uuid.NewString()
	if len(msgs) == 0 {
		return dispatch.Result{RunID: runID}, nil
	}
	if s.dryRun {
		s.log.Infof("dry run: %d messages not sent", len(msgs))
		return dispatch.Result{RunID: runID}, nil
	}
	log := infralogger.With(s.log, map[string]any{"run_id": runID})
	conn, err := s.open(ctx)
	if err != nil {
		return dispatch.Result{RunID: runID}, fmt.Errorf("open device: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Warnf("close device: %v", err)
		}
	}()

	resolver := channel.NewResolver(conn, s.cfg.Device.Slots, log)
	d := dispatch.NewDispatcher(conn, resolver, s.registry, s.cfg.Broadcast.Dispatch(), log)
	d.SetMetricsSink(s.sink)
	d.SetLogStore(s.logs)
	d.SetRunID(runID)
	res := d.Dispatch(ctx, msgs)

	if f, ok := s.sink.(coremetrics.Flusher); ok {
		if err := f.Flush(ctx); err != nil {
			log.Warnf("flush metrics: %v", err)
		}
	}
	log.Infow("broadcast finished", map[string]any{
		"sent":    res.Count(dispatch.StatusSent),
		"failed":  res.Count(dispatch.StatusFailed),
		"skipped": res.Count(dispatch.StatusSkipped),
	})
	return res, nil
}

// Compose builds a free-form message for key, or for the default channel
// when key is empty.
func (s *Service) Compose(key, text string) (model.OutboundMessage, error) {
	if key == "" {
		key = s.DefaultChannel()
	}
	if _, ok := s.registry.Lookup(key); !ok {
		return model.OutboundMessage{}, fmt.Errorf("%w: %q", dispatch.ErrUnknownChannel, key)
	}
	if text == "" {
		return model.OutboundMessage{}, errors.New("empty message")
	}
	return s.builder.Text(model.NormalizeName(key), "message", text), nil
}

// Send broadcasts one free-form message.
func (s *Service) Send(ctx context.Context, key, text string) (dispatch.Result, error) {
	m, err := s.Compose(key, text)
	if err != nil {
		return dispatch.Result{}, err
	}
	return s.Broadcast(ctx, []model.OutboundMessage{m})
}

// ListChannels reads every configured slot from the device.
func (s *Service) ListChannels(ctx context.Context) ([]model.SlotDescriptor, error) {
	conn, err := s.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open device: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			s.log.Warnf("close device: %v", err)
		}
	}()
	return channel.NewResolver(conn, s.cfg.Device.Slots, s.log).ListSlots(ctx)
}

// History queries the dispatch log.
func (s *Service) History(ctx context.Context, q dispatchlog.LogQuery) ([]dispatchlog.LogRecord, error) {
	return s.logs.Query(ctx, q)
}

// Close releases the stores and sinks held by the service.
func (s *Service) Close() error {
	var errs []error
	if err := s.logs.Close(); err != nil {
		errs = append(errs, fmt.Errorf("dispatch log: %w", err))
	}
	if err := s.ledger.Close(); err != nil {
		errs = append(errs, fmt.Errorf("ledger: %w", err))
	}
	if c, ok := s.sink.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("metrics: %w", err))
		}
	}
	return errors.Join(errs...)
}
