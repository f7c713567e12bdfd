package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/meshcast/core/channel"
	"github.com/kilianp07/meshcast/core/device"
	"github.com/kilianp07/meshcast/core/dispatch/logging"
	"github.com/kilianp07/meshcast/core/logger"
	"github.com/kilianp07/meshcast/core/message"
	"github.com/kilianp07/meshcast/core/metrics"
	"github.com/kilianp07/meshcast/core/model"
)

// ErrUnknownChannel is reported for messages addressed to a channel key that
// is not configured.
var ErrUnknownChannel = errors.New("channel not configured")

// Dispatcher sends a batch of messages over one connection, in order, one at
// a time. A failed message never stops the batch and is never retried.
type Dispatcher struct {
	conn     device.Connection
	resolver *channel.Resolver
	registry *channel.Registry
	builder  message.Builder
	delay    time.Duration
	logger   logger.Logger
	metrics  metrics.MetricsSink
	store    logging.LogStore
	runID    string
	sleep    func(ctx context.Context, d time.Duration)
	now      func() time.Time
}

// NewDispatcher wires a dispatcher for one run.
func NewDispatcher(conn device.Connection, resolver *channel.Resolver, registry *channel.Registry, cfg Config, log logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Dispatcher{
		conn:     conn,
		resolver: resolver,
		registry: registry,
		builder:  message.NewBuilder(cfg.MaxBytes, nil),
		delay:    cfg.Delay(),
		logger:   log,
		metrics:  metrics.NopSink{},
		store:    logging.NopStore{},
		sleep:    sleepCtx,
		now:      time.Now,
	}
}

// SetMetricsSink configures the sink receiving outcomes.
func (d *Dispatcher) SetMetricsSink(s metrics.MetricsSink) {
	if s != nil {
		d.metrics = s
	}
}

// SetLogStore configures the store used to persist outcomes.
func (d *Dispatcher) SetLogStore(s logging.LogStore) {
	if s != nil {
		d.store = s
	}
}

// SetRunID tags every outcome of this dispatcher.
func (d *Dispatcher) SetRunID(id string) { d.runID = id }

// Dispatch resolves every distinct target channel once, then sends the
// messages in order. Messages for unresolved channels are skipped.
func (d *Dispatcher) Dispatch(ctx context.Context, msgs []model.OutboundMessage) Result {
	res := Result{RunID: d.runID, Outcomes: make([]Outcome, 0, len(msgs))}
	slots, missing := d.resolveAll(ctx, msgs)

	attempts := 0
	for i, m := range msgs {
		key := model.NormalizeName(m.ChannelKey)
		out := Outcome{Message: m, Slot: -1}
		if err, skip := missing[key]; skip {
			out.Status, out.Err, out.At = StatusSkipped, err, d.now()
			d.logger.Warnf("[%d/%d] skipping %q: %v", i+1, len(msgs), m.Label, err)
			d.record(ctx, &res, out)
			continue
		}
		out.Slot = slots[key]
		if err := d.builder.Validate(m); err != nil {
			out.Status, out.Err, out.At = StatusFailed, err, d.now()
			d.logger.Errorf("[%d/%d] %q not sent: %v", i+1, len(msgs), m.Label, err)
			d.record(ctx, &res, out)
			continue
		}
		if attempts > 0 {
			d.sleep(ctx, d.delay)
		}
		attempts++

		start := d.now()
		err := d.conn.SendChannelMessage(ctx, out.Slot, m.Text)
		out.At = d.now()
		out.Latency = out.At.Sub(start)
		if err != nil {
			out.Status, out.Err = StatusFailed, err
			d.logger.Warnf("[%d/%d] %s -> slot %d failed: %v", i+1, len(msgs), key, out.Slot, err)
		} else {
			out.Status = StatusSent
			d.logger.Infow("message sent", map[string]any{
				"channel": key, "slot": out.Slot, "label": m.Label, "bytes": m.Bytes,
			})
		}
		d.record(ctx, &res, out)
	}
	return res
}

func (d *Dispatcher) resolveAll(ctx context.Context, msgs []model.OutboundMessage) (map[string]int, map[string]error) {
	slots := make(map[string]int)
	missing := make(map[string]error)
	for _, m := range msgs {
		key := model.NormalizeName(m.ChannelKey)
		if _, ok := slots[key]; ok {
			continue
		}
		if _, ok := missing[key]; ok {
			continue
		}
		ch, ok := d.registry.Lookup(key)
		if !ok {
			missing[key] = fmt.Errorf("%w: %q", ErrUnknownChannel, key)
			d.logger.Warnf("channel %q is not configured", key)
			continue
		}
		rc, err := d.resolver.Resolve(ctx, ch)
		ev := metrics.ResolutionEvent{RunID: d.runID, ChannelKey: key, Slot: -1, Time: d.now()}
		if err != nil {
			missing[key] = err
			d.logger.Warnf("could not find channel %q on device: %v", ch.Name, err)
		} else {
			slots[key] = rc.Slot
			ev.Slot, ev.Found = rc.Slot, true
			d.logger.Infof("resolved %q -> slot %d", key, rc.Slot)
		}
		if rr, ok := d.metrics.(metrics.ResolutionRecorder); ok {
			if err := rr.RecordResolution(ev); err != nil {
				d.logger.Warnf("record resolution: %v", err)
			}
		}
	}
	return slots, missing
}

func (d *Dispatcher) record(ctx context.Context, res *Result, out Outcome) {
	res.Outcomes = append(res.Outcomes, out)
	errText := ""
	if out.Err != nil {
		errText = out.Err.Error()
	}
	key := model.NormalizeName(out.Message.ChannelKey)
	if err := d.metrics.RecordDispatch(metrics.DispatchEvent{
		RunID:      d.runID,
		ChannelKey: key,
		Slot:       out.Slot,
		Label:      out.Message.Label,
		Status:     out.Status.String(),
		Bytes:      out.Message.Bytes,
		Latency:    out.Latency,
		Error:      errText,
		Time:       out.At,
	}); err != nil {
		d.logger.Warnf("record metrics: %v", err)
	}
	if err := d.store.Append(ctx, logging.LogRecord{
		Timestamp:  out.At,
		RunID:      d.runID,
		ChannelKey: key,
		Slot:       out.Slot,
		Label:      out.Message.Label,
		Text:       out.Message.Text,
		Bytes:      out.Message.Bytes,
		Status:     out.Status.String(),
		Error:      errText,
	}); err != nil {
		d.logger.Warnf("append dispatch log: %v", err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
