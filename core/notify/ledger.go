package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/meshcast/core/logger"
	"github.com/kilianp07/meshcast/core/model"
)

// Options tune the ledger.
type Options struct {
	// Retention bounds how long a sent record is remembered.
	Retention time.Duration
	// Tolerance is the half-width of the window around a reminder's target
	// time in which it may fire.
	Tolerance time.Duration
	// Location interprets stored timestamps that carry no offset.
	Location *time.Location
}

func (o Options) withDefaults() Options {
	if o.Retention <= 0 {
		o.Retention = 7 * 24 * time.Hour
	}
	if o.Tolerance <= 0 {
		o.Tolerance = 15 * time.Minute
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	return o
}

// Pending is a reminder due now.
type Pending struct {
	Event       model.CalendarEvent
	WindowHours int
	Record      model.NotificationRecord
}

// Ledger remembers which (event, window) reminders were sent.
type Ledger struct {
	entries map[string]time.Time
	opts    Options
	log     logger.Logger
	pruned  int
}

// New returns an empty ledger.
func New(opts Options, log logger.Logger) *Ledger {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Ledger{entries: make(map[string]time.Time), opts: opts.withDefaults(), log: log}
}

// Load reads the ledger from store and prunes it. Records older than the
// retention horizon or with unparsable timestamps are dropped. A store that
// cannot be read yields an empty ledger.
func Load(ctx context.Context, store Store, now time.Time, opts Options, log logger.Logger) *Ledger {
	l := New(opts, log)
	raw, err := store.Load(ctx)
	if err != nil {
		l.log.Warnf("notification ledger unreadable, starting empty: %v", err)
		return l
	}
	for key, stamp := range raw {
		at, err := ParseTimestamp(stamp, l.opts.Location)
		if err != nil || now.Sub(at) > l.opts.Retention {
			l.pruned++
			continue
		}
		l.entries[key] = at
	}
	if l.pruned > 0 {
		l.log.Infof("pruned %d notification records", l.pruned)
	}
	return l
}

// Pruned returns how many records the last Load dropped.
func (l *Ledger) Pruned() int { return l.pruned }

// Len returns the number of remembered records.
func (l *Ledger) Len() int { return len(l.entries) }

// IsSent reports whether rec was already sent.
func (l *Ledger) IsSent(rec model.NotificationRecord) bool {
	_, ok := l.entries[rec.Key()]
	return ok
}

// SentAt returns when rec was sent.
func (l *Ledger) SentAt(rec model.NotificationRecord) (time.Time, bool) {
	at, ok := l.entries[rec.Key()]
	return at, ok
}

// MarkSent records rec as sent at the given time, replacing any earlier
// entry.
func (l *Ledger) MarkSent(rec model.NotificationRecord, at time.Time) {
	l.entries[rec.Key()] = at
}

// Pending returns the reminders due at now: the event has not started, now
// is within the tolerance of event time minus the window, and the reminder
// was not sent. It does not modify the ledger.
func (l *Ledger) Pending(events []model.CalendarEvent, windowHours []int, now time.Time) []Pending {
	var out []Pending
	seen := make(map[string]bool)
	for _, ev := range events {
		if ev.At.Before(now) {
			continue
		}
		for _, h := range windowHours {
			target := ev.At.Add(-time.Duration(h) * time.Hour)
			off := now.Sub(target)
			if off < 0 {
				off = -off
			}
			if off > l.opts.Tolerance {
				continue
			}
			rec := ev.Record(h)
			if l.IsSent(rec) || seen[rec.Key()] {
				continue
			}
			seen[rec.Key()] = true
			out = append(out, Pending{Event: ev, WindowHours: h, Record: rec})
		}
	}
	return out
}

// Save writes the ledger to store. Failures are logged and returned; callers
// are free to ignore them.
func (l *Ledger) Save(ctx context.Context, store Store) error {
	raw := make(map[string]string, len(l.entries))
	for key, at := range l.entries {
		raw[key] = at.Format(time.RFC3339)
	}
	if err := store.Save(ctx, raw); err != nil {
		l.log.Warnf("could not save notification ledger: %v", err)
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

// Reset forgets every record, in memory and in store.
func (l *Ledger) Reset(ctx context.Context, store Store) error {
	l.entries = make(map[string]time.Time)
	if err := store.Reset(ctx); err != nil {
		return fmt.Errorf("reset ledger: %w", err)
	}
	return nil
}

// ParseTimestamp accepts RFC 3339 and offset-less ISO 8601 timestamps; the
// latter are read in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.Local
	}
	var lastErr error
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02T15:04"} {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
