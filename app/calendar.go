package app

import (
	"context"
	"time"

	"github.com/kilianp07/meshcast/core/dispatch"
	"github.com/kilianp07/meshcast/core/model"
	"github.com/kilianp07/meshcast/core/notify"
	"github.com/kilianp07/meshcast/core/source"
)

// CalendarReport describes one calendar run.
type CalendarReport struct {
	Pending  []notify.Pending
	Messages []model.OutboundMessage
	Result   dispatch.Result
	// Marked counts reminders recorded as sent.
	Marked int
}

// Reminder is one scheduled reminder of an upcoming event.
type Reminder struct {
	Event       model.CalendarEvent
	WindowHours int
	At          time.Time
	Sent        bool
}

// LoadEvents reads the calendar at src, or the configured source when src is
// empty.
func (s *Service) LoadEvents(ctx context.Context, src string) ([]model.CalendarEvent, error) {
	if src == "" {
		src = s.cfg.Calendar.EventsURL
	}
	return source.ReadCalendar(ctx, src, source.CalendarOptions{
		Timeout:        s.cfg.Calendar.Timeout(),
		Location:       s.builder.Location(),
		DefaultChannel: s.cfg.Calendar.DefaultChannel,
		Known: func(key string) bool {
			_, ok := s.registry.Lookup(key)
			return ok
		},
		Client: s.client,
		Log:    s.log,
	})
}

func (s *Service) loadLedger(ctx context.Context, now time.Time) *notify.Ledger {
	return notify.Load(ctx, s.ledger, now, s.cfg.Ledger.Options(s.builder.Location()), s.log)
}

// RunCalendar broadcasts the reminders due now. A reminder is recorded as
// sent when at least one of its channel messages went out. Ledger save
// failures are logged and do not fail the run.
func (s *Service) RunCalendar(ctx context.Context, src string) (CalendarReport, error) {
	var rep CalendarReport
	events, err := s.LoadEvents(ctx, src)
	if err != nil {
		return rep, err
	}
	now := s.now()
	ledger := s.loadLedger(ctx, now)
	rep.Pending = ledger.Pending(events, s.cfg.Calendar.WindowsHours, now)

	// owners[i] is the index in rep.Pending of the reminder message i announces.
	var owners []int
	for i, p := range rep.Pending {
		if len(p.Event.Channels) == 0 {
			s.log.Warnf("%q has no configured channel, skipping", p.Event.Name)
			continue
		}
		r := s.builder.Calendar(p.Event, p.WindowHours)
		for _, key := range p.Event.Channels {
			rep.Messages = append(rep.Messages, s.builder.Build(key, r))
			owners = append(owners, i)
		}
	}
	if len(rep.Messages) == 0 {
		s.log.Infof("no reminders due")
	}

	rep.Result, err = s.Broadcast(ctx, rep.Messages)
	if err != nil {
		return rep, err
	}

	marked := make(map[int]bool)
	for i, out := range rep.Result.Outcomes {
		if out.Status != dispatch.StatusSent || marked[owners[i]] {
			continue
		}
		marked[owners[i]] = true
		ledger.MarkSent(rep.Pending[owners[i]].Record, s.now())
	}
	rep.Marked = len(marked)

	if s.dryRun || (rep.Marked == 0 && ledger.Pruned() == 0) {
		return rep, nil
	}
	_ = ledger.Save(ctx, s.ledger)
	return rep, nil
}

// Preview lists the reminders of events starting within the next days,
// skipping reminders whose time has passed.
func (s *Service) Preview(ctx context.Context, src string, days int) ([]Reminder, error) {
	events, err := s.LoadEvents(ctx, src)
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		days = 7
	}
	now := s.now()
	ledger := s.loadLedger(ctx, now)
	var out []Reminder
	for _, ev := range source.Upcoming(events, now, time.Duration(days)*24*time.Hour) {
		for _, h := range s.cfg.Calendar.WindowsHours {
			at := ev.At.Add(-time.Duration(h) * time.Hour)
			if at.Before(now) {
				continue
			}
			out = append(out, Reminder{Event: ev, WindowHours: h, At: at, Sent: ledger.IsSent(ev.Record(h))})
		}
	}
	return out, nil
}

// ResetLedger forgets every sent reminder.
func (s *Service) ResetLedger(ctx context.Context) error {
	return notify.New(s.cfg.Ledger.Options(s.builder.Location()), s.log).Reset(ctx, s.ledger)
}
