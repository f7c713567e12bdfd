package dispatch

import (
	"time"

	"github.com/kilianp07/meshcast/core/model"
)

// Status is the outcome of one message.
type Status int

const (
	StatusSent Status = iota
	StatusFailed
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusSent:
		return "sent"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Outcome records what happened to one message. Slot is -1 when the channel
// was not resolved.
type Outcome struct {
	Message model.OutboundMessage
	Status  Status
	Slot    int
	Err     error
	Latency time.Duration
	At      time.Time
}

// Result lists the outcomes of a batch in input order.
type Result struct {
	RunID    string
	Outcomes []Outcome
}

// Count returns the number of outcomes with status s.
func (r Result) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}
