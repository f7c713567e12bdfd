package logging

import (
	"context"
	"time"
)

// LogRecord captures the outcome of one message.
type LogRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	RunID      string    `json:"run_id"`
	ChannelKey string    `json:"channel"`
	Slot       int       `json:"slot"`
	Label      string    `json:"label"`
	Text       string    `json:"text"`
	Bytes      int       `json:"bytes"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
}

// LogQuery defines filters for retrieving records. Zero fields match
// everything.
type LogQuery struct {
	Start      time.Time
	End        time.Time
	ChannelKey string
	Status     string
	RunID      string
}

// Match reports whether r passes the filters.
func (q LogQuery) Match(r LogRecord) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.ChannelKey != "" && r.ChannelKey != q.ChannelKey {
		return false
	}
	if q.Status != "" && r.Status != q.Status {
		return false
	}
	if q.RunID != "" && r.RunID != q.RunID {
		return false
	}
	return true
}

// LogStore persists LogRecords and supports querying.
type LogStore interface {
	Append(ctx context.Context, rec LogRecord) error
	Query(ctx context.Context, q LogQuery) ([]LogRecord, error)
	Close() error
}

// NopStore drops every record.
type NopStore struct{}

func (NopStore) Append(context.Context, LogRecord) error              { return nil }
func (NopStore) Query(context.Context, LogQuery) ([]LogRecord, error) { return nil, nil }
func (NopStore) Close() error                                         { return nil }
