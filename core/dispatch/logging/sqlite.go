package logging

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// SQLiteStore keeps dispatch records in the dispatch_logs table. Timestamps
// are stored as Unix nanoseconds.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite dispatch log: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer; the CLI and the HTTP API share the handle.
	db.SetMaxOpenConns(1)
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA busy_timeout = 5000")
	if _, err := db.Exec(schema); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, rec LogRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dispatch_logs(ts, run_id, channel, slot, label, text, bytes, status, error)
		 VALUES(?,?,?,?,?,?,?,?,?)`,
		rec.Timestamp.UnixNano(), rec.RunID, rec.ChannelKey, rec.Slot, rec.Label,
		rec.Text, rec.Bytes, rec.Status, rec.Error,
	)
	return err
}

// where renders the non-zero filters of q as SQL conditions.
func where(q LogQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		conds = append(conds, cond)
		args = append(args, v)
	}
	if !q.Start.IsZero() {
		add("ts >= ?", q.Start.UnixNano())
	}
	if !q.End.IsZero() {
		add("ts <= ?", q.End.UnixNano())
	}
	for _, f := range []struct{ col, val string }{
		{"channel", q.ChannelKey},
		{"status", q.Status},
		{"run_id", q.RunID},
	} {
		if f.val != "" {
			add(f.col+" = ?", f.val)
		}
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Query returns matching records in time order, ties in insertion order.
func (s *SQLiteStore) Query(ctx context.Context, q LogQuery) ([]LogRecord, error) {
	cond, args := where(q)
	rows, err := s.db.QueryContext(ctx,
		`SELECT ts, run_id, channel, slot, label, text, bytes, status, error
		 FROM dispatch_logs`+cond+` ORDER BY ts, id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []LogRecord
	for rows.Next() {
		var (
			r  LogRecord
			ts int64
		)
		if err := rows.Scan(&ts, &r.RunID, &r.ChannelKey, &r.Slot, &r.Label, &r.Text, &r.Bytes, &r.Status, &r.Error); err != nil {
			return nil, err
		}
		r.Timestamp = time.Unix(0, ts)
		res = append(res, r)
	}
	return res, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
