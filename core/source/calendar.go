package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/kilianp07/meshcast/core/logger"
	"github.com/kilianp07/meshcast/core/model"
)

// Calendar CSV columns.
const (
	ColDatetime    = "EventDatetime"
	ColName        = "EventName"
	ColDescription = "Description"
	ColChannels    = "Channels"
)

// CalendarOptions tune how the events CSV is read.
type CalendarOptions struct {
	// Timeout bounds a remote fetch. Zero means 15s.
	Timeout time.Duration
	// Location interprets event datetimes. Nil means local time.
	Location *time.Location
	// DefaultChannel is used for rows with an empty Channels cell.
	DefaultChannel string
	// Known filters channel keys; nil keeps every key.
	Known  func(key string) bool
	Client *http.Client
	Log    logger.Logger
}

func (o CalendarOptions) withDefaults() CalendarOptions {
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.DefaultChannel == "" {
		o.DefaultChannel = "public"
	}
	if o.Client == nil {
		o.Client = http.DefaultClient
	}
	if o.Log == nil {
		o.Log = logger.NopLogger{}
	}
	return o
}

// ReadCalendar loads events from src, an http(s) URL or a file path.
func ReadCalendar(ctx context.Context, src string, opts CalendarOptions) ([]model.CalendarEvent, error) {
	opts = opts.withDefaults()
	if src == "" {
		return nil, errors.New("no events source configured")
	}
	rc, err := open(ctx, src, opts)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	events, err := ParseCalendar(rc, opts)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", src, err)
	}
	opts.Log.Infof("loaded %d events", len(events))
	return events, nil
}

func open(ctx context.Context, src string, opts CalendarOptions) (io.ReadCloser, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		f, err := os.Open(src)
		if err != nil {
			return nil, fmt.Errorf("open events: %w", err)
		}
		return f, nil
	}
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		cancel()
		return nil, err
	}
	resp, err := opts.Client.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("fetch events: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("fetch events: unexpected status %s", resp.Status)
	}
	return &cancelBody{ReadCloser: resp.Body, cancel: cancel}, nil
}

type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	defer b.cancel()
	return b.ReadCloser.Close()
}

// ParseCalendar reads the events CSV. The first row names the columns;
// EventDatetime and EventName are required. Rows whose datetime does not
// parse are skipped with a warning.
func ParseCalendar(r io.Reader, opts CalendarOptions) ([]model.CalendarEvent, error) {
	opts = opts.withDefaults()
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty events file")
		}
		return nil, err
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, req := range []string{ColDatetime, ColName} {
		if _, ok := cols[strings.ToLower(req)]; !ok {
			return nil, fmt.Errorf("missing column %s", req)
		}
	}
	cell := func(rec []string, name string) string {
		i, ok := cols[strings.ToLower(name)]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var events []model.CalendarEvent
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		raw := cell(rec, ColDatetime)
		if raw == "" && cell(rec, ColName) == "" {
			continue
		}
		at, err := time.ParseInLocation(model.EventDatetimeLayout, raw, opts.Location)
		if err != nil {
			opts.Log.Warnf("events line %d: bad %s %q: %v", line, ColDatetime, raw, err)
			continue
		}
		events = append(events, model.CalendarEvent{
			Raw:         raw,
			At:          at,
			Name:        cell(rec, ColName),
			Description: cell(rec, ColDescription),
			Channels:    parseChannels(cell(rec, ColChannels), opts),
		})
	}
	return events, nil
}

// parseChannels splits a comma-separated channel list. An empty cell selects
// the default channel; unknown keys are dropped.
func parseChannels(s string, opts CalendarOptions) []string {
	keys := []string{opts.DefaultChannel}
	if s != "" {
		keys = strings.Split(s, ",")
	}
	seen := make(map[string]bool, len(keys))
	var out []string
	for _, k := range keys {
		k = model.NormalizeName(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		if opts.Known != nil && !opts.Known(k) {
			opts.Log.Debugf("dropping unknown channel %q", k)
			continue
		}
		out = append(out, k)
	}
	return out
}

// Upcoming returns the events within [now, now+horizon] in time order.
func Upcoming(events []model.CalendarEvent, now time.Time, horizon time.Duration) []model.CalendarEvent {
	var out []model.CalendarEvent
	for _, ev := range events {
		if !ev.At.Before(now) && !ev.At.After(now.Add(horizon)) {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}
