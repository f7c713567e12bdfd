package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/meshcast/config"
	"github.com/kilianp07/meshcast/core/device"
	"github.com/kilianp07/meshcast/core/dispatch"
	dispatchlog "github.com/kilianp07/meshcast/core/dispatch/logging"
	"github.com/kilianp07/meshcast/core/logger"
	coremetrics "github.com/kilianp07/meshcast/core/metrics"
	"github.com/kilianp07/meshcast/core/model"
	"github.com/kilianp07/meshcast/core/notify"
	"github.com/kilianp07/meshcast/core/source"
	"github.com/kilianp07/meshcast/infra/mqtt"
)

const calendarCSV = `EventDatetime,EventName,Description,Channels
2026-03-11 1000,Net Meeting,Weekly check-in,public
2026-03-10 1200,Field Day,Bring radios,"public,ops"
2026-04-01 0900,Far Away,,ops
`

type harness struct {
	svc        *Service
	dev        *mqtt.MockDevice
	dir        string
	ledgerPath string
	events     string
	now        time.Time
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Device: mqtt.Config{Broker: "tcp://localhost:1883"},
		Channels: []config.ChannelConfig{
			{Key: "public", Name: "Public"},
			{Key: "ops", Name: "Ops Channel", Secret: "ab12"},
		},
	}
	cfg.Broadcast.DelaySeconds = 0.001
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	return cfg
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	cfg := testConfig(t)
	dir := t.TempDir()
	h := &harness{dir: dir, ledgerPath: filepath.Join(dir, "state.json"), events: filepath.Join(dir, "events.csv")}
	require.NoError(t, os.WriteFile(h.events, []byte(calendarCSV), 0o644))
	cfg.Calendar.EventsURL = h.events

	h.now = time.Date(2026, 3, 10, 10, 0, 0, 0, cfg.Broadcast.Location())
	h.dev = mqtt.NewMockDevice(
		model.SlotDescriptor{Slot: 0, Name: "Public", Secret: "8b3387e9c5cdea6ac9e5edbaa115cd72"},
		model.SlotDescriptor{Slot: 3, Name: "something-else", Secret: "AB12"},
	)
	logs, err := dispatchlog.NewJSONLStore(filepath.Join(dir, "dispatch.log"))
	require.NoError(t, err)

	base := []Option{
		WithOpener(h.dev.Opener()),
		WithMetricsSink(coremetrics.NopSink{}),
		WithLogStore(logs),
		WithLedgerStore(notify.NewFileStore(h.ledgerPath)),
		WithClock(func() time.Time { return h.now }),
		WithLogger(logger.NopLogger{}),
	}
	h.svc, err = New(cfg, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.svc.Close() })
	return h
}

func TestSendUsesDefaultChannel(t *testing.T) {
	h := newHarness(t)
	res, err := h.svc.Send(context.Background(), "", "hello mesh")
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 1)
	assert.Equal(t, dispatch.StatusSent, res.Outcomes[0].Status)
	assert.Equal(t, []mqtt.SentMessage{{Slot: 0, Text: "hello mesh"}}, h.dev.Sent())
	assert.True(t, h.dev.Closed())
	assert.NotEmpty(t, res.RunID)
}

func TestSendResolvesBySecret(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Send(context.Background(), "Ops", "status")
	require.NoError(t, err)
	require.Len(t, h.dev.Sent(), 1)
	assert.Equal(t, 3, h.dev.Sent()[0].Slot)
}

func TestComposeErrors(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Compose("nowhere", "x")
	require.True(t, errors.Is(err, dispatch.ErrUnknownChannel))
	_, err = h.svc.Compose("public", "")
	require.Error(t, err)
}

func TestComposeTruncatesToBudget(t *testing.T) {
	h := newHarness(t)
	long := ""
	for i := 0; i < 40; i++ {
		long += "abcdé"
	}
	m, err := h.svc.Compose("public", long)
	require.NoError(t, err)
	assert.LessOrEqual(t, m.Bytes, model.MaxMessageBytes)
	assert.Equal(t, len(m.Text), m.Bytes)
}

func TestBroadcastOpenFailure(t *testing.T) {
	boom := errors.New("no broker")
	h := newHarness(t, WithOpener(func(context.Context) (device.Connection, error) { return nil, boom }))
	_, err := h.svc.Send(context.Background(), "public", "x")
	require.ErrorIs(t, err, boom)
}

func TestDryRunOpensNothing(t *testing.T) {
	h := newHarness(t, WithDryRun(true))
	rep, err := h.svc.RunCalendar(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, rep.Messages, 3)
	assert.Empty(t, rep.Result.Outcomes)
	assert.Zero(t, rep.Marked)
	assert.Zero(t, h.dev.Opens())
	_, err = os.Stat(h.ledgerPath)
	assert.True(t, os.IsNotExist(err))
}

func TestRunCalendarMarksAndDedups(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	rep, err := h.svc.RunCalendar(ctx, "")
	require.NoError(t, err)
	require.Len(t, rep.Pending, 2)
	require.Len(t, rep.Messages, 3)
	assert.Equal(t, 2, rep.Marked)
	assert.Equal(t, 3, rep.Result.Count(dispatch.StatusSent))
	assert.Contains(t, rep.Messages[0].Text, "EVENT TOMORROW:")

	rep, err = h.svc.RunCalendar(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, rep.Pending)
	assert.Len(t, h.dev.Sent(), 3)
	assert.Equal(t, 1, h.dev.Opens())
}

func TestRunCalendarPartialFailureStillMarks(t *testing.T) {
	h := newHarness(t)
	h.dev.FailSlots[0] = "busy"
	ctx := context.Background()

	rep, err := h.svc.RunCalendar(ctx, "")
	require.NoError(t, err)
	// Field Day reached ops; Net Meeting only targets public.
	assert.Equal(t, 1, rep.Marked)

	delete(h.dev.FailSlots, 0)
	rep, err = h.svc.RunCalendar(ctx, "")
	require.NoError(t, err)
	require.Len(t, rep.Pending, 1)
	assert.Equal(t, "Net Meeting", rep.Pending[0].Event.Name)
}

func TestResetLedger(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.RunCalendar(ctx, "")
	require.NoError(t, err)
	require.NoError(t, h.svc.ResetLedger(ctx))

	rep, err := h.svc.RunCalendar(ctx, "")
	require.NoError(t, err)
	assert.Len(t, rep.Pending, 2)
}

func TestPreview(t *testing.T) {
	h := newHarness(t)
	rems, err := h.svc.Preview(context.Background(), "", 7)
	require.NoError(t, err)
	require.Len(t, rems, 3)
	for _, r := range rems {
		assert.False(t, r.At.Before(h.now))
		assert.False(t, r.Sent)
		assert.NotEqual(t, "Far Away", r.Event.Name)
	}
}

func TestRunCalendarMissingSource(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.RunCalendar(context.Background(), filepath.Join(h.dir, "missing.csv"))
	require.Error(t, err)
	assert.Zero(t, h.dev.Opens())
}

func TestListChannels(t *testing.T) {
	h := newHarness(t)
	slots, err := h.svc.ListChannels(context.Background())
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, 3, slots[1].Slot)
	assert.True(t, h.dev.Closed())
}

func TestHistory(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.dev.FailSlots[3] = "busy"
	_, err := h.svc.Send(ctx, "public", "one")
	require.NoError(t, err)
	_, err = h.svc.Send(ctx, "ops", "two")
	require.NoError(t, err)

	recs, err := h.svc.History(ctx, dispatchlog.LogQuery{Status: "failed"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "ops", recs[0].ChannelKey)
	assert.Equal(t, "two", recs[0].Text)
}

func TestFeedMessagesChannelPrecedence(t *testing.T) {
	h := newHarness(t)
	items := []source.FeedItem{
		{Type: source.TypeQuake, Channel: "ops", Event: model.Quake{Magnitude: 4.2, Place: "5km N of Town"}},
		{Type: source.TypeAllClear, Event: model.AllClear{Place: "Town", RadiusMi: 50}},
		{Type: source.TypeQuake, Event: model.Quake{Magnitude: 2.0, Place: "Elsewhere"}},
	}
	msgs, err := h.svc.FeedMessages(items, "", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "ops", msgs[0].ChannelKey)
	assert.Equal(t, "public", msgs[1].ChannelKey)

	msgs, err = h.svc.FeedMessages(items, "ops", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	for _, m := range msgs {
		assert.Equal(t, "ops", m.ChannelKey)
		assert.LessOrEqual(t, m.Bytes, model.MaxMessageBytes)
	}
}

func TestFeedMessagesUnknownEvent(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.FeedMessages([]source.FeedItem{{Type: "x", Event: 42}}, "", 0)
	require.Error(t, err)
}

func TestRunFeed(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(h.dir, "feed.jsonl")
	feed := `{"type":"quake","magnitude":3.1,"place":"Near Hill","time":"2026-03-10T09:00:00Z","depth_km":8}
{"type":"solar","sfi":"150","sn":"120","aindex":"5","kindex":"2","xray":"B1.0","solarwind":"400","magfield":"3","protonflux":"1","updated":"10 Mar 2026 1700 GMT"}
`
	require.NoError(t, os.WriteFile(path, []byte(feed), 0o644))

	msgs, res, err := h.svc.RunFeed(context.Background(), path, "", 0)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(msgs), 3)
	assert.Equal(t, len(msgs), res.Count(dispatch.StatusSent))
	assert.Len(t, h.dev.Sent(), len(msgs))
}

func TestRemoteCalendarUsesCredentials(t *testing.T) {
	auth := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth <- r.Header.Get("Authorization")
		_, _ = w.Write([]byte(calendarCSV))
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.Calendar.Auth.Token = "sheet-token"
	svc, err := New(cfg,
		WithOpener(mqtt.NewMockDevice().Opener()),
		WithMetricsSink(coremetrics.NopSink{}),
		WithLogStore(dispatchlog.NopStore{}),
		WithLedgerStore(notify.NewFileStore(filepath.Join(t.TempDir(), "state.json"))),
		WithLogger(logger.NopLogger{}),
	)
	require.NoError(t, err)
	defer svc.Close()

	events, err := svc.LoadEvents(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, events, 3)
	assert.Equal(t, "Bearer sheet-token", <-auth)
}
