package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/meshcast/core/model"
)

const jsonlFeed = `# recent events
{"type":"quake","channel":"public","magnitude":4.6,"place":"10km NE of Ridgecrest, CA","time":"2026-10-14T08:30:00Z","depth_km":8.2,"distance_mi":112.4,"reference":"Bakersfield"}

{"type":"sota","channel":"ops","reference":"W6/CT-001","callsign":"K6ABC","mode":"CW","freq_mhz":14.062,"time":"2026-10-14T17:05:00Z","distance_mi":40,"bearing":"NE","origin":"home"}
{"type":"solar","sfi":"152","sn":"120","kindex":"5","xray":"M1.2","bands":{"80m-40m":"Good"}}
`

func TestParseJSONLFeed(t *testing.T) {
	items, err := ParseJSONLFeed(strings.NewReader(jsonlFeed))
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, TypeQuake, items[0].Type)
	assert.Equal(t, "public", items[0].Channel)
	q, ok := items[0].Event.(model.Quake)
	require.True(t, ok, "got %T", items[0].Event)
	assert.Equal(t, 4.6, q.Magnitude)
	require.NotNil(t, q.DistanceMi)
	assert.Equal(t, 112.4, *q.DistanceMi)

	s, ok := items[1].Event.(model.Spot)
	require.True(t, ok)
	assert.Equal(t, TypeSpot, items[1].Type)
	assert.Equal(t, "SOTA", s.Program)
	assert.Equal(t, "K6ABC", s.Callsign)

	sr, ok := items[2].Event.(model.SolarReport)
	require.True(t, ok)
	assert.Equal(t, "120", sr.Sunspots)
	assert.Equal(t, "Good", sr.Bands["80m-40m"])
	assert.Empty(t, items[2].Channel)
}

func TestParseJSONLFeedErrors(t *testing.T) {
	_, err := ParseJSONLFeed(strings.NewReader(`{"type":"tsunami"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
	_, err = ParseJSONLFeed(strings.NewReader(`{"channel":"public"}`))
	assert.ErrorContains(t, err, "missing type")
	_, err = ParseJSONLFeed(strings.NewReader("{not json"))
	assert.Error(t, err)
}

const yamlFeed = `- type: alert
  channel: public
  event: Severe Thunderstorm Warning
  severity: Severe
  area: Kern County Mountains
  expires: 2026-10-14T20:00:00Z
- type: allclear
  place: Bakersfield
  radius_mi: 50
- type: weather
  label: Bakersfield
  temp_f: 71
  humidity: 40
  condition: Sunny
`

func TestParseYAMLFeed(t *testing.T) {
	items, err := ParseYAMLFeed(strings.NewReader(yamlFeed))
	require.NoError(t, err)
	require.Len(t, items, 3)

	a, ok := items[0].Event.(model.WeatherAlert)
	require.True(t, ok)
	assert.Equal(t, "Severe", a.Severity)
	require.NotNil(t, a.Expires)
	assert.True(t, a.Expires.Equal(time.Date(2026, 10, 14, 20, 0, 0, 0, time.UTC)))

	c, ok := items[1].Event.(model.AllClear)
	require.True(t, ok)
	assert.Equal(t, 50.0, c.RadiusMi)

	w, ok := items[2].Event.(model.WeatherReport)
	require.True(t, ok)
	require.NotNil(t, w.TempF)
	assert.Equal(t, 71.0, *w.TempF)
	assert.Nil(t, w.HighF)
}

func TestParseYAMLFeedErrors(t *testing.T) {
	_, err := ParseYAMLFeed(strings.NewReader("- type: comet\n"))
	assert.ErrorContains(t, err, "unknown type")
	items, err := ParseYAMLFeed(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestReadFeedByExtension(t *testing.T) {
	dir := t.TempDir()
	y := filepath.Join(dir, "feed.yml")
	j := filepath.Join(dir, "feed.jsonl")
	require.NoError(t, os.WriteFile(y, []byte(yamlFeed), 0o644))
	require.NoError(t, os.WriteFile(j, []byte(jsonlFeed), 0o644))

	items, err := ReadFeed(y)
	require.NoError(t, err)
	assert.Len(t, items, 3)
	items, err = ReadFeed(j)
	require.NoError(t, err)
	assert.Len(t, items, 3)
	_, err = ReadFeed(filepath.Join(dir, "absent.jsonl"))
	assert.Error(t, err)
}
