package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/meshcast/core/model"
)

// Feed item types.
const (
	TypeQuake    = "quake"
	TypeAlert    = "alert"
	TypeAllClear = "allclear"
	TypeSpot     = "spot"
	TypeWeather  = "weather"
	TypeSolar    = "solar"
)

// FeedItem is one domain event read from a feed. Event holds a value of the
// model type named by Type, e.g. model.Quake for "quake".
type FeedItem struct {
	Type    string
	Channel string
	Event   any
}

type envelope struct {
	Type    string `json:"type" yaml:"type"`
	Channel string `json:"channel" yaml:"channel"`
}

// ReadFeed loads a feed file. .yaml and .yml files hold a list of items;
// anything else is read as JSON lines.
func ReadFeed(path string) ([]FeedItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feed: %w", err)
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAMLFeed(f)
	default:
		return ParseJSONLFeed(f)
	}
}

// ParseJSONLFeed reads one JSON object per line. Blank lines and lines
// starting with # are ignored.
func ParseJSONLFeed(r io.Reader) ([]FeedItem, error) {
	var items []FeedItem
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for ln := 1; sc.Scan(); ln++ {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		var env envelope
		if err := json.Unmarshal(line, &env); err != nil {
			return nil, fmt.Errorf("feed line %d: %w", ln, err)
		}
		ev, err := decodeEvent(env.Type, func(v any) error { return json.Unmarshal(line, v) })
		if err != nil {
			return nil, fmt.Errorf("feed line %d: %w", ln, err)
		}
		items = append(items, FeedItem{Type: canonical(env.Type), Channel: env.Channel, Event: ev})
	}
	return items, sc.Err()
}

// ParseYAMLFeed reads a YAML sequence of items.
func ParseYAMLFeed(r io.Reader) ([]FeedItem, error) {
	var nodes []yaml.Node
	if err := yaml.NewDecoder(r).Decode(&nodes); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("feed: %w", err)
	}
	items := make([]FeedItem, 0, len(nodes))
	for i := range nodes {
		n := &nodes[i]
		var env envelope
		if err := n.Decode(&env); err != nil {
			return nil, fmt.Errorf("feed item %d (line %d): %w", i+1, n.Line, err)
		}
		ev, err := decodeEvent(env.Type, n.Decode)
		if err != nil {
			return nil, fmt.Errorf("feed item %d (line %d): %w", i+1, n.Line, err)
		}
		items = append(items, FeedItem{Type: canonical(env.Type), Channel: env.Channel, Event: ev})
	}
	return items, nil
}

func canonical(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	switch t {
	case "earthquake":
		return TypeQuake
	case "skywarn":
		return TypeAlert
	case "all_clear":
		return TypeAllClear
	case "sota", "pota":
		return TypeSpot
	}
	return t
}

func decodeEvent(t string, decode func(any) error) (any, error) {
	var v any
	switch canonical(t) {
	case TypeQuake:
		v = &model.Quake{}
	case TypeAlert:
		v = &model.WeatherAlert{}
	case TypeAllClear:
		v = &model.AllClear{}
	case TypeSpot:
		v = &model.Spot{}
	case TypeWeather:
		v = &model.WeatherReport{}
	case TypeSolar:
		v = &model.SolarReport{}
	case "":
		return nil, errors.New("missing type")
	default:
		return nil, fmt.Errorf("unknown type %q", t)
	}
	if err := decode(v); err != nil {
		return nil, err
	}
	switch e := v.(type) {
	case *model.Quake:
		return *e, nil
	case *model.WeatherAlert:
		return *e, nil
	case *model.AllClear:
		return *e, nil
	case *model.Spot:
		// "sota" and "pota" items name the program through their type.
		if e.Program == "" && canonical(t) != strings.ToLower(t) {
			e.Program = strings.ToUpper(strings.TrimSpace(t))
		}
		return *e, nil
	case *model.WeatherReport:
		return *e, nil
	default:
		return *(v.(*model.SolarReport)), nil
	}
}
