package config

import (
	"bufio"
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/knadh/koanf/maps"
)

// legacyKeys maps the flat upper-case keys of meshcore.keys files onto
// configuration paths.
var legacyKeys = map[string]string{
	"MODE":           "device.mode",
	"BROKER":         "device.broker",
	"CLIENT_ID":      "device.client_id",
	"USERNAME":       "device.username",
	"PASSWORD":       "device.password",
	"TOPIC_PREFIX":   "device.topic_prefix",
	"EVENTS_CSV_URL": "calendar.events_url",
	"EVENTS_TOKEN":   "calendar.auth.token",
	"STATE_FILE":     "ledger.path",
	"DELAY":          "broadcast.delay_seconds",
	"TIMEZONE":       "broadcast.timezone",
	"LOG_LEVEL":      "log.level",
	"SENTRY_DSN":     "sentry.dsn",
	"SENTRY_ENV":     "sentry.environment",
	"API_TOKEN":      "api.token",
}

// listKeys hold comma-separated values.
var listKeys = map[string]bool{
	"calendar.windows_hours": true,
	"calendar.auth.scopes":   true,
}

// KeysParser reads the line-oriented KEY=VALUE format of meshcore.keys files.
// Blank lines and lines starting with # are ignored. CHANNEL lines may repeat
// and carry "key | name | secret". Dotted keys such as ledger.driver=sqlite
// address nested settings directly.
type KeysParser struct{}

// Keys returns a KeysParser.
func Keys() *KeysParser { return &KeysParser{} }

// Unmarshal parses b into a nested map.
func (p *KeysParser) Unmarshal(b []byte) (map[string]interface{}, error) {
	flat := make(map[string]interface{})
	var channels []interface{}
	sc := bufio.NewScanner(bytes.NewReader(b))
	for ln := 1; sc.Scan(); ln++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		name, val = strings.TrimSpace(name), strings.TrimSpace(val)
		if strings.EqualFold(name, "CHANNEL") {
			ch, err := parseChannel(val)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", ln, err)
			}
			channels = append(channels, ch)
			continue
		}
		path := configPath(name)
		flat[path] = keyValue(path, val)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	out := maps.Unflatten(flat, ".")
	if len(channels) > 0 {
		out["channels"] = channels
	}
	return out, nil
}

// Marshal renders a nested map back into the keys format.
func (p *KeysParser) Marshal(m map[string]interface{}) ([]byte, error) {
	var buf bytes.Buffer
	rest := make(map[string]interface{}, len(m))
	for k, v := range m {
		if k != "channels" {
			rest[k] = v
		}
	}
	flat, _ := maps.Flatten(rest, nil, ".")
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&buf, "%s=%s\n", k, formatValue(flat[k]))
	}
	if list, ok := m["channels"].([]interface{}); ok {
		for _, item := range list {
			ch, _ := item.(map[string]interface{})
			fmt.Fprintf(&buf, "CHANNEL=%v | %v | %v\n", ch["key"], ch["name"], ch["secret"])
		}
	}
	return buf.Bytes(), nil
}

func parseChannel(val string) (map[string]interface{}, error) {
	parts := strings.Split(val, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" {
		return nil, fmt.Errorf("bad CHANNEL %q (need: key | name | secret)", val)
	}
	ch := map[string]interface{}{"key": parts[0], "name": parts[1], "secret": ""}
	if len(parts) == 3 {
		ch["secret"] = parts[2]
	}
	return ch, nil
}

// configPath resolves a keys-file or environment key to a configuration path.
func configPath(name string) string {
	if p, ok := legacyKeys[strings.ToUpper(name)]; ok {
		return p
	}
	return strings.ToLower(name)
}

func keyValue(path, val string) interface{} {
	if !listKeys[path] {
		return val
	}
	var out []interface{}
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func formatValue(v interface{}) string {
	list, ok := v.([]interface{})
	if !ok {
		return fmt.Sprint(v)
	}
	parts := make([]string, len(list))
	for i, item := range list {
		parts[i] = fmt.Sprint(item)
	}
	return strings.Join(parts, ",")
}
