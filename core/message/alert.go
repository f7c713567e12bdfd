package message

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kilianp07/meshcast/core/model"
)

var severityIcons = map[string]string{
	"extreme":  "🔴",
	"severe":   "🟠",
	"moderate": "🟡",
	"minor":    "🟢",
	"unknown":  "⚪",
}

var eventAbbrev = strings.NewReplacer(
	"Warning", "Wrn",
	"Watch", "Wtch",
	"Advisory", "Adv",
	"Statement", "Stmt",
	"Severe ", "Svr ",
	"Thunderstorm", "T-Storm",
	"Special Weather ", "Spc WX ",
)

// SeverityIcon maps an alert severity to its icon; unknown values get a white
// circle.
func SeverityIcon(severity string) string {
	if icon, ok := severityIcons[strings.ToLower(strings.TrimSpace(severity))]; ok {
		return icon
	}
	return severityIcons["unknown"]
}

// ShortEvent abbreviates common alert words.
func ShortEvent(event string) string {
	if event == "" {
		event = "Weather Alert"
	}
	return eventAbbrev.Replace(event)
}

func shortArea(area string) string {
	area = strings.TrimSpace(area)
	if utf8.RuneCountInString(area) > 45 {
		area = strings.TrimSpace(strings.Split(area, ";")[0])
	}
	if utf8.RuneCountInString(area) > 45 {
		area = clip(area, 42) + "..."
	}
	return area
}

// Alert renders a weather alert. The fallback drops the distance and caps the
// area at 30 characters.
func (b Builder) Alert(a model.WeatherAlert) Rendering {
	event := ShortEvent(a.Event)
	head := []string{"⚠️ SKYWARN", SeverityIcon(a.Severity) + " " + event}
	area := shortArea(a.Area)
	until := ""
	if a.Expires != nil {
		until = "Until " + a.Expires.In(b.loc).Format("3:04 PM MST")
	}

	full := append([]string{}, head...)
	if area != "" {
		full = append(full, area)
	}
	if until != "" {
		full = append(full, until)
	}
	if a.DistanceMi != nil && *a.DistanceMi > 0 {
		full = append(full, fmt.Sprintf("%.0fmi", *a.DistanceMi))
	}

	trimmed := append([]string{}, head...)
	if area != "" {
		if utf8.RuneCountInString(area) > 30 {
			area = clip(area, 30) + "..."
		}
		trimmed = append(trimmed, area)
	}
	if until != "" {
		trimmed = append(trimmed, until)
	}

	return Rendering{
		Label:    event,
		Variants: []string{strings.Join(full, "\n"), strings.Join(trimmed, "\n")},
	}
}

// AllClear renders the no-active-alerts message.
func (b Builder) AllClear(c model.AllClear) Rendering {
	return Rendering{
		Label:    "All clear",
		Variants: []string{fmt.Sprintf("⚠️ SKYWARN\n✅ No active alerts\n%s\nRadius: %.0fmi", c.Place, c.RadiusMi)},
	}
}
