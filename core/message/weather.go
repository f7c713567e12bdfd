package message

import (
	"math"
	"strconv"
	"strings"

	"github.com/kilianp07/meshcast/core/model"
)

// value prints an optional reading, "--" when absent.
func value(v *float64, suffix string) string {
	if v == nil {
		return "--"
	}
	if *v == math.Trunc(*v) {
		return strconv.FormatInt(int64(*v), 10) + suffix
	}
	return strconv.FormatFloat(*v, 'f', -1, 64) + suffix
}

// Weather renders the six-line conditions summary. The fallback drops the
// condition line.
func (b Builder) Weather(w model.WeatherReport) Rendering {
	gust := ""
	if w.WindGustMph != nil && *w.WindGustMph > 0 {
		gust = " G" + value(w.WindGustMph, "")
	}
	dir := w.WindDir
	if dir == "" {
		dir = "---"
	}
	lines := []string{
		"WX " + w.Label,
		"Temp " + value(w.TempF, "F") + " Feels " + value(w.FeelsLikeF, "F"),
		"Hi " + value(w.HighF, "F") + " Lo " + value(w.LowF, "F"),
		"Hum " + value(w.Humidity, "%") + " Rain " + value(w.PrecipChance, "%"),
		"Wind " + value(w.WindMph, "mph") + " " + dir + gust,
	}
	short := strings.Join(lines, "\n")
	r := Rendering{Label: "WX " + w.Label}
	if c := strings.TrimSpace(w.Condition); c != "" {
		r.Variants = append(r.Variants, short+"\n"+c)
	}
	r.Variants = append(r.Variants, short)
	return r
}
