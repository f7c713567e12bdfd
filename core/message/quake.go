package message

import (
	"fmt"
	"strings"

	"github.com/kilianp07/meshcast/core/model"
)

const kmToMi = 0.621371

var placeSuffixes = strings.NewReplacer(", California", "", ", CA", "")

// MagnitudeEmoji grades a magnitude by color.
func MagnitudeEmoji(mag float64) string {
	switch {
	case mag >= 5.0:
		return "🔴"
	case mag >= 4.0:
		return "🟠"
	case mag >= 3.0:
		return "🟡"
	default:
		return "🟢"
	}
}

// Quake renders an earthquake report. Fallbacks drop the distance line, then
// cap the place name at 40 characters.
func (b Builder) Quake(q model.Quake) Rendering {
	place := placeSuffixes.Replace(q.Place)
	depth := fmt.Sprintf("Depth: %.1fmi", q.DepthKm*kmToMi)
	when := q.Time.In(b.loc).Format("Jan 02 15:04 MST")
	head := func(p string) string {
		return fmt.Sprintf("EARTHQUAKE\n%s M%.1f - %s", MagnitudeEmoji(q.Magnitude), q.Magnitude, p)
	}

	r := Rendering{Label: fmt.Sprintf("M%.1f %s", q.Magnitude, place)}
	if q.DistanceMi != nil {
		from := "away"
		if q.Reference != "" {
			from = "from " + q.Reference
		}
		r.Variants = append(r.Variants,
			fmt.Sprintf("%s\n%.1fmi %s | %s\n%s", head(place), *q.DistanceMi, from, depth, when))
	}
	r.Variants = append(r.Variants,
		fmt.Sprintf("%s\n%s\n%s", head(place), depth, when),
		fmt.Sprintf("%s\n%s\n%s", head(ellipsize(place, 40)), depth, when),
	)
	return r
}
