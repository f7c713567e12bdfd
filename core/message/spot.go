package message

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kilianp07/meshcast/core/model"
)

// FreqDisplay formats a frequency in MHz: one decimal at VHF and above,
// otherwise up to three decimals with trailing zeros removed.
func FreqDisplay(mhz *float64) string {
	if mhz == nil {
		return "?"
	}
	if *mhz >= 100 {
		return strconv.FormatFloat(*mhz, 'f', 1, 64)
	}
	s := strconv.FormatFloat(*mhz, 'f', 3, 64)
	return strings.TrimRight(strings.TrimRight(s, "0"), ".")
}

// Spot renders an activation spot; the fallback packs it into four lines.
func (b Builder) Spot(s model.Spot) Rendering {
	mode := s.Mode
	if mode == "" {
		mode = "?"
	}
	freq := FreqDisplay(s.FreqMHz)
	when := s.Time.In(b.loc).Format("15:04 MST")
	where := fmt.Sprintf("%.0fmi %s", s.DistanceMi, s.Bearing)
	if s.Origin != "" {
		where += " of " + s.Origin
	}
	return Rendering{
		Label: fmt.Sprintf("%s %s %s", s.Program, s.Reference, s.Callsign),
		Variants: []string{
			fmt.Sprintf("%s\n%s\nCall: %s\n%s %s\n%s\n%s", s.Program, s.Reference, s.Callsign, mode, freq, when, where),
			fmt.Sprintf("%s %s\n%s %s %s\n%s\n%s", s.Program, s.Reference, s.Callsign, mode, freq, when, where),
		},
	}
}
