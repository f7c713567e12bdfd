package message

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kilianp07/meshcast/core/model"
)

// hfBands lists the band pairs in report order with their display labels.
var hfBands = []struct{ key, label string }{
	{"80m-40m", "80/40"},
	{"30m-20m", "30/20"},
	{"17m-15m", "17/15"},
	{"12m-10m", "12/10"},
}

var condIcons = map[string]string{
	"Excellent": "⭐",
	"Good":      "✅",
	"Fair":      "🟡",
	"Poor":      "❌",
}

// GScale maps the planetary K index to the NOAA geomagnetic storm scale.
func GScale(k int) string {
	switch {
	case k >= 9:
		return "G5"
	case k >= 8:
		return "G4"
	case k >= 7:
		return "G3"
	case k >= 6:
		return "G2"
	case k >= 5:
		return "G1"
	}
	return ""
}

func splitXRay(xray string) (byte, float64) {
	xray = strings.ToUpper(strings.TrimSpace(xray))
	if xray == "" {
		return 0, 0
	}
	v, err := strconv.ParseFloat(xray[1:], 64)
	if err != nil {
		v = 0
	}
	return xray[0], v
}

// RScale maps an X-ray flare class to the NOAA radio blackout scale.
func RScale(xray string) string {
	cls, v := splitXRay(xray)
	switch cls {
	case 'X':
		if v >= 20 {
			return "R5"
		}
		if v >= 10 {
			return "R4"
		}
		return "R3"
	case 'M':
		if v >= 5 {
			return "R2"
		}
		return "R1"
	}
	return ""
}

// SScale maps proton flux in pfu to the NOAA radiation storm scale.
func SScale(flux string) string {
	pfu, err := strconv.ParseFloat(strings.TrimSpace(flux), 64)
	if err != nil {
		return ""
	}
	switch {
	case pfu >= 100_000:
		return "S5"
	case pfu >= 10_000:
		return "S4"
	case pfu >= 1_000:
		return "S3"
	case pfu >= 100:
		return "S2"
	case pfu >= 10:
		return "S1"
	}
	return ""
}

func geoIcon(k int, xray string) string {
	cls, v := splitXRay(xray)
	if k >= 5 || cls == 'X' || (cls == 'M' && v >= 5) {
		return "❌"
	}
	if k >= 3 || cls == 'M' || cls == 'C' {
		return "🟡"
	}
	return "✅"
}

// shortStamp turns "10 Feb 2026 1800 GMT" into "10 Feb 1800z".
func shortStamp(raw string) string {
	parts := strings.Fields(strings.ReplaceAll(raw, " GMT", ""))
	if len(parts) >= 4 {
		return fmt.Sprintf("%s %s %sz", parts[0], parts[1], parts[3])
	}
	return clip(raw, 15)
}

// Solar renders a space weather report as several messages: indices, band
// conditions and, when conditions are disturbed, a NOAA scale alert.
func (b Builder) Solar(r model.SolarReport) []Rendering {
	k, err := strconv.Atoi(strings.TrimSpace(r.KIndex))
	if err != nil {
		k = 0
	}
	footer := fmt.Sprintf("[%s] %s", shortStamp(r.Updated), geoIcon(k, r.XRay))
	core := fmt.Sprintf("☀️ SOLAR:\nSFI=%s\nSN=%s\nA=%s\nK=%s\nXray=%s", r.SFI, r.Sunspots, r.AIndex, r.KIndex, r.XRay)
	out := []Rendering{{
		Label: "Solar Indices",
		Variants: []string{
			fmt.Sprintf("%s\nWind=%skm/s\nBt=%snT\n%s", core, r.SolarWind, r.MagField, footer),
			core + "\n" + footer,
		},
	}}

	var bands []string
	for _, hb := range hfBands {
		icon, ok := condIcons[r.Bands[hb.key]]
		if !ok {
			icon = "?"
		}
		for _, band := range strings.Split(hb.label, "/") {
			bands = append(bands, band+" = "+icon)
		}
	}
	out = append(out, Rendering{
		Label:    "HF Band Conditions",
		Variants: []string{"📡 BANDS D/N:\n" + strings.Join(bands, "\n")},
	})

	if alert := solarAlert(r, k); alert != "" {
		out = append(out, Rendering{Label: "NOAA Alert", Variants: []string{alert}})
	}
	return out
}

func solarAlert(r model.SolarReport, k int) string {
	g, rs, s := GScale(k), RScale(r.XRay), SScale(r.ProtonFlux)
	if k < 4 && rs == "" && s == "" {
		return ""
	}
	var parts []string
	switch {
	case g != "":
		parts = append(parts, fmt.Sprintf("Geomag=%s(K=%d+)", g, k))
	case k == 4:
		parts = append(parts, "Geomag=Active(K=4)")
	}
	if rs != "" {
		parts = append(parts, fmt.Sprintf("Flare=%s(%s)", r.XRay, rs))
	} else if cls, _ := splitXRay(r.XRay); cls == 'M' || cls == 'X' || cls == 'C' {
		parts = append(parts, "Flare="+r.XRay)
	}
	if s != "" {
		parts = append(parts, "Proton="+s)
	}
	if wv, err := strconv.ParseFloat(strings.TrimSpace(r.SolarWind), 64); err == nil && wv >= 500 {
		parts = append(parts, fmt.Sprintf("Wind=%dkm/s", int(math.Round(wv))))
	}
	if len(parts) == 0 {
		return ""
	}
	return "💥🔆💫 ALERT: " + strings.Join(parts, " ")
}
