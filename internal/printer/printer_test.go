package printer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

func plain(t *testing.T) (*Printer, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
	var out, errb bytes.Buffer
	return New(&out, &errb), &out, &errb
}

func TestPrinterStreams(t *testing.T) {
	p, out, errb := plain(t)
	p.Success("sent %d", 2)
	p.Info("plain")
	p.Step("opening")
	p.Warning("careful")

	require.Equal(t, "✓ sent 2\nplain\n→ opening\n", out.String())
	require.Equal(t, "⚠ careful\n", errb.String())
}

func TestPrinterError(t *testing.T) {
	p, _, errb := plain(t)
	err := p.Error("config invalid", "device.broker is required", []string{"set BROKER"})
	require.EqualError(t, err, "config invalid")
	require.Contains(t, errb.String(), "✗ config invalid")
	require.Contains(t, errb.String(), "  - set BROKER")
}

func TestPrinterMessageAndOutcome(t *testing.T) {
	p, out, _ := plain(t)
	p.Message("24h reminder", "public", "line one\nline two")
	p.Outcome("failed", "ops", "alert", "device rejected")

	s := out.String()
	require.Contains(t, s, "[public] 24h reminder (17B)")
	require.Contains(t, s, "    line two")
	require.Contains(t, s, "✗ failed")
	require.True(t, strings.HasSuffix(s, "alert: device rejected\n"))
}

func TestPrinterTable(t *testing.T) {
	p, out, _ := plain(t)
	p.Table([]string{"KEY", "NAME"}, [][]string{{"public", "Public"}, {"ops", "Ops Channel"}})
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "KEY     NAME", lines[0])
	require.Equal(t, "ops     Ops Channel", lines[2])
}

func TestNewDefaultsErrStream(t *testing.T) {
	var out bytes.Buffer
	New(&out, nil).Warning("x")
	require.Contains(t, out.String(), "x")
}
