// Package printer renders human-facing CLI output.
package printer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

func init() {
	// fatih/color disables itself when stdout is not a TTY; piped cron
	// output keeps its colors unless NO_COLOR is set.
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)
)

// Printer writes formatted lines to an output and an error stream.
type Printer struct {
	out io.Writer
	err io.Writer
}

// New returns a Printer writing to out and err. A nil err falls back to out.
func New(out, err io.Writer) *Printer {
	if err == nil {
		err = out
	}
	return &Printer{out: out, err: err}
}

func (p *Printer) Success(format string, a ...any) {
	_, _ = green.Fprintf(p.out, "✓ "+format+"\n", a...)
}

func (p *Printer) Info(format string, a ...any) {
	_, _ = fmt.Fprintf(p.out, format+"\n", a...)
}

func (p *Printer) Warning(format string, a ...any) {
	_, _ = yellow.Fprintf(p.err, "⚠ "+format+"\n", a...)
}

func (p *Printer) Step(format string, a ...any) {
	_, _ = cyan.Fprintf(p.out, "→ "+format+"\n", a...)
}

// Error prints a titled error with an optional explanation and
// suggestions, and returns the title as an error.
func (p *Printer) Error(title, explanation string, suggestions []string) error {
	_, _ = red.Fprintf(p.err, "✗ %s\n", title)
	if explanation != "" {
		_, _ = fmt.Fprintf(p.err, "  %s\n", explanation)
	}
	for _, s := range suggestions {
		_, _ = fmt.Fprintf(p.err, "  - %s\n", s)
	}
	return fmt.Errorf("%s", title)
}

// Message prints a broadcast message preview with its size.
func (p *Printer) Message(label, channel, text string) {
	_, _ = cyan.Fprintf(p.out, "[%s] ", channel)
	_, _ = fmt.Fprintf(p.out, "%s ", label)
	_, _ = faint.Fprintf(p.out, "(%dB)\n", len(text))
	for _, line := range strings.Split(text, "\n") {
		_, _ = fmt.Fprintf(p.out, "    %s\n", line)
	}
}

// Outcome prints a single dispatch result line colored by status.
func (p *Printer) Outcome(status, channel, label, detail string) {
	c := green
	mark := "✓"
	switch status {
	case "skipped":
		c, mark = yellow, "-"
	case "failed":
		c, mark = red, "✗"
	}
	line := fmt.Sprintf("%s %-7s %-12s %s", mark, status, channel, label)
	if detail != "" {
		line += ": " + detail
	}
	_, _ = c.Fprintln(p.out, line)
}

// Table prints rows padded into aligned columns.
func (p *Printer) Table(header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, r := range rows {
		for i := 0; i < len(r) && i < len(widths); i++ {
			if len(r[i]) > widths[i] {
				widths[i] = len(r[i])
			}
		}
	}
	write := func(cells []string, c *color.Color) {
		parts := make([]string, len(widths))
		for i := range widths {
			v := ""
			if i < len(cells) {
				v = cells[i]
			}
			parts[i] = fmt.Sprintf("%-*s", widths[i], v)
		}
		_, _ = c.Fprintln(p.out, strings.TrimRight(strings.Join(parts, "  "), " "))
	}
	write(header, faint)
	for _, r := range rows {
		write(r, color.New())
	}
}
