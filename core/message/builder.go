package message

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/kilianp07/meshcast/core/model"
)

// ErrOversize is reported for a message whose text exceeds the byte budget.
var ErrOversize = errors.New("message exceeds byte budget")

// Rendering is an event rendered as an ordered list of variants, the
// preferred one first and each following one more degraded.
type Rendering struct {
	Label    string
	Variants []string
}

// Builder turns renderings into messages that fit the transport byte budget.
type Builder struct {
	budget int
	loc    *time.Location
}

// NewBuilder returns a Builder for the given budget and display time zone.
// A budget <= 0 selects model.MaxMessageBytes; a nil location selects
// time.Local.
func NewBuilder(budget int, loc *time.Location) Builder {
	if budget <= 0 {
		budget = model.MaxMessageBytes
	}
	if loc == nil {
		loc = time.Local
	}
	return Builder{budget: budget, loc: loc}
}

// Budget returns the byte budget.
func (b Builder) Budget() int { return b.budget }

// Location returns the display time zone.
func (b Builder) Location() *time.Location { return b.loc }

// Fits reports whether s is valid UTF-8 within the budget.
func (b Builder) Fits(s string) bool {
	return len(s) <= b.budget && utf8.ValidString(s)
}

// Render returns the first variant that fits. When none does, the last
// variant is hard truncated.
func (b Builder) Render(variants ...string) string {
	for _, v := range variants {
		if b.Fits(v) {
			return v
		}
	}
	if len(variants) == 0 {
		return ""
	}
	return Truncate(variants[len(variants)-1], b.budget)
}

// Build renders r for one channel.
func (b Builder) Build(channelKey string, r Rendering) model.OutboundMessage {
	text := b.Render(r.Variants...)
	return model.OutboundMessage{
		ChannelKey: channelKey,
		Label:      r.Label,
		Text:       text,
		Bytes:      len(text),
	}
}

// Text builds a free-form message.
func (b Builder) Text(channelKey, label, text string) model.OutboundMessage {
	return b.Build(channelKey, Rendering{Label: label, Variants: []string{text}})
}

// Validate checks a message built elsewhere against the budget.
func (b Builder) Validate(m model.OutboundMessage) error {
	if !b.Fits(m.Text) {
		return fmt.Errorf("%w: %d > %d bytes", ErrOversize, len(m.Text), b.budget)
	}
	return nil
}
