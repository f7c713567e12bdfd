package message

import (
	"fmt"
	"strings"

	"github.com/kilianp07/meshcast/core/model"
)

// CalendarPrefix names the lead time of a reminder.
func CalendarPrefix(windowHours int) string {
	switch windowHours {
	case 24:
		return "TOMORROW"
	case 2:
		return "IN 2 HOURS"
	default:
		return fmt.Sprintf("IN %dH", windowHours)
	}
}

// Calendar renders the reminder for ev fired windowHours before it starts.
// Fallbacks shorten the description to fit, then drop it.
func (b Builder) Calendar(ev model.CalendarEvent, windowHours int) Rendering {
	at := ev.At
	head := fmt.Sprintf("EVENT %s:\n%s\n%s @ %s",
		CalendarPrefix(windowHours), ev.Name, at.Format("Mon Jan 02"), at.Format("3:04 PM"))
	r := Rendering{Label: fmt.Sprintf("%s (%dh)", ev.Name, windowHours)}

	desc := strings.TrimSpace(ev.Description)
	if desc == "" {
		r.Variants = []string{head}
		return r
	}
	r.Variants = append(r.Variants, head+"\n"+desc)
	if room := b.budget - len(head) - len("\n..."); room > 0 {
		cut := strings.TrimRight(Truncate(desc, room), " ")
		if cut != "" && cut != desc {
			r.Variants = append(r.Variants, head+"\n"+cut+"...")
		}
	}
	r.Variants = append(r.Variants, head)
	return r
}
