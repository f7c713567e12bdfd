package model

import (
	"fmt"
	"time"
)

// EventDatetimeLayout is the layout of event timestamps in calendar sources
// and in ledger keys.
const EventDatetimeLayout = "2006-01-02 1504"

// NotificationRecord identifies one reminder: an event and a lead-time window.
type NotificationRecord struct {
	EventDatetime string
	EventName     string
	WindowHours   int
}

// Key returns the ledger key "<datetime>|<name>|<hours>h".
func (r NotificationRecord) Key() string {
	return fmt.Sprintf("%s|%s|%dh", r.EventDatetime, r.EventName, r.WindowHours)
}

// Window returns the lead time as a duration.
func (r NotificationRecord) Window() time.Duration {
	return time.Duration(r.WindowHours) * time.Hour
}
