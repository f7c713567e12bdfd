package device

import (
	"errors"
	"fmt"
)

// ErrTimeout is returned when the device does not answer before the call
// deadline.
var ErrTimeout = errors.New("timeout waiting for device response")

// ErrClosed is returned for calls made after Close.
var ErrClosed = errors.New("device connection closed")

// SendError carries the failure payload returned by the device for a rejected
// send.
type SendError struct {
	Slot    int
	Payload string
}

func (e *SendError) Error() string {
	if e.Payload == "" {
		return fmt.Sprintf("device rejected message on slot %d", e.Slot)
	}
	return fmt.Sprintf("device rejected message on slot %d: %s", e.Slot, e.Payload)
}
