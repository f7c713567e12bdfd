package device

import (
	"context"

	"github.com/kilianp07/meshcast/core/model"
)

// Connection is an exclusive session with one radio. Calls are made one at a
// time; implementations need not be safe for concurrent use.
type Connection interface {
	// Channel reads the configuration of one channel slot.
	Channel(ctx context.Context, slot int) (model.SlotDescriptor, error)

	// SendChannelMessage transmits text on the channel at slot. A device-side
	// rejection is reported as *SendError.
	SendChannelMessage(ctx context.Context, slot int, text string) error

	// Close releases the session.
	Close() error
}

// Opener opens a new Connection. It is called at most once per run.
type Opener func(ctx context.Context) (Connection, error)
