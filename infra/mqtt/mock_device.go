package mqtt

import (
	"context"
	"fmt"
	"sync"

	"github.com/kilianp07/meshcast/core/device"
	"github.com/kilianp07/meshcast/core/model"
)

// SentMessage is one message accepted by a MockDevice.
type SentMessage struct {
	Slot int
	Text string
}

// MockDevice is an in-memory device.Connection used in tests and dry
// environments.
type MockDevice struct {
	Slots      map[int]model.SlotDescriptor
	FailSlots  map[int]string
	Unreadable map[int]bool

	mu     sync.Mutex
	sent   []SentMessage
	opens  int
	closed bool
}

var _ device.Connection = (*MockDevice)(nil)

// NewMockDevice creates a MockDevice holding the given slots.
func NewMockDevice(slots ...model.SlotDescriptor) *MockDevice {
	m := &MockDevice{
		Slots:      make(map[int]model.SlotDescriptor),
		FailSlots:  make(map[int]string),
		Unreadable: make(map[int]bool),
	}
	for _, s := range slots {
		m.Slots[s.Slot] = s
	}
	return m
}

// Opener returns a device.Opener handing out this device. Each open resets
// the closed flag.
func (m *MockDevice) Opener() device.Opener {
	return func(context.Context) (device.Connection, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.opens++
		m.closed = false
		return m, nil
	}
}

// Channel returns the configured slot, or an empty descriptor.
func (m *MockDevice) Channel(_ context.Context, slot int) (model.SlotDescriptor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return model.SlotDescriptor{}, device.ErrClosed
	}
	if m.Unreadable[slot] {
		return model.SlotDescriptor{}, fmt.Errorf("get_channel slot %d: %w", slot, device.ErrTimeout)
	}
	desc, ok := m.Slots[slot]
	if !ok {
		return model.SlotDescriptor{Slot: slot}, nil
	}
	desc.Slot = slot
	return desc, nil
}

// SendChannelMessage records the message or fails with the configured
// payload.
func (m *MockDevice) SendChannelMessage(_ context.Context, slot int, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return device.ErrClosed
	}
	if payload, ok := m.FailSlots[slot]; ok {
		return &device.SendError{Slot: slot, Payload: payload}
	}
	m.sent = append(m.sent, SentMessage{Slot: slot, Text: text})
	return nil
}

// Close marks the device closed.
func (m *MockDevice) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Sent returns a copy of the accepted messages.
func (m *MockDevice) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.sent...)
}

// Opens reports how many times the opener was used.
func (m *MockDevice) Opens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens
}

// Closed reports whether the last opened session was closed.
func (m *MockDevice) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
