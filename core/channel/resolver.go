package channel

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilianp07/meshcast/core/device"
	"github.com/kilianp07/meshcast/core/logger"
	"github.com/kilianp07/meshcast/core/model"
)

// ErrChannelNotFound is returned when no device slot matches a channel.
var ErrChannelNotFound = errors.New("channel not found on device")

type lookup struct {
	res model.ResolvedChannel
	err error
}

// Resolver maps logical channels to device slots. A Resolver lives for one
// run and remembers every answer it gave, misses included. Context
// errors are not remembered.
type Resolver struct {
	conn  device.Connection
	slots int
	log   logger.Logger
	cache map[string]lookup
}

// NewResolver returns a Resolver scanning slots [0, slots). slots <= 0 selects
// model.MaxChannelSlots.
func NewResolver(conn device.Connection, slots int, log logger.Logger) *Resolver {
	if slots <= 0 {
		slots = model.MaxChannelSlots
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Resolver{conn: conn, slots: slots, log: log, cache: make(map[string]lookup)}
}

// Resolve returns the slot holding ch. A slot whose secret equals the
// configured secret wins over any name match; among name matches the lowest
// slot wins. Slots that fail to read are skipped.
func (r *Resolver) Resolve(ctx context.Context, ch model.LogicalChannel) (model.ResolvedChannel, error) {
	if hit, ok := r.cache[ch.Key]; ok {
		return hit.res, hit.err
	}
	res, err := r.scan(ctx, ch)
	if err == nil || errors.Is(err, ErrChannelNotFound) {
		r.cache[ch.Key] = lookup{res: res, err: err}
	}
	return res, err
}

func (r *Resolver) scan(ctx context.Context, ch model.LogicalChannel) (model.ResolvedChannel, error) {
	wantSecret := model.NormalizeSecret(ch.Secret)
	wantName := model.NormalizeName(ch.Name)
	nameSlot := -1
	for slot := 0; slot < r.slots; slot++ {
		if err := ctx.Err(); err != nil {
			return model.ResolvedChannel{}, err
		}
		desc, err := r.conn.Channel(ctx, slot)
		if err != nil {
			r.log.Debugf("slot %d unreadable: %v", slot, err)
			continue
		}
		if wantSecret != "" && model.NormalizeSecret(desc.Secret) == wantSecret {
			return model.ResolvedChannel{Key: ch.Key, Slot: slot}, nil
		}
		if nameSlot < 0 && wantName != "" && model.NormalizeName(desc.Name) == wantName {
			nameSlot = slot
		}
	}
	if nameSlot >= 0 {
		return model.ResolvedChannel{Key: ch.Key, Slot: nameSlot}, nil
	}
	return model.ResolvedChannel{}, fmt.Errorf("%w: %q", ErrChannelNotFound, ch.Name)
}

// ListSlots reads every slot and returns the configured ones.
func (r *Resolver) ListSlots(ctx context.Context) ([]model.SlotDescriptor, error) {
	var out []model.SlotDescriptor
	for slot := 0; slot < r.slots; slot++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		desc, err := r.conn.Channel(ctx, slot)
		if err != nil {
			r.log.Debugf("slot %d unreadable: %v", slot, err)
			continue
		}
		desc.Slot = slot
		if desc.Empty() {
			continue
		}
		out = append(out, desc)
	}
	return out, nil
}
