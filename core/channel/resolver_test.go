package channel

import (
	"context"
	"errors"
	"testing"

	"github.com/kilianp07/meshcast/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDevice struct {
	slots map[int]model.SlotDescriptor
	fail  map[int]bool
	reads int
}

func (f *fakeDevice) Channel(_ context.Context, slot int) (model.SlotDescriptor, error) {
	f.reads++
	if f.fail[slot] {
		return model.SlotDescriptor{}, errors.New("read failed")
	}
	d := f.slots[slot]
	d.Slot = slot
	return d, nil
}

func (f *fakeDevice) SendChannelMessage(context.Context, int, string) error { return nil }
func (f *fakeDevice) Close() error                                          { return nil }

func TestResolveSecretOutranksName(t *testing.T) {
	dev := &fakeDevice{slots: map[int]model.SlotDescriptor{
		1: {Name: "Ops Channel", Secret: "ffff"},
		3: {Name: "something-else", Secret: "AB12"},
	}}
	r := NewResolver(dev, 0, nil)
	got, err := r.Resolve(context.Background(), model.LogicalChannel{Key: "ops", Name: "Ops Channel", Secret: "ab12"})
	require.NoError(t, err)
	assert.Equal(t, model.ResolvedChannel{Key: "ops", Slot: 3}, got)
}

func TestResolveByNormalizedName(t *testing.T) {
	dev := &fakeDevice{slots: map[int]model.SlotDescriptor{
		2: {Name: " HAM-Radio "},
		5: {Name: "hamradio"},
	}}
	r := NewResolver(dev, 0, nil)
	got, err := r.Resolve(context.Background(), model.LogicalChannel{Key: "ham", Name: "Ham Radio", Secret: "0011"})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Slot)
}

func TestResolveSkipsUnreadableSlots(t *testing.T) {
	dev := &fakeDevice{
		slots: map[int]model.SlotDescriptor{4: {Name: "x", Secret: "beef"}},
		fail:  map[int]bool{0: true, 1: true, 4: false},
	}
	r := NewResolver(dev, 0, nil)
	got, err := r.Resolve(context.Background(), model.LogicalChannel{Key: "x", Secret: "BEEF"})
	require.NoError(t, err)
	assert.Equal(t, 4, got.Slot)
}

func TestResolveNotFoundIsCached(t *testing.T) {
	dev := &fakeDevice{slots: map[int]model.SlotDescriptor{}}
	r := NewResolver(dev, 0, nil)
	ch := model.LogicalChannel{Key: "gone", Name: "Gone", Secret: "aa"}

	_, err := r.Resolve(context.Background(), ch)
	assert.ErrorIs(t, err, ErrChannelNotFound)
	assert.Equal(t, model.MaxChannelSlots, dev.reads)

	_, err = r.Resolve(context.Background(), ch)
	assert.ErrorIs(t, err, ErrChannelNotFound)
	assert.Equal(t, model.MaxChannelSlots, dev.reads, "second lookup must not rescan")
}

func TestResolveCancelledIsNotCached(t *testing.T) {
	dev := &fakeDevice{slots: map[int]model.SlotDescriptor{2: {Name: "Ops"}}}
	r := NewResolver(dev, 4, nil)
	ch := model.LogicalChannel{Key: "ops", Name: "Ops"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Resolve(ctx, ch)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, dev.reads)

	got, err := r.Resolve(context.Background(), ch)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Slot)
}

func TestResolveHitIsCached(t *testing.T) {
	dev := &fakeDevice{slots: map[int]model.SlotDescriptor{0: {Name: "public"}}}
	r := NewResolver(dev, 0, nil)
	ch := model.LogicalChannel{Key: "public", Name: "Public"}
	for i := 0; i < 3; i++ {
		got, err := r.Resolve(context.Background(), ch)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Slot)
	}
	assert.Equal(t, model.MaxChannelSlots, dev.reads)
}

func TestResolveEmptyNameNeverMatchesEmptySlot(t *testing.T) {
	dev := &fakeDevice{slots: map[int]model.SlotDescriptor{}}
	r := NewResolver(dev, 4, nil)
	_, err := r.Resolve(context.Background(), model.LogicalChannel{Key: "k", Secret: "ab"})
	assert.ErrorIs(t, err, ErrChannelNotFound)
	assert.Equal(t, 4, dev.reads)
}

func TestListSlots(t *testing.T) {
	dev := &fakeDevice{
		slots: map[int]model.SlotDescriptor{0: {Name: "Public", Secret: "8b33"}, 7: {Name: "ops"}},
		fail:  map[int]bool{3: true},
	}
	r := NewResolver(dev, 0, nil)
	got, err := r.ListSlots(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Slot)
	assert.Equal(t, 7, got[1].Slot)
}

func TestRegistry(t *testing.T) {
	reg, err := NewRegistry([]model.LogicalChannel{
		{Key: "Ham Radio", Name: "Ham Radio", Secret: "AB12"},
		{Key: "public", Name: "Public"},
	})
	require.NoError(t, err)
	ch, ok := reg.Lookup("ham-radio")
	require.True(t, ok)
	assert.Equal(t, model.LogicalChannel{Key: "hamradio", Name: "Ham Radio", Secret: "ab12"}, ch)
	assert.Equal(t, []string{"hamradio", "public"}, reg.Keys())
	def, ok := reg.Default()
	require.True(t, ok)
	assert.Equal(t, "hamradio", def.Key)
}

func TestRegistryRejectsBadEntries(t *testing.T) {
	_, err := NewRegistry([]model.LogicalChannel{{Key: "a", Name: "A", Secret: "xyz"}})
	assert.Error(t, err)
	_, err = NewRegistry([]model.LogicalChannel{{Key: "a", Name: "A"}, {Key: "A", Name: "B"}})
	assert.Error(t, err)
	_, err = NewRegistry([]model.LogicalChannel{{Key: " ", Name: "A"}})
	assert.Error(t, err)
}
