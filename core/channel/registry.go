package channel

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/kilianp07/meshcast/core/model"
)

// Registry holds the configured logical channels in configuration order.
type Registry struct {
	order []string
	byKey map[string]model.LogicalChannel
}

// NewRegistry validates and indexes channels. Keys are normalized; secrets
// must be hex.
func NewRegistry(channels []model.LogicalChannel) (*Registry, error) {
	r := &Registry{byKey: make(map[string]model.LogicalChannel, len(channels))}
	for i, ch := range channels {
		key := model.NormalizeName(ch.Key)
		if key == "" {
			return nil, fmt.Errorf("channel %d: empty key", i)
		}
		if _, dup := r.byKey[key]; dup {
			return nil, fmt.Errorf("channel %q: duplicate key", key)
		}
		secret := model.NormalizeSecret(ch.Secret)
		if secret != "" {
			if _, err := hex.DecodeString(secret); err != nil {
				return nil, fmt.Errorf("channel %q: secret is not hex: %w", key, err)
			}
		}
		if strings.TrimSpace(ch.Name) == "" && secret == "" {
			return nil, fmt.Errorf("channel %q: need a name or a secret", key)
		}
		r.byKey[key] = model.LogicalChannel{Key: key, Name: strings.TrimSpace(ch.Name), Secret: secret}
		r.order = append(r.order, key)
	}
	return r, nil
}

// Lookup finds a channel by key; the key is normalized first.
func (r *Registry) Lookup(key string) (model.LogicalChannel, bool) {
	if r == nil {
		return model.LogicalChannel{}, false
	}
	ch, ok := r.byKey[model.NormalizeName(key)]
	return ch, ok
}

// Keys returns the channel keys in configuration order.
func (r *Registry) Keys() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.order...)
}

// Default returns the first configured channel.
func (r *Registry) Default() (model.LogicalChannel, bool) {
	if r == nil || len(r.order) == 0 {
		return model.LogicalChannel{}, false
	}
	return r.byKey[r.order[0]], true
}

// Len returns the number of channels.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}
