package app

import (
	"context"
	"fmt"

	"github.com/kilianp07/meshcast/core/dispatch"
	"github.com/kilianp07/meshcast/core/message"
	"github.com/kilianp07/meshcast/core/model"
	"github.com/kilianp07/meshcast/core/source"
)

// FeedMessages renders feed items into messages. The channel of an item is
// override when set, then the item's own channel, then the default channel.
// A limit > 0 keeps only the first limit items.
func (s *Service) FeedMessages(items []source.FeedItem, override string, limit int) ([]model.OutboundMessage, error) {
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	var out []model.OutboundMessage
	for i, it := range items {
		key := override
		if key == "" {
			key = it.Channel
		}
		if key == "" {
			key = s.DefaultChannel()
		}
		renderings, err := render(s.builder, it)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		for _, r := range renderings {
			out = append(out, s.builder.Build(model.NormalizeName(key), r))
		}
	}
	return out, nil
}

func render(b message.Builder, it source.FeedItem) ([]message.Rendering, error) {
	switch e := it.Event.(type) {
	case model.Quake:
		return []message.Rendering{b.Quake(e)}, nil
	case model.WeatherAlert:
		return []message.Rendering{b.Alert(e)}, nil
	case model.AllClear:
		return []message.Rendering{b.AllClear(e)}, nil
	case model.Spot:
		return []message.Rendering{b.Spot(e)}, nil
	case model.WeatherReport:
		return []message.Rendering{b.Weather(e)}, nil
	case model.SolarReport:
		return b.Solar(e), nil
	default:
		return nil, fmt.Errorf("cannot render %s item (%T)", it.Type, it.Event)
	}
}

// RunFeed reads the feed file at path and broadcasts its messages.
func (s *Service) RunFeed(ctx context.Context, path, override string, limit int) ([]model.OutboundMessage, dispatch.Result, error) {
	items, err := source.ReadFeed(path)
	if err != nil {
		return nil, dispatch.Result{}, err
	}
	msgs, err := s.FeedMessages(items, override, limit)
	if err != nil {
		return nil, dispatch.Result{}, err
	}
	res, err := s.Broadcast(ctx, msgs)
	return msgs, res, err
}
