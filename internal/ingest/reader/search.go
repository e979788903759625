package reader

import (
	"context"
	"fmt"

	"github.com/gotd/td/tg"

	"github.com/lueurxax/taxi-order-bot/internal/discovery"
)

// SearchGroups runs a global search and keeps only the megagroups.
func (r *Reader) SearchGroups(ctx context.Context, query string, limit int) ([]discovery.FoundGroup, error) {
	api, err := r.currentAPI()
	if err != nil {
		return nil, err
	}

	found, err := api.ContactsSearch(ctx, &tg.ContactsSearchRequest{
		Q:     query,
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("contacts search %q: %w", query, err)
	}

	var groups []discovery.FoundGroup

	for _, chat := range found.Chats {
		channel, ok := chat.(*tg.Channel)
		if !ok {
			continue
		}

		if !channel.Megagroup && !channel.Gigagroup {
			continue
		}

		r.cachePeer(channel)

		groups = append(groups, discovery.FoundGroup{
			PeerID:   channel.ID,
			Title:    channel.Title,
			Username: channel.Username,
			Joined:   !channel.Left,
		})
	}

	return groups, nil
}

// Compile-time assertion that the reader can serve discovery searches.
var _ discovery.Searcher = (*Reader)(nil)
