package reader

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/lueurxax/taxi-order-bot/internal/platform/worker"
	"github.com/lueurxax/taxi-order-bot/internal/publish"
)

var _ publish.Sender = (*Reader)(nil)

// InviteManager periodically joins the private groups whose invite
// links were collected from messages or seeded by an admin. The daily
// join cap inside Actions keeps the account from joining too fast.
type InviteManager struct {
	database Repository
	actions  *publish.Actions
	logger   *zerolog.Logger
}

func NewInviteManager(database Repository, actions *publish.Actions, logger *zerolog.Logger) *InviteManager {
	return &InviteManager{
		database: database,
		actions:  actions,
		logger:   logger,
	}
}

func (m *InviteManager) Run(ctx context.Context, interval worker.IntervalConfig) error {
	interval.Name = "invite-manager"
	interval.OnTick = m.joinPending
	interval.Logger = m.logger

	return worker.IntervalLoop(ctx, interval)
}

func (m *InviteManager) joinPending(ctx context.Context) {
	links, err := m.database.FetchActiveInviteLinks(ctx)
	if err != nil {
		m.logger.Error().Err(err).Msg("fetching invite links failed")

		return
	}

	for _, link := range links {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// A failed link must not block the rest; once the daily cap
		// is hit the remaining attempts are cheap no-ops anyway.
		m.actions.TryJoin(ctx, link)
	}
}
