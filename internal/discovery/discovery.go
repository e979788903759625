// Package discovery searches Telegram for public taxi groups by
// keyword, records them, and joins a few per pass.
package discovery

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/taxi-order-bot/internal/platform/observability"
	"github.com/lueurxax/taxi-order-bot/internal/platform/worker"
	"github.com/lueurxax/taxi-order-bot/internal/publish"
	"github.com/lueurxax/taxi-order-bot/internal/runtimeconfig"
	db "github.com/lueurxax/taxi-order-bot/internal/storage"
)

const errJoinFailed = "join_failed"

// FoundGroup is one search hit that is a group.
type FoundGroup struct {
	PeerID   int64
	Title    string
	Username string
	Joined   bool
}

// Searcher runs global Telegram searches. Implemented by the reader.
type Searcher interface {
	SearchGroups(ctx context.Context, query string, limit int) ([]FoundGroup, error)
}

// Repository persists discovered groups.
type Repository interface {
	UpsertDiscoveredGroup(ctx context.Context, group db.DiscoveredGroup) error
	FetchUnjoinedPublicGroups(ctx context.Context, limit int) ([]db.DiscoveredGroup, error)
	MarkGroupJoined(ctx context.Context, peerID int64) error
	MarkGroupError(ctx context.Context, peerID int64, groupErr string) error
}

// ConfigSource exposes the current runtime settings.
type ConfigSource interface {
	Snapshot() *runtimeconfig.Snapshot
}

type Manager struct {
	searcher Searcher
	database Repository
	actions  *publish.Actions
	config   ConfigSource
	logger   *zerolog.Logger
}

func NewManager(searcher Searcher, database Repository, actions *publish.Actions, config ConfigSource, logger *zerolog.Logger) *Manager {
	return &Manager{
		searcher: searcher,
		database: database,
		actions:  actions,
		config:   config,
		logger:   logger,
	}
}

// Run drives discovery passes until the context is canceled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	return worker.IntervalLoop(ctx, worker.IntervalConfig{
		Name:       "group-discovery",
		Interval:   interval,
		RunOnStart: true,
		OnTick:     m.runOnce,
		Logger:     m.logger,
	})
}

func (m *Manager) runOnce(ctx context.Context) {
	cfg := m.config.Snapshot()

	if !cfg.DiscoveryEnabled {
		m.logger.Info().Msg("discovery disabled, skipping pass")

		return
	}

	for _, query := range cfg.DiscoveryQueries {
		select {
		case <-ctx.Done():
			return
		default:
		}

		m.discoverQuery(ctx, query, cfg.DiscoveryQueryLimit)
	}

	m.joinPending(ctx, cfg.DiscoveryJoinBatch)
}

func (m *Manager) discoverQuery(ctx context.Context, query string, limit int) {
	groups, err := m.searcher.SearchGroups(ctx, query, limit)
	if err != nil {
		observability.DiscoverySearches.WithLabelValues(db.StatusError).Inc()
		m.logger.Warn().Err(err).Str("query", query).Msg("group search failed")

		return
	}

	observability.DiscoverySearches.WithLabelValues(db.StatusOK).Inc()

	for _, group := range groups {
		err := m.database.UpsertDiscoveredGroup(ctx, db.DiscoveredGroup{
			PeerID:      group.PeerID,
			Username:    group.Username,
			Title:       group.Title,
			Active:      true,
			Joined:      group.Joined,
			SourceQuery: query,
		})
		if err != nil {
			m.logger.Warn().Err(err).Int64("peer_id", group.PeerID).Msg("discovered group upsert failed")

			continue
		}

		observability.DiscoveryGroupsFound.Inc()
	}

	m.logger.Info().Str("query", query).Int("found", len(groups)).Msg("discovery query finished")
}

func (m *Manager) joinPending(ctx context.Context, batch int) {
	pending, err := m.database.FetchUnjoinedPublicGroups(ctx, batch)
	if err != nil {
		m.logger.Error().Err(err).Msg("fetching join candidates failed")

		return
	}

	for _, group := range pending {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if m.actions.TryJoinPublic(ctx, group.Username, group.PeerID) {
			if err := m.database.MarkGroupJoined(ctx, group.PeerID); err != nil {
				m.logger.Warn().Err(err).Int64("peer_id", group.PeerID).Msg("mark joined failed")
			}

			m.logger.Info().Int64("peer_id", group.PeerID).Str("username", group.Username).Msg("joined public group")

			continue
		}

		if err := m.database.MarkGroupError(ctx, group.PeerID, errJoinFailed); err != nil {
			m.logger.Warn().Err(err).Int64("peer_id", group.PeerID).Msg("mark error failed")
		}
	}
}
