package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/taxi-order-bot/internal/publish"
	"github.com/lueurxax/taxi-order-bot/internal/ratelimit"
	"github.com/lueurxax/taxi-order-bot/internal/runtimeconfig"
	db "github.com/lueurxax/taxi-order-bot/internal/storage"
)

type stubSearcher struct {
	groups  []FoundGroup
	queries []string
	err     error
}

func (s *stubSearcher) SearchGroups(_ context.Context, query string, _ int) ([]FoundGroup, error) {
	s.queries = append(s.queries, query)

	return s.groups, s.err
}

type stubRepo struct {
	upserted []db.DiscoveredGroup
	pending  []db.DiscoveredGroup
	joined   []int64
	errored  []int64
}

func (r *stubRepo) UpsertDiscoveredGroup(_ context.Context, group db.DiscoveredGroup) error {
	r.upserted = append(r.upserted, group)

	return nil
}

func (r *stubRepo) FetchUnjoinedPublicGroups(_ context.Context, _ int) ([]db.DiscoveredGroup, error) {
	return r.pending, nil
}

func (r *stubRepo) MarkGroupJoined(_ context.Context, peerID int64) error {
	r.joined = append(r.joined, peerID)

	return nil
}

func (r *stubRepo) MarkGroupError(_ context.Context, peerID int64, _ string) error {
	r.errored = append(r.errored, peerID)

	return nil
}

type stubConfig struct {
	snap runtimeconfig.Snapshot
}

func (s *stubConfig) Snapshot() *runtimeconfig.Snapshot {
	snap := s.snap

	return &snap
}

type stubSender struct {
	joined  []string
	joinErr error
}

func (s *stubSender) SendToTarget(context.Context, string, string) error { return nil }
func (s *stubSender) SendToChat(context.Context, int64, string) error    { return nil }
func (s *stubSender) JoinByInvite(context.Context, string) error         { return nil }

func (s *stubSender) JoinPublic(_ context.Context, username string) error {
	if s.joinErr != nil {
		return s.joinErr
	}

	s.joined = append(s.joined, username)

	return nil
}

type nopActionLog struct{}

func (nopActionLog) InsertAction(context.Context, int64, int64, string, string) error { return nil }

func discoveryConfig() *stubConfig {
	return &stubConfig{snap: runtimeconfig.Snapshot{
		DiscoveryEnabled:    true,
		DiscoveryQueries:    []string{"taxi toshkent", "taksi samarqand"},
		DiscoveryQueryLimit: 20,
		DiscoveryJoinBatch:  4,
		JoinLimitDay:        10,
		GlobalActionsMinute: 25,
	}}
}

func newTestManager(searcher Searcher, repo Repository, sender publish.Sender, cfg ConfigSource) *Manager {
	logger := zerolog.Nop()
	actions := publish.NewActions(sender, ratelimit.NewCooldowns(ratelimit.NewWindowLimiter()), nopActionLog{}, cfg, 1000, &logger)

	return NewManager(searcher, repo, actions, cfg, &logger)
}

func TestRunOnceDiscoversAndStores(t *testing.T) {
	searcher := &stubSearcher{groups: []FoundGroup{
		{PeerID: 111, Title: "Toshkent Taxi", Username: "toshkent_taxi", Joined: false},
		{PeerID: 222, Title: "Samarqand Yo'lovchilar", Username: "", Joined: true},
	}}
	repo := &stubRepo{}
	cfg := discoveryConfig()

	m := newTestManager(searcher, repo, &stubSender{}, cfg)
	m.runOnce(context.Background())

	assert.Equal(t, []string{"taxi toshkent", "taksi samarqand"}, searcher.queries)

	// Both hits stored per query.
	require.Len(t, repo.upserted, 4)
	assert.Equal(t, int64(111), repo.upserted[0].PeerID)
	assert.Equal(t, "taxi toshkent", repo.upserted[0].SourceQuery)
	assert.False(t, repo.upserted[0].Joined)
	assert.True(t, repo.upserted[1].Joined)
}

func TestRunOnceSkipsWhenDisabled(t *testing.T) {
	searcher := &stubSearcher{}
	cfg := discoveryConfig()
	cfg.snap.DiscoveryEnabled = false

	m := newTestManager(searcher, &stubRepo{}, &stubSender{}, cfg)
	m.runOnce(context.Background())

	assert.Empty(t, searcher.queries)
}

func TestJoinPendingMarksJoined(t *testing.T) {
	repo := &stubRepo{pending: []db.DiscoveredGroup{
		{PeerID: 111, Username: "toshkent_taxi"},
		{PeerID: 222, Username: "andijon_taxi"},
	}}
	sender := &stubSender{}

	m := newTestManager(&stubSearcher{}, repo, sender, discoveryConfig())
	m.joinPending(context.Background(), 4)

	assert.Equal(t, []string{"toshkent_taxi", "andijon_taxi"}, sender.joined)
	assert.Equal(t, []int64{111, 222}, repo.joined)
	assert.Empty(t, repo.errored)
}

func TestJoinPendingMarksError(t *testing.T) {
	repo := &stubRepo{pending: []db.DiscoveredGroup{{PeerID: 333, Username: "buxoro_taxi"}}}
	sender := &stubSender{joinErr: errors.New("CHANNELS_TOO_MUCH")}

	m := newTestManager(&stubSearcher{}, repo, sender, discoveryConfig())
	m.joinPending(context.Background(), 4)

	assert.Empty(t, repo.joined)
	assert.Equal(t, []int64{333}, repo.errored)
}
