package publish

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/taxi-order-bot/internal/core/domain"
	"github.com/lueurxax/taxi-order-bot/internal/ratelimit"
	"github.com/lueurxax/taxi-order-bot/internal/runtimeconfig"
)

type stubSender struct {
	sentTarget  []string
	sentText    []string
	chatReplies []string
	joined      []string
	joinedPub   []string
	sendErr     error
	joinErr     error
}

func (s *stubSender) SendToTarget(_ context.Context, target, text string) error {
	if s.sendErr != nil {
		return s.sendErr
	}

	s.sentTarget = append(s.sentTarget, target)
	s.sentText = append(s.sentText, text)

	return nil
}

func (s *stubSender) SendToChat(_ context.Context, _ int64, text string) error {
	s.chatReplies = append(s.chatReplies, text)

	return nil
}

func (s *stubSender) JoinByInvite(_ context.Context, hash string) error {
	if s.joinErr != nil {
		return s.joinErr
	}

	s.joined = append(s.joined, hash)

	return nil
}

func (s *stubSender) JoinPublic(_ context.Context, username string) error {
	if s.joinErr != nil {
		return s.joinErr
	}

	s.joinedPub = append(s.joinedPub, username)

	return nil
}

type stubConfig struct {
	snap runtimeconfig.Snapshot
}

func (s *stubConfig) Snapshot() *runtimeconfig.Snapshot {
	snap := s.snap

	return &snap
}

type stubActionLog struct {
	actions  []string
	statuses []string
}

func (s *stubActionLog) InsertAction(_ context.Context, _, _ int64, action, status string) error {
	s.actions = append(s.actions, action)
	s.statuses = append(s.statuses, status)

	return nil
}

func testSnapshot() runtimeconfig.Snapshot {
	return runtimeconfig.Snapshot{
		ForwardTarget:       "me",
		PerGroupActionsHour: 15,
		PerGroupReplies10m:  3,
		JoinLimitDay:        2,
		GlobalActionsMinute: 25,
	}
}

func newTestActions(sender *stubSender, cfg *stubConfig, log *stubActionLog) *Actions {
	logger := zerolog.Nop()
	actions := NewActions(sender, ratelimit.NewCooldowns(ratelimit.NewWindowLimiter()), log, cfg, 1000, &logger)
	actions.randFn = func() float64 { return 0 }

	return actions
}

func TestExecuteForwardsOrder(t *testing.T) {
	sender := &stubSender{}
	log := &stubActionLog{}
	actions := newTestActions(sender, &stubConfig{snap: testSnapshot()}, log)

	msg := &domain.NormalizedMessage{
		Envelope: domain.MessageEnvelope{
			ChatID:       -1001234567890,
			MessageID:    42,
			RawText:      "Toshkentdan Samarqandga ertaga 2 kishi",
			ChatUsername: "taxi_uz",
		},
	}
	decision := domain.Decision{ShouldForward: true, Reason: "taxi_order", RegionTag: "#Samarqand"}

	err := actions.Execute(context.Background(), msg, decision)
	require.NoError(t, err)

	require.Len(t, sender.sentTarget, 1)
	assert.Equal(t, "me", sender.sentTarget[0])
	assert.Contains(t, sender.sentText[0], "Taxi buyurtma:")
	assert.Contains(t, sender.sentText[0], "#Samarqand")
	assert.Contains(t, sender.sentText[0], "https://t.me/taxi_uz/42")

	require.Len(t, log.actions, 1)
	assert.Equal(t, "publish", log.actions[0])
	assert.Equal(t, "ok", log.statuses[0])
}

func TestExecuteSkipsNonForward(t *testing.T) {
	sender := &stubSender{}
	actions := newTestActions(sender, &stubConfig{snap: testSnapshot()}, &stubActionLog{})

	msg := &domain.NormalizedMessage{Envelope: domain.MessageEnvelope{ChatID: 1}}

	err := actions.Execute(context.Background(), msg, domain.Decision{ShouldForward: false})
	require.NoError(t, err)
	assert.Empty(t, sender.sentTarget)
}

func TestExecuteSendFailureLogged(t *testing.T) {
	sender := &stubSender{sendErr: errors.New("peer flood")}
	log := &stubActionLog{}
	actions := newTestActions(sender, &stubConfig{snap: testSnapshot()}, log)

	msg := &domain.NormalizedMessage{
		Envelope: domain.MessageEnvelope{ChatID: -100555, MessageID: 1, RawText: "taksi kerak"},
	}

	err := actions.Execute(context.Background(), msg, domain.Decision{ShouldForward: true})
	require.Error(t, err)

	require.Len(t, log.statuses, 1)
	assert.Equal(t, "error", log.statuses[0])
}

func TestExecuteChatRateLimit(t *testing.T) {
	sender := &stubSender{}
	snap := testSnapshot()
	snap.PerGroupActionsHour = 1
	actions := newTestActions(sender, &stubConfig{snap: snap}, &stubActionLog{})

	msg := &domain.NormalizedMessage{
		Envelope: domain.MessageEnvelope{ChatID: -100777, MessageID: 1, RawText: "yo'lovchi bor"},
	}
	decision := domain.Decision{ShouldForward: true}

	require.NoError(t, actions.Execute(context.Background(), msg, decision))
	require.NoError(t, actions.Execute(context.Background(), msg, decision))

	assert.Len(t, sender.sentTarget, 1)
}

func TestExecuteReply(t *testing.T) {
	sender := &stubSender{}
	actions := newTestActions(sender, &stubConfig{snap: testSnapshot()}, &stubActionLog{})

	msg := &domain.NormalizedMessage{
		Envelope: domain.MessageEnvelope{ChatID: -1001234, MessageID: 2, RawText: "samarqandga odam bor"},
	}
	decision := domain.Decision{
		ShouldForward: true,
		ShouldReply:   true,
		ReplyText:     "Buyurtmangiz qabul qilindi.",
	}

	require.NoError(t, actions.Execute(context.Background(), msg, decision))

	require.Len(t, sender.chatReplies, 1)
	assert.Equal(t, "Buyurtmangiz qabul qilindi.", sender.chatReplies[0])
}

func TestTryJoinStripsInvitePrefix(t *testing.T) {
	sender := &stubSender{}
	actions := newTestActions(sender, &stubConfig{snap: testSnapshot()}, &stubActionLog{})

	ok := actions.TryJoin(context.Background(), "https://t.me/+AbCdEf123456")
	require.True(t, ok)

	require.Len(t, sender.joined, 1)
	assert.Equal(t, "AbCdEf123456", sender.joined[0])
}

func TestTryJoinDailyLimit(t *testing.T) {
	sender := &stubSender{}
	snap := testSnapshot()
	snap.JoinLimitDay = 1
	actions := newTestActions(sender, &stubConfig{snap: snap}, &stubActionLog{})

	assert.True(t, actions.TryJoin(context.Background(), "https://t.me/+first"))
	assert.False(t, actions.TryJoin(context.Background(), "https://t.me/+second"))
	assert.Len(t, sender.joined, 1)
}

func TestTryJoinPublic(t *testing.T) {
	sender := &stubSender{}
	log := &stubActionLog{}
	actions := newTestActions(sender, &stubConfig{snap: testSnapshot()}, log)

	require.True(t, actions.TryJoinPublic(context.Background(), "taxi_namangan", 123))
	assert.Equal(t, []string{"taxi_namangan"}, sender.joinedPub)

	assert.False(t, actions.TryJoinPublic(context.Background(), "", 0))
}

func TestTryJoinPublicFailureMarksError(t *testing.T) {
	sender := &stubSender{joinErr: errors.New("CHANNELS_TOO_MUCH")}
	log := &stubActionLog{}
	actions := newTestActions(sender, &stubConfig{snap: testSnapshot()}, log)

	assert.False(t, actions.TryJoinPublic(context.Background(), "taxi_xorazm", 9))
	require.Len(t, log.statuses, 1)
	assert.Equal(t, "error", log.statuses[0])
}

func TestInviteHash(t *testing.T) {
	assert.Equal(t, "AbC123", inviteHash("https://t.me/+AbC123"))
	assert.Equal(t, "AbC123", inviteHash("https://t.me/joinchat/AbC123"))
	assert.Equal(t, "AbC123", inviteHash("AbC123"))
}
