package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/taxi-order-bot/internal/core/domain"
	"github.com/lueurxax/taxi-order-bot/internal/fastfilter"
	"github.com/lueurxax/taxi-order-bot/internal/rules"
)

type stubInvites struct {
	mu    sync.Mutex
	links []string
	chats []int64
}

func (s *stubInvites) UpsertPrivateInviteLink(_ context.Context, inviteLink string, sourceChatID *int64, _ string, _ bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.links = append(s.links, inviteLink)
	if sourceChatID != nil {
		s.chats = append(s.chats, *sourceChatID)
	}

	return nil
}

type stubExecutor struct {
	mu       sync.Mutex
	executed []domain.Decision
	done     chan struct{}
}

func (s *stubExecutor) Execute(_ context.Context, _ *domain.NormalizedMessage, decision domain.Decision) error {
	s.mu.Lock()
	s.executed = append(s.executed, decision)
	s.mu.Unlock()

	if s.done != nil {
		close(s.done)
	}

	return nil
}

func newTestPipeline(cfg Config, executor Executor, invites InviteStore) *Pipeline {
	logger := zerolog.Nop()

	return New(cfg,
		fastfilter.New(18, nil, nil),
		rules.NewEngine(18, nil, nil),
		executor, invites, &logger)
}

func orderEnvelope(messageID int64) domain.MessageEnvelope {
	return domain.MessageEnvelope{
		ChatID:    -1001234567890,
		MessageID: messageID,
		RawText:   "Toshkentdan Samarqandga taxi kerak. Tel: +998 90 123 45 67",
	}
}

func TestIngestQueuesCandidate(t *testing.T) {
	p := newTestPipeline(Config{Workers: 1, QueueSize: 10}, &stubExecutor{}, nil)

	p.Ingest(context.Background(), orderEnvelope(1))

	assert.Equal(t, 1, p.QueueLen())
}

func TestIngestSkipsChatter(t *testing.T) {
	p := newTestPipeline(Config{Workers: 1, QueueSize: 10}, &stubExecutor{}, nil)

	p.Ingest(context.Background(), domain.MessageEnvelope{
		ChatID:    -1001234567890,
		MessageID: 2,
		RawText:   "Assalomu alaykum hammaga yaxshi kayfiyat tilayman bugun",
	})

	assert.Zero(t, p.QueueLen())
}

func TestIngestSkipsDirectChats(t *testing.T) {
	p := newTestPipeline(Config{Workers: 1, QueueSize: 10}, &stubExecutor{}, nil)

	env := orderEnvelope(3)
	env.ChatID = 777000

	p.Ingest(context.Background(), env)

	assert.Zero(t, p.QueueLen())
}

func TestIngestCollectsInviteLinks(t *testing.T) {
	invites := &stubInvites{}
	p := newTestPipeline(Config{Workers: 1, QueueSize: 10}, &stubExecutor{}, invites)

	p.Ingest(context.Background(), domain.MessageEnvelope{
		ChatID:    -100555,
		MessageID: 4,
		RawText:   "guruhga qoshiling https://t.me/+AbCdEf123456 yoki https://t.me/joinchat/XyZ_987",
	})

	require.Equal(t, []string{
		"https://t.me/+AbCdEf123456",
		"https://t.me/joinchat/XyZ_987",
	}, invites.links)
	assert.Equal(t, []int64{-100555, -100555}, invites.chats)
}

func TestIngestDropsWhenQueueFull(t *testing.T) {
	p := newTestPipeline(Config{Workers: 1, QueueSize: 1}, &stubExecutor{}, nil)

	p.Ingest(context.Background(), orderEnvelope(5))
	p.Ingest(context.Background(), orderEnvelope(6))

	assert.Equal(t, 1, p.QueueLen())
}

func TestRunProcessesQueuedMessage(t *testing.T) {
	executor := &stubExecutor{done: make(chan struct{})}
	p := newTestPipeline(Config{Workers: 2, QueueSize: 10}, executor, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p.Ingest(ctx, orderEnvelope(7))

	runErr := make(chan error, 1)
	go func() { runErr <- p.Run(ctx) }()

	select {
	case <-executor.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for executor")
	}

	cancel()
	require.ErrorIs(t, <-runErr, context.Canceled)

	executor.mu.Lock()
	defer executor.mu.Unlock()
	require.Len(t, executor.executed, 1)
	assert.True(t, executor.executed[0].ShouldForward)
	assert.Equal(t, "taxi_order", executor.executed[0].Reason)
}
