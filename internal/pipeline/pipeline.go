// Package pipeline connects the message reader to the classification
// stages and the action executor. Ingest runs the cheap fast filter
// inline, the queue decouples it from the rule engine, and a worker
// pool drains the queue so a slow Telegram send never blocks reads.
package pipeline

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lueurxax/taxi-order-bot/internal/core/domain"
	"github.com/lueurxax/taxi-order-bot/internal/fastfilter"
	"github.com/lueurxax/taxi-order-bot/internal/platform/observability"
	"github.com/lueurxax/taxi-order-bot/internal/rules"
	"github.com/lueurxax/taxi-order-bot/internal/textnorm"
)

// privateInvitePattern matches t.me invite links worth collecting from
// group chatter, both the "+hash" and legacy "joinchat" forms.
var privateInvitePattern = regexp.MustCompile(`https?://t\.me/(?:\+|joinchat/)[A-Za-z0-9_-]+`)

const maxInvitesPerMessage = 5

// InviteStore collects private invite links spotted in messages.
type InviteStore interface {
	UpsertPrivateInviteLink(ctx context.Context, inviteLink string, sourceChatID *int64, note string, active bool) error
}

// Executor delivers accepted orders. Implemented by publish.Actions.
type Executor interface {
	Execute(ctx context.Context, msg *domain.NormalizedMessage, decision domain.Decision) error
}

type Config struct {
	Workers   int
	QueueSize int
}

// Pipeline is the ingest-classify-publish chain.
type Pipeline struct {
	cfg      Config
	filter   *fastfilter.Filter
	engine   *rules.Engine
	executor Executor
	invites  InviteStore
	queue    chan *domain.NormalizedMessage
	logger   *zerolog.Logger
}

func New(cfg Config, filter *fastfilter.Filter, engine *rules.Engine, executor Executor, invites InviteStore, logger *zerolog.Logger) *Pipeline {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}

	return &Pipeline{
		cfg:      cfg,
		filter:   filter,
		engine:   engine,
		executor: executor,
		invites:  invites,
		queue:    make(chan *domain.NormalizedMessage, cfg.QueueSize),
		logger:   logger,
	}
}

// Ingest runs the fast stage on one incoming message and enqueues
// candidates for the rule engine. It never blocks: when the queue is
// full the message is dropped and counted.
func (p *Pipeline) Ingest(ctx context.Context, env domain.MessageEnvelope) {
	p.collectInvites(ctx, env)

	// Positive chat ids are direct chats with users; only group and
	// channel traffic is classified.
	if env.ChatID >= 0 {
		return
	}

	observability.MessagesIngested.WithLabelValues(strconv.FormatInt(env.ChatID, 10)).Inc()

	normalized := textnorm.Normalize(env.RawText)
	result := p.filter.Evaluate(normalized)

	observability.MessagesClassified.WithLabelValues(result.Reason).Inc()

	if !result.Passed {
		return
	}

	msg := &domain.NormalizedMessage{Envelope: env, NormalizedText: normalized}

	select {
	case p.queue <- msg:
		observability.QueueDepth.Set(float64(len(p.queue)))
		p.logger.Debug().
			Int64("chat_id", env.ChatID).
			Int64("message_id", env.MessageID).
			Int("queue_size", len(p.queue)).
			Str("reason", result.Reason).
			Msg("message queued")
	default:
		observability.QueueDropped.Inc()
		p.logger.Warn().
			Int64("chat_id", env.ChatID).
			Int64("message_id", env.MessageID).
			Msg("queue full, message dropped")
	}
}

func (p *Pipeline) collectInvites(ctx context.Context, env domain.MessageEnvelope) {
	if p.invites == nil {
		return
	}

	links := privateInvitePattern.FindAllString(env.RawText, maxInvitesPerMessage)
	for _, link := range links {
		sourceChatID := env.ChatID
		if err := p.invites.UpsertPrivateInviteLink(ctx, link, &sourceChatID, "", true); err != nil {
			p.logger.Warn().Err(err).Str("invite", link).Msg("invite link upsert failed")
		}
	}
}

// Run drains the queue with the configured number of workers until the
// context is canceled.
func (p *Pipeline) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	for i := 0; i < p.cfg.Workers; i++ {
		workerID := i
		group.Go(func() error {
			return p.worker(ctx, workerID)
		})
	}

	return group.Wait()
}

func (p *Pipeline) worker(ctx context.Context, id int) error {
	logger := p.logger.With().Int("worker", id).Logger()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-p.queue:
			observability.QueueDepth.Set(float64(len(p.queue)))
			p.process(ctx, &logger, msg)
		}
	}
}

func (p *Pipeline) process(ctx context.Context, logger *zerolog.Logger, msg *domain.NormalizedMessage) {
	started := time.Now()
	decision := p.engine.Decide(msg)
	observability.ClassifyDuration.Observe(time.Since(started).Seconds())

	logger.Debug().
		Int64("chat_id", msg.Envelope.ChatID).
		Int64("message_id", msg.Envelope.MessageID).
		Str("reason", decision.Reason).
		Bool("forward", decision.ShouldForward).
		Msg("message classified")

	if !decision.ShouldForward {
		return
	}

	if err := p.executor.Execute(ctx, msg, decision); err != nil {
		logger.Error().Err(err).
			Int64("chat_id", msg.Envelope.ChatID).
			Int64("message_id", msg.Envelope.MessageID).
			Msg("order publish failed")
	}
}

// QueueLen reports the current queue backlog.
func (p *Pipeline) QueueLen() int {
	return len(p.queue)
}
