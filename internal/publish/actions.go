// Package publish delivers accepted taxi orders to the forward target
// and performs the account actions (joins, replies) that go with them.
// Every action passes the sliding-window limits and a humanized delay
// before it reaches Telegram.
package publish

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lueurxax/taxi-order-bot/internal/core/domain"
	"github.com/lueurxax/taxi-order-bot/internal/platform/observability"
	"github.com/lueurxax/taxi-order-bot/internal/platform/worker"
	"github.com/lueurxax/taxi-order-bot/internal/ratelimit"
	"github.com/lueurxax/taxi-order-bot/internal/runtimeconfig"
	db "github.com/lueurxax/taxi-order-bot/internal/storage"
)

// Sender abstracts the Telegram user client for outbound messages and
// group joins. The MTProto reader implements it.
type Sender interface {
	SendToTarget(ctx context.Context, target, text string) error
	SendToChat(ctx context.Context, chatID int64, text string) error
	JoinByInvite(ctx context.Context, inviteHash string) error
	JoinPublic(ctx context.Context, username string) error
}

// ConfigSource exposes the current runtime settings.
type ConfigSource interface {
	Snapshot() *runtimeconfig.Snapshot
}

// ActionLog records executed account actions.
type ActionLog interface {
	InsertAction(ctx context.Context, chatID, messageID int64, action, status string) error
}

// Actions applies rate limits, pacing, and logging around every
// outward-facing account operation.
type Actions struct {
	sender   Sender
	cooldown *ratelimit.Cooldowns
	log      ActionLog
	config   ConfigSource
	pacer    *rate.Limiter
	logger   *zerolog.Logger
	randFn   func() float64
}

// NewActions builds the executor. globalPerMinute seeds the smoothing
// pacer; hard caps come from the runtime config on every call.
func NewActions(sender Sender, cooldown *ratelimit.Cooldowns, log ActionLog, config ConfigSource, globalPerMinute int, logger *zerolog.Logger) *Actions {
	if globalPerMinute < 1 {
		globalPerMinute = 1
	}

	return &Actions{
		sender:   sender,
		cooldown: cooldown,
		log:      log,
		config:   config,
		pacer:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(globalPerMinute)), 1),
		logger:   logger,
		randFn:   rand.Float64,
	}
}

// Execute forwards an accepted order to the configured target.
func (a *Actions) Execute(ctx context.Context, msg *domain.NormalizedMessage, decision domain.Decision) error {
	if !decision.ShouldForward {
		return nil
	}

	cfg := a.config.Snapshot()
	chatID := msg.Envelope.ChatID

	allowChat := a.cooldown.AllowAction(chatID, "any", cfg.PerGroupActionsHour, time.Hour)
	allowGlobal := a.cooldown.AllowGlobal("any", cfg.GlobalActionsMinute, time.Minute)

	if !allowChat || !allowGlobal {
		scope := "chat"
		if allowChat {
			scope = "global"
		}

		observability.RateLimited.WithLabelValues(scope).Inc()
		a.logger.Info().
			Int64("chat_id", chatID).
			Int64("message_id", msg.Envelope.MessageID).
			Str("scope", scope).
			Msg("action blocked by rate limit")

		return nil
	}

	if err := a.humanPause(ctx, cfg); err != nil {
		return err
	}

	if err := a.pacer.Wait(ctx); err != nil {
		return fmt.Errorf("global pacer: %w", err)
	}

	sourceLink := BuildSourceLink(msg.Envelope.ChatUsername, chatID, msg.Envelope.MessageID)
	outbound := FormatMessage(msg.Envelope.RawText, sourceLink, decision.RegionTag)

	if err := a.sender.SendToTarget(ctx, cfg.ForwardTarget, outbound); err != nil {
		observability.OrdersPublished.WithLabelValues(db.StatusError).Inc()
		a.recordAction(ctx, chatID, msg.Envelope.MessageID, db.ActionPublish, db.StatusError)

		return fmt.Errorf("publish to %q: %w", cfg.ForwardTarget, err)
	}

	observability.OrdersPublished.WithLabelValues(db.StatusOK).Inc()
	observability.OrdersByRegion.WithLabelValues(decision.RegionTag).Inc()
	a.recordAction(ctx, chatID, msg.Envelope.MessageID, db.ActionPublish, db.StatusOK)

	if decision.ShouldReply && decision.ReplyText != "" {
		a.reply(ctx, msg, decision, cfg)
	}

	return nil
}

func (a *Actions) reply(ctx context.Context, msg *domain.NormalizedMessage, decision domain.Decision, cfg *runtimeconfig.Snapshot) {
	chatID := msg.Envelope.ChatID
	if !a.cooldown.AllowAction(chatID, "reply", cfg.PerGroupReplies10m, 10*time.Minute) {
		observability.RateLimited.WithLabelValues("reply").Inc()

		return
	}

	if err := a.humanPause(ctx, cfg); err != nil {
		return
	}

	if err := a.sender.SendToChat(ctx, chatID, decision.ReplyText); err != nil {
		a.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("reply failed")
		a.recordAction(ctx, chatID, msg.Envelope.MessageID, db.ActionReply, db.StatusError)

		return
	}

	a.recordAction(ctx, chatID, msg.Envelope.MessageID, db.ActionReply, db.StatusOK)
}

// TryJoin attempts to join a private group via its invite link.
func (a *Actions) TryJoin(ctx context.Context, inviteLink string) bool {
	cfg := a.config.Snapshot()
	if !a.cooldown.AllowJoin(cfg.JoinLimitDay) {
		observability.RateLimited.WithLabelValues("join").Inc()

		return false
	}

	if err := a.humanPause(ctx, cfg); err != nil {
		return false
	}

	hash := inviteHash(inviteLink)

	if err := a.sender.JoinByInvite(ctx, hash); err != nil {
		a.logger.Warn().Err(err).Str("invite", truncate(inviteLink, 120)).Msg("private join failed")
		a.recordAction(ctx, 0, 0, db.ActionJoin, db.StatusError)
		observability.GroupsJoined.WithLabelValues(db.StatusError).Inc()

		return false
	}

	a.recordAction(ctx, 0, 0, db.ActionJoin, db.StatusOK)
	observability.GroupsJoined.WithLabelValues(db.StatusOK).Inc()

	return true
}

// TryJoinPublic attempts to join a public group by username.
func (a *Actions) TryJoinPublic(ctx context.Context, username string, peerID int64) bool {
	if username == "" {
		return false
	}

	cfg := a.config.Snapshot()
	if !a.cooldown.AllowJoin(cfg.JoinLimitDay) {
		observability.RateLimited.WithLabelValues("join").Inc()

		return false
	}

	if err := a.humanPause(ctx, cfg); err != nil {
		return false
	}

	if err := a.sender.JoinPublic(ctx, username); err != nil {
		a.logger.Warn().Err(err).Int64("chat_id", peerID).Str("username", username).Msg("public join failed")
		a.recordAction(ctx, peerID, 0, db.ActionJoinPublic, db.StatusError)
		observability.GroupsJoined.WithLabelValues(db.StatusError).Inc()

		return false
	}

	a.recordAction(ctx, peerID, 0, db.ActionJoinPublic, db.StatusOK)
	observability.GroupsJoined.WithLabelValues(db.StatusOK).Inc()

	return true
}

func (a *Actions) humanPause(ctx context.Context, cfg *runtimeconfig.Snapshot) error {
	minDelay := cfg.MinHumanDelay()
	maxDelay := cfg.MaxHumanDelay()

	delay := minDelay
	if maxDelay > minDelay {
		delay += time.Duration(a.randFn() * float64(maxDelay-minDelay))
	}

	return worker.Wait(ctx, delay)
}

func (a *Actions) recordAction(ctx context.Context, chatID, messageID int64, action, status string) {
	observability.ActionsLogged.WithLabelValues(action, status).Inc()

	if err := a.log.InsertAction(ctx, chatID, messageID, action, status); err != nil {
		a.logger.Warn().Err(err).Str("action", action).Msg("action log insert failed")
	}
}

// inviteHash strips the t.me prefix variants down to the raw hash.
func inviteHash(inviteLink string) string {
	hash := inviteLink
	if idx := strings.LastIndex(hash, "/"); idx >= 0 {
		hash = hash[idx+1:]
	}

	return strings.TrimPrefix(hash, "+")
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	return s[:limit]
}
