// Package bot is the subscriber-facing management bot. Anyone can
// subscribe to forwarded orders; admins additionally get stats,
// keyword and runtime config management, and broadcasts.
package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/lueurxax/taxi-order-bot/internal/keywords"
	"github.com/lueurxax/taxi-order-bot/internal/platform/config"
	"github.com/lueurxax/taxi-order-bot/internal/platform/observability"
	"github.com/lueurxax/taxi-order-bot/internal/runtimeconfig"
	db "github.com/lueurxax/taxi-order-bot/internal/storage"
)

// Repository covers the storage the bot needs.
type Repository interface {
	UpsertBotSubscriber(ctx context.Context, sub db.BotSubscriber) error
	SetBotSubscriberActive(ctx context.Context, userID int64, active bool) (bool, error)
	CountBotSubscribers(ctx context.Context, activeOnly bool) (int64, error)
	FetchBotSubscribers(ctx context.Context, limit int, activeOnly bool) ([]db.BotSubscriber, error)
	FetchActionStats(ctx context.Context) (db.ActionStats, error)
}

type Bot struct {
	cfg      *config.Config
	database Repository
	keywords *keywords.Store
	runtime  *runtimeconfig.Service
	api      *tgbotapi.BotAPI
	logger   *zerolog.Logger
}

func New(cfg *config.Config, database Repository, kw *keywords.Store, runtime *runtimeconfig.Service, logger *zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("bot api init: %w", err)
	}

	return &Bot{
		cfg:      cfg,
		database: database,
		keywords: kw,
		runtime:  runtime,
		api:      api,
		logger:   logger,
	}, nil
}

func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info().
		Int("admins", len(b.cfg.AdminIDs)).
		Bool("broadcast", b.cfg.BroadcastEnabled).
		Msg("management bot started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			if update.Message == nil {
				continue
			}

			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() || msg.From == nil {
		return
	}

	command := msg.Command()
	observability.BotCommands.WithLabelValues(command).Inc()
	b.logger.Info().Str("command", command).Int64("user_id", msg.From.ID).Msg("handling command")

	switch command {
	case "start", "subscribe":
		b.handleSubscribe(ctx, msg)
	case "stop", "unsubscribe":
		b.handleUnsubscribe(ctx, msg)
	case "help":
		b.reply(msg.Chat.ID, helpText)
	case "stats":
		b.adminOnly(msg, func() { b.handleStats(ctx, msg) })
	case "subscribers", "subs":
		b.adminOnly(msg, func() { b.handleSubscribers(ctx, msg) })
	case "broadcast":
		b.adminOnly(msg, func() { b.handleBroadcast(ctx, msg) })
	case "kw":
		b.adminOnly(msg, func() { b.handleKeywords(ctx, msg) })
	case "config":
		b.adminOnly(msg, func() { b.handleConfig(ctx, msg) })
	default:
		b.reply(msg.Chat.ID, helpText)
	}
}

func (b *Bot) adminOnly(msg *tgbotapi.Message, handler func()) {
	if !b.cfg.IsAdmin(msg.From.ID) {
		b.logger.Warn().
			Int64("user_id", msg.From.ID).
			Str("username", msg.From.UserName).
			Msg("unauthorized command attempt")
		b.reply(msg.Chat.ID, deniedText)

		return
	}

	handler()
}

func (b *Bot) reply(chatID int64, text string) {
	out := tgbotapi.NewMessage(chatID, text)
	out.DisableWebPagePreview = true

	if _, err := b.api.Send(out); err != nil {
		b.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("reply send failed")
	}
}
