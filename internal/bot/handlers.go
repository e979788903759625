package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lueurxax/taxi-order-bot/internal/platform/observability"
	"github.com/lueurxax/taxi-order-bot/internal/runtimeconfig"
	db "github.com/lueurxax/taxi-order-bot/internal/storage"
)

const (
	subscribersPageSize = 20
	broadcastFetchLimit = 5000
	broadcastPause      = 50 * time.Millisecond
)

func (b *Bot) handleSubscribe(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.Chat.IsPrivate() {
		return
	}

	sub := db.BotSubscriber{
		UserID: msg.From.ID,
		ChatID: msg.Chat.ID,
		Active: true,
	}

	if msg.From.UserName != "" {
		username := msg.From.UserName
		sub.Username = &username
	}

	if msg.From.FirstName != "" {
		firstName := msg.From.FirstName
		sub.FirstName = &firstName
	}

	if err := b.database.UpsertBotSubscriber(ctx, sub); err != nil {
		b.logger.Error().Err(err).Int64("user_id", msg.From.ID).Msg("subscriber upsert failed")

		return
	}

	b.reply(msg.Chat.ID, welcomeText)
}

func (b *Bot) handleUnsubscribe(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.Chat.IsPrivate() {
		return
	}

	updated, err := b.database.SetBotSubscriberActive(ctx, msg.From.ID, false)
	if err != nil {
		b.logger.Error().Err(err).Int64("user_id", msg.From.ID).Msg("unsubscribe failed")

		return
	}

	if !updated {
		sub := db.BotSubscriber{UserID: msg.From.ID, ChatID: msg.Chat.ID, Active: false}
		if err := b.database.UpsertBotSubscriber(ctx, sub); err != nil {
			b.logger.Error().Err(err).Int64("user_id", msg.From.ID).Msg("subscriber upsert failed")
		}
	}

	b.reply(msg.Chat.ID, "Obuna to'xtatildi. Qayta yoqish: /start")
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) {
	stats, err := b.database.FetchActionStats(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("action stats fetch failed")
		b.reply(msg.Chat.ID, "Statistika olinmadi.")

		return
	}

	active, err := b.database.CountBotSubscribers(ctx, true)
	if err != nil {
		b.logger.Error().Err(err).Msg("subscriber count failed")
	}

	total, err := b.database.CountBotSubscribers(ctx, false)
	if err != nil {
		b.logger.Error().Err(err).Msg("subscriber count failed")
	}

	b.reply(msg.Chat.ID, statsText(stats, active, total))
}

func (b *Bot) handleSubscribers(ctx context.Context, msg *tgbotapi.Message) {
	subs, err := b.database.FetchBotSubscribers(ctx, subscribersPageSize, false)
	if err != nil {
		b.logger.Error().Err(err).Msg("subscribers fetch failed")

		return
	}

	active, _ := b.database.CountBotSubscribers(ctx, true)
	total, _ := b.database.CountBotSubscribers(ctx, false)

	b.reply(msg.Chat.ID, subscribersText(subs, active, total))
}

func (b *Bot) handleBroadcast(ctx context.Context, msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.CommandArguments())
	if text == "" {
		b.reply(msg.Chat.ID, "Matn bering: /broadcast <xabar>")

		return
	}

	if !b.cfg.BroadcastEnabled {
		b.reply(msg.Chat.ID, "Broadcast o'chirilgan.")

		return
	}

	sent, failed := b.broadcast(ctx, text)
	b.reply(msg.Chat.ID, fmt.Sprintf("Broadcast yakunlandi. Sent=%d Failed=%d", sent, failed))
}

func (b *Bot) broadcast(ctx context.Context, text string) (int, int) {
	subs, err := b.database.FetchBotSubscribers(ctx, broadcastFetchLimit, true)
	if err != nil {
		b.logger.Error().Err(err).Msg("broadcast subscriber fetch failed")

		return 0, 0
	}

	sent := 0
	failed := 0

	for _, sub := range subs {
		select {
		case <-ctx.Done():
			return sent, failed
		default:
		}

		out := tgbotapi.NewMessage(sub.ChatID, text)
		out.DisableWebPagePreview = true

		if _, err := b.api.Send(out); err != nil {
			failed++
			observability.BroadcastsSent.WithLabelValues(db.StatusError).Inc()

			if isPermanentSubscriberError(err.Error()) {
				if _, deactivateErr := b.database.SetBotSubscriberActive(ctx, sub.UserID, false); deactivateErr != nil {
					b.logger.Warn().Err(deactivateErr).Int64("user_id", sub.UserID).Msg("subscriber deactivate failed")
				}
			}

			continue
		}

		sent++
		observability.BroadcastsSent.WithLabelValues(db.StatusOK).Inc()
		time.Sleep(broadcastPause)
	}

	return sent, failed
}

func (b *Bot) handleKeywords(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) == 0 {
		b.reply(msg.Chat.ID, keywordUsageText)

		return
	}

	switch args[0] {
	case "list":
		b.reply(msg.Chat.ID, keywordListText(b.keywords.List()))
	case "reload":
		if _, err := b.keywords.Reload(ctx); err != nil {
			b.reply(msg.Chat.ID, "Xatolik: "+err.Error())

			return
		}

		b.reply(msg.Chat.ID, "Kalit so'zlar qayta yuklandi.")
	case "add":
		if len(args) < 3 {
			b.reply(msg.Chat.ID, "Foydalanish: /kw add <kind> <value>")

			return
		}

		if _, err := b.keywords.Add(ctx, args[1], strings.Join(args[2:], " ")); err != nil {
			b.reply(msg.Chat.ID, "Xatolik: "+err.Error())

			return
		}

		b.reply(msg.Chat.ID, "Qo'shildi.")
	case "del":
		if len(args) < 3 {
			b.reply(msg.Chat.ID, "Foydalanish: /kw del <kind> <value>")

			return
		}

		if _, err := b.keywords.Delete(ctx, args[1], strings.Join(args[2:], " ")); err != nil {
			b.reply(msg.Chat.ID, "Xatolik: "+err.Error())

			return
		}

		b.reply(msg.Chat.ID, "O'chirildi.")
	default:
		b.reply(msg.Chat.ID, keywordUsageText)
	}
}

func (b *Bot) handleConfig(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) == 0 || args[0] == "get" {
		b.reply(msg.Chat.ID, configText(b.runtime.Values()))

		return
	}

	if args[0] == "set" && len(args) >= 3 {
		key := args[1]
		value := strings.Join(args[2:], " ")

		if _, err := b.runtime.Set(ctx, key, value); err != nil {
			b.reply(msg.Chat.ID, "Xatolik: "+err.Error())

			return
		}

		b.reply(msg.Chat.ID, fmt.Sprintf("%s = %s", key, value))

		return
	}

	b.reply(msg.Chat.ID, "Foydalanish: /config get yoki /config set <key> <value>")
}

func configText(values map[string]string) string {
	lines := make([]string, 0, len(values)+1)
	lines = append(lines, "Joriy sozlamalar:")

	for _, key := range runtimeconfig.Keys {
		lines = append(lines, fmt.Sprintf("%s = %s", key, values[key]))
	}

	return strings.Join(lines, "\n")
}

func keywordListText(rules map[string][]string) string {
	kinds := make([]string, 0, len(rules))
	for kind := range rules {
		kinds = append(kinds, kind)
	}

	sort.Strings(kinds)

	var sb strings.Builder
	sb.WriteString("Kalit so'zlar:")

	for _, kind := range kinds {
		sb.WriteString(fmt.Sprintf("\n%s (%d): %s", kind, len(rules[kind]), strings.Join(rules[kind], ", ")))
	}

	return sb.String()
}
