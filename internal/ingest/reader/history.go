package reader

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"

	"github.com/lueurxax/taxi-order-bot/internal/core/domain"
	"github.com/lueurxax/taxi-order-bot/internal/platform/observability"
	"github.com/lueurxax/taxi-order-bot/internal/platform/worker"
)

const dialogPageSize = 100

// historyLoop periodically walks all monitored groups and ingests the
// messages that arrived since the last pass. A group seen for the
// first time is baselined to its newest message so old chatter is not
// replayed.
func (r *Reader) historyLoop(ctx context.Context) error {
	states, err := r.database.FetchChatReadStates(ctx)
	if err != nil {
		return fmt.Errorf("loading chat read states: %w", err)
	}

	r.mu.Lock()
	r.readStates = states
	r.mu.Unlock()

	if !r.cfg.HistorySyncEnabled {
		r.logger.Info().Msg("history sync disabled, reader idle")
		<-ctx.Done()

		return ctx.Err()
	}

	return worker.IntervalLoop(ctx, worker.IntervalConfig{
		Name:       "history-sync",
		Interval:   r.cfg.HistorySyncInterval,
		RunOnStart: true,
		OnTick:     r.syncAllChats,
		Logger:     r.logger,
	})
}

func (r *Reader) syncAllChats(ctx context.Context) {
	api, err := r.currentAPI()
	if err != nil {
		return
	}

	groups, err := r.listGroups(ctx, api)
	if err != nil {
		r.logger.Error().Err(err).Msg("listing dialogs failed")

		return
	}

	observability.GroupsMonitored.Set(float64(len(groups)))

	start := time.Now()
	ingested := 0

	for _, group := range groups {
		select {
		case <-ctx.Done():
			return
		default:
		}

		count, err := r.syncChat(ctx, api, group)
		if err != nil {
			r.logger.Warn().Err(err).
				Int64("peer_id", group.ID).
				Str("title", group.Title).
				Msg("chat sync failed")

			continue
		}

		ingested += count
	}

	r.logger.Info().
		Int("groups", len(groups)).
		Int("messages", ingested).
		Dur("duration", time.Since(start)).
		Msg("history sync pass finished")
}

func (r *Reader) listGroups(ctx context.Context, api *tg.Client) ([]*tg.Channel, error) {
	dialogs, err := api.MessagesGetDialogs(ctx, &tg.MessagesGetDialogsRequest{
		OffsetPeer: &tg.InputPeerEmpty{},
		Limit:      dialogPageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("get dialogs: %w", err)
	}

	var chats []tg.ChatClass

	switch d := dialogs.(type) {
	case *tg.MessagesDialogs:
		chats = d.Chats
	case *tg.MessagesDialogsSlice:
		chats = d.Chats
	case *tg.MessagesDialogsNotModified:
		return nil, nil
	}

	var groups []*tg.Channel

	for _, chat := range chats {
		channel, ok := chat.(*tg.Channel)
		if !ok {
			continue
		}

		if !channel.Megagroup && !channel.Gigagroup {
			continue
		}

		if channel.Left {
			continue
		}

		r.cachePeer(channel)
		groups = append(groups, channel)
	}

	return groups, nil
}

func (r *Reader) syncChat(ctx context.Context, api *tg.Client, channel *tg.Channel) (int, error) {
	signed := chatID(channel.ID)
	chatLabel := strconv.FormatInt(signed, 10)

	r.mu.RLock()
	lastSeen := r.readStates[signed]
	r.mu.RUnlock()

	peer := &tg.InputPeerChannel{ChannelID: channel.ID, AccessHash: channel.AccessHash}

	req := &tg.MessagesGetHistoryRequest{
		Peer:  peer,
		Limit: r.cfg.HistoryBatchSize,
	}

	if lastSeen > 0 {
		req.OffsetID = int(lastSeen)
		req.AddOffset = -r.cfg.HistoryBatchSize
	} else {
		// First sight of this group. Read one message to find the
		// current head and start from there.
		req.Limit = 1
	}

	history, err := api.MessagesGetHistory(ctx, req)
	if err != nil {
		if floodErr, ok := tgerr.As(err); ok && floodErr.Type == "FLOOD_WAIT" {
			observability.ReaderFloodWaitCountTotal.WithLabelValues(chatLabel).Inc()
			observability.ReaderFloodWaitSecondsTotal.WithLabelValues(chatLabel).Add(float64(floodErr.Argument))
			r.logger.Warn().
				Int("seconds", floodErr.Argument).
				Str("title", channel.Title).
				Msg("flood wait")

			if waitErr := worker.Wait(ctx, time.Duration(floodErr.Argument)*time.Second); waitErr != nil {
				return 0, waitErr
			}

			return 0, nil
		}

		observability.ReaderFetchRequestsTotal.WithLabelValues(chatLabel, "error").Inc()

		return 0, fmt.Errorf("get history: %w", err)
	}

	observability.ReaderFetchRequestsTotal.WithLabelValues(chatLabel, "ok").Inc()

	messages := historyMessages(history)

	maxSeen := lastSeen
	count := 0

	for _, m := range messages {
		msg, ok := m.(*tg.Message)
		if !ok {
			continue
		}

		if int64(msg.ID) > maxSeen {
			maxSeen = int64(msg.ID)
		}

		if lastSeen == 0 || msg.Out || int64(msg.ID) <= lastSeen {
			continue
		}

		if msg.Message == "" {
			continue
		}

		observability.ReaderIngestLagSeconds.WithLabelValues(chatLabel).
			Observe(time.Since(time.Unix(int64(msg.Date), 0)).Seconds())

		r.pipeline.Ingest(ctx, domain.MessageEnvelope{
			ChatID:       signed,
			MessageID:    int64(msg.ID),
			SenderID:     senderID(msg),
			RawText:      msg.Message,
			ChatUsername: channel.Username,
			ChatTitle:    channel.Title,
		})

		count++
	}

	if maxSeen > lastSeen {
		r.mu.Lock()
		r.readStates[signed] = maxSeen
		r.mu.Unlock()

		if err := r.database.UpsertChatReadState(ctx, signed, maxSeen); err != nil {
			r.logger.Warn().Err(err).Int64("chat_id", signed).Msg("read state upsert failed")
		}
	}

	return count, nil
}

func historyMessages(history tg.MessagesMessagesClass) []tg.MessageClass {
	switch h := history.(type) {
	case *tg.MessagesMessages:
		return h.Messages
	case *tg.MessagesMessagesSlice:
		return h.Messages
	case *tg.MessagesChannelMessages:
		return h.Messages
	}

	return nil
}

func senderID(msg *tg.Message) int64 {
	if peer, ok := msg.FromID.(*tg.PeerUser); ok {
		return peer.UserID
	}

	return 0
}
