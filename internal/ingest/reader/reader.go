// Package reader runs the Telegram user account. It polls monitored
// groups for new messages, feeds them to the classification pipeline,
// sends accepted orders, and joins groups on request.
package reader

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lueurxax/taxi-order-bot/internal/pipeline"
	"github.com/lueurxax/taxi-order-bot/internal/platform/config"
)

// ErrNotConnected indicates the MTProto client is not running yet.
var ErrNotConnected = errors.New("telegram client not connected")

// ErrPeerNotFound indicates the target peer could not be resolved.
var ErrPeerNotFound = errors.New("peer not found")

// ErrNotAGroup indicates the resolved peer is not a group or channel.
var ErrNotAGroup = errors.New("peer is not a group")

type Reader struct {
	cfg      *config.Config
	database Repository
	pipeline *pipeline.Pipeline
	logger   *zerolog.Logger

	client *telegram.Client

	mu         sync.RWMutex
	api        *tg.Client
	peers      map[int64]*tg.InputPeerChannel
	readStates map[int64]int64
}

func New(cfg *config.Config, database Repository, p *pipeline.Pipeline, logger *zerolog.Logger) *Reader {
	return &Reader{
		cfg:        cfg,
		database:   database,
		pipeline:   p,
		logger:     logger,
		peers:      make(map[int64]*tg.InputPeerChannel),
		readStates: make(map[int64]int64),
	}
}

// Run connects the user account and drives the history sync loop until
// the context is canceled. onConnected, when set, runs alongside the
// sync loop once the client is authenticated; it is where the invite
// and discovery workers live because they need the live connection.
func (r *Reader) Run(ctx context.Context, onConnected func(ctx context.Context) error) error {
	client := telegram.NewClient(r.cfg.TGAPIID, r.cfg.TGAPIHash, telegram.Options{
		SessionStorage: &telegram.FileSessionStorage{
			Path: r.cfg.TGSessionPath,
		},
	})

	r.client = client

	return client.Run(ctx, func(ctx context.Context) error {
		if err := client.Auth().IfNecessary(ctx, r.authFlow()); err != nil {
			return fmt.Errorf("telegram auth: %w", err)
		}

		r.logger.Info().Msg("authenticated as user")

		r.setAPI(tg.NewClient(client))

		group, ctx := errgroup.WithContext(ctx)

		group.Go(func() error {
			return r.historyLoop(ctx)
		})

		if onConnected != nil {
			group.Go(func() error {
				return onConnected(ctx)
			})
		}

		return group.Wait()
	})
}

func (r *Reader) setAPI(api *tg.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.api = api
}

func (r *Reader) currentAPI() (*tg.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.api == nil {
		return nil, ErrNotConnected
	}

	return r.api, nil
}

func (r *Reader) cachePeer(channel *tg.Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.peers[channel.ID] = &tg.InputPeerChannel{
		ChannelID:  channel.ID,
		AccessHash: channel.AccessHash,
	}
}

func (r *Reader) cachedPeer(channelID int64) (*tg.InputPeerChannel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	peer, ok := r.peers[channelID]

	return peer, ok
}

// chatID maps a bare channel id to the signed chat id used everywhere
// outside MTProto calls, the -100 prefixed form.
func chatID(channelID int64) int64 {
	return -(1_000_000_000_000 + channelID)
}

// channelID is the inverse of chatID. It returns 0 for ids that are
// not in the supergroup range.
func channelID(chatID int64) int64 {
	if chatID >= 0 {
		return 0
	}

	bare := -chatID - 1_000_000_000_000
	if bare <= 0 {
		return 0
	}

	return bare
}

// SendToTarget delivers a message to the forward target, which is
// either "me", a chat id, or a public username.
func (r *Reader) SendToTarget(ctx context.Context, target, text string) error {
	api, err := r.currentAPI()
	if err != nil {
		return err
	}

	peer, err := r.resolveTarget(ctx, api, target)
	if err != nil {
		return err
	}

	return r.send(ctx, api, peer, text)
}

// SendToChat delivers a message to a monitored group.
func (r *Reader) SendToChat(ctx context.Context, chat int64, text string) error {
	api, err := r.currentAPI()
	if err != nil {
		return err
	}

	bare := channelID(chat)
	if bare == 0 {
		return fmt.Errorf("%w: chat %d", ErrPeerNotFound, chat)
	}

	peer, ok := r.cachedPeer(bare)
	if !ok {
		return fmt.Errorf("%w: chat %d", ErrPeerNotFound, chat)
	}

	return r.send(ctx, api, peer, text)
}

func (r *Reader) send(ctx context.Context, api *tg.Client, peer tg.InputPeerClass, text string) error {
	_, err := api.MessagesSendMessage(ctx, &tg.MessagesSendMessageRequest{
		Peer:      peer,
		Message:   text,
		RandomID:  rand.Int63(),
		NoWebpage: true,
	})
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	return nil
}

func (r *Reader) resolveTarget(ctx context.Context, api *tg.Client, target string) (tg.InputPeerClass, error) {
	target = strings.TrimSpace(target)
	if target == "" || target == "me" {
		return &tg.InputPeerSelf{}, nil
	}

	if id, err := strconv.ParseInt(target, 10, 64); err == nil {
		bare := channelID(id)
		if bare == 0 {
			bare = id
		}

		if peer, ok := r.cachedPeer(bare); ok {
			return peer, nil
		}

		return nil, fmt.Errorf("%w: id %s", ErrPeerNotFound, target)
	}

	channel, err := r.resolveUsername(ctx, api, target)
	if err != nil {
		return nil, err
	}

	return &tg.InputPeerChannel{ChannelID: channel.ID, AccessHash: channel.AccessHash}, nil
}

func (r *Reader) resolveUsername(ctx context.Context, api *tg.Client, username string) (*tg.Channel, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")

	resolved, err := api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{Username: username})
	if err != nil {
		return nil, fmt.Errorf("resolve username %q: %w", username, err)
	}

	for _, chat := range resolved.Chats {
		if channel, ok := chat.(*tg.Channel); ok {
			r.cachePeer(channel)

			return channel, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNotAGroup, username)
}

// JoinByInvite joins a private group. Being a member already is not an
// error.
func (r *Reader) JoinByInvite(ctx context.Context, inviteHash string) error {
	api, err := r.currentAPI()
	if err != nil {
		return err
	}

	updates, err := api.MessagesImportChatInvite(ctx, inviteHash)
	if err != nil {
		if tgerr.Is(err, "USER_ALREADY_PARTICIPANT") {
			return nil
		}

		return fmt.Errorf("import chat invite: %w", err)
	}

	r.cacheJoinedChats(updates)

	return nil
}

// JoinPublic joins a public group by username.
func (r *Reader) JoinPublic(ctx context.Context, username string) error {
	api, err := r.currentAPI()
	if err != nil {
		return err
	}

	channel, err := r.resolveUsername(ctx, api, username)
	if err != nil {
		return err
	}

	updates, err := api.ChannelsJoinChannel(ctx, &tg.InputChannel{
		ChannelID:  channel.ID,
		AccessHash: channel.AccessHash,
	})
	if err != nil {
		if tgerr.Is(err, "USER_ALREADY_PARTICIPANT") {
			return nil
		}

		return fmt.Errorf("join channel %q: %w", username, err)
	}

	r.cacheJoinedChats(updates)

	return nil
}

func (r *Reader) cacheJoinedChats(updates tg.UpdatesClass) {
	u, ok := updates.(*tg.Updates)
	if !ok {
		return
	}

	for _, chat := range u.Chats {
		if channel, ok := chat.(*tg.Channel); ok {
			r.cachePeer(channel)
		}
	}
}
