package reader

import (
	"context"

	db "github.com/lueurxax/taxi-order-bot/internal/storage"
)

// Repository defines the storage operations required by the Reader.
type Repository interface {
	// Read state tracking for history sync
	FetchChatReadStates(ctx context.Context) (map[int64]int64, error)
	UpsertChatReadState(ctx context.Context, chatID, lastSeenMessageID int64) error

	// Invite and group registration
	FetchActiveInviteLinks(ctx context.Context) ([]string, error)
	UpsertPrivateInviteLink(ctx context.Context, inviteLink string, sourceChatID *int64, note string, active bool) error
	UpsertPublicGroupUsername(ctx context.Context, username, title, sourceQuery string) (int64, error)
}

// Compile-time assertion that *db.DB implements Repository.
var _ Repository = (*db.DB)(nil)
