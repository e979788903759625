package db

import (
	"context"
	"fmt"
	"time"
)

// Invite link notes.
const (
	InviteNoteAutoDiscovered = "auto_discovered"
	InviteNotePrioritySeed   = "priority_seed"
)

// PrivateInviteLink is one stored t.me/+... invite.
type PrivateInviteLink struct {
	InviteLink   string
	Active       bool
	SourceChatID *int64
	LastSeenAt   time.Time
}

// FetchActiveInviteLinks returns active invites, priority seeds first.
func (db *DB) FetchActiveInviteLinks(ctx context.Context) ([]string, error) {
	const query = `
		SELECT invite_link
		FROM private_invite_links
		WHERE active = TRUE
		ORDER BY
		  CASE WHEN note = 'priority_seed' THEN 0 ELSE 1 END,
		  last_seen_at DESC`

	rows, err := db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("fetch active invite links: %w", err)
	}
	defer rows.Close()

	var links []string

	for rows.Next() {
		var link string
		if err := rows.Scan(&link); err != nil {
			return nil, fmt.Errorf("scan invite link: %w", err)
		}

		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invite links: %w", err)
	}

	return links, nil
}

// FetchPrivateInviteRows returns recent invites for the admin views.
func (db *DB) FetchPrivateInviteRows(ctx context.Context, limit int) ([]PrivateInviteLink, error) {
	const query = `
		SELECT invite_link, active, source_chat_id, last_seen_at
		FROM private_invite_links
		ORDER BY last_seen_at DESC
		LIMIT $1`

	rows, err := db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch invite rows: %w", err)
	}
	defer rows.Close()

	var invites []PrivateInviteLink

	for rows.Next() {
		var invite PrivateInviteLink
		if err := rows.Scan(&invite.InviteLink, &invite.Active, &invite.SourceChatID, &invite.LastSeenAt); err != nil {
			return nil, fmt.Errorf("scan invite row: %w", err)
		}

		invites = append(invites, invite)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invite rows: %w", err)
	}

	return invites, nil
}

// UpsertPrivateInviteLink stores or refreshes an invite link. A nil
// sourceChatID keeps the previously known source.
func (db *DB) UpsertPrivateInviteLink(ctx context.Context, inviteLink string, sourceChatID *int64, note string, active bool) error {
	const query = `
		INSERT INTO private_invite_links (invite_link, active, note, source_chat_id, last_seen_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (invite_link) DO UPDATE SET
			active = EXCLUDED.active,
			note = COALESCE(EXCLUDED.note, private_invite_links.note),
			source_chat_id = COALESCE(EXCLUDED.source_chat_id, private_invite_links.source_chat_id),
			last_seen_at = NOW()`

	if _, err := db.Pool.Exec(ctx, query, inviteLink, active, note, sourceChatID); err != nil {
		return fmt.Errorf("upsert invite link: %w", err)
	}

	return nil
}

func (db *DB) SetPrivateInviteActive(ctx context.Context, inviteLink string, active bool) (bool, error) {
	const query = `
		UPDATE private_invite_links
		SET active = $2, last_seen_at = NOW()
		WHERE invite_link = $1`

	tag, err := db.Pool.Exec(ctx, query, inviteLink, active)
	if err != nil {
		return false, fmt.Errorf("set invite active: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (db *DB) DeletePrivateInvite(ctx context.Context, inviteLink string) (bool, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM private_invite_links WHERE invite_link = $1`, inviteLink)
	if err != nil {
		return false, fmt.Errorf("delete invite link: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
