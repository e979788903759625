package db

import (
	"context"
	"fmt"
	"hash/crc32"
	"strings"
)

// SourceAdminManual marks groups registered by hand rather than found
// by discovery queries.
const SourceAdminManual = "admin_manual"

// DiscoveredGroup is one group found by search or added by an admin.
type DiscoveredGroup struct {
	PeerID      int64
	Username    string
	Title       string
	Active      bool
	Joined      bool
	SourceQuery string
	LastError   *string
}

// manualPeerID derives a stable synthetic peer id for a group known
// only by username. Real Telegram peer ids are positive, so the
// synthetic range cannot collide with them.
func manualPeerID(username string) int64 {
	key := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(username), "@"))
	crc := crc32.ChecksumIEEE([]byte(key))

	return -(9_000_000_000 + int64(crc))
}

func cleanUsername(username string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(username), "@"))
}

// UpsertDiscoveredGroup stores a search result. Once a group was seen
// as joined or active it stays that way until an admin deactivates it.
func (db *DB) UpsertDiscoveredGroup(ctx context.Context, group DiscoveredGroup) error {
	const query = `
		INSERT INTO discovered_groups (peer_id, title, username, source_query, joined, active)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
		ON CONFLICT (peer_id) DO UPDATE SET
			title = EXCLUDED.title,
			username = COALESCE(EXCLUDED.username, discovered_groups.username),
			source_query = EXCLUDED.source_query,
			joined = discovered_groups.joined OR EXCLUDED.joined,
			active = discovered_groups.active OR EXCLUDED.active,
			updated_at = NOW(),
			last_error = NULL`

	_, err := db.Pool.Exec(ctx, query,
		group.PeerID, group.Title, cleanUsername(group.Username),
		group.SourceQuery, group.Joined, group.Active)
	if err != nil {
		return fmt.Errorf("upsert discovered group: %w", err)
	}

	return nil
}

// UpsertPublicGroupUsername registers a group by username, reactivating
// it when it is already known. Returns the group's peer id.
func (db *DB) UpsertPublicGroupUsername(ctx context.Context, username, title, sourceQuery string) (int64, error) {
	clean := cleanUsername(username)
	if clean == "" {
		return 0, fmt.Errorf("empty username")
	}

	var peerID int64

	err := db.Pool.QueryRow(ctx,
		`SELECT peer_id FROM discovered_groups WHERE username = $1 LIMIT 1`, clean).Scan(&peerID)
	if err == nil {
		const update = `
			UPDATE discovered_groups
			SET active = TRUE, updated_at = NOW(), last_error = NULL, source_query = $2
			WHERE peer_id = $1`

		if _, err := db.Pool.Exec(ctx, update, peerID, sourceQuery); err != nil {
			return 0, fmt.Errorf("reactivate group: %w", err)
		}

		return peerID, nil
	}

	peerID = manualPeerID(clean)

	const insert = `
		INSERT INTO discovered_groups (peer_id, title, username, source_query, joined, active)
		VALUES ($1, $2, $3, $4, FALSE, TRUE)
		ON CONFLICT (peer_id) DO UPDATE SET
			title = EXCLUDED.title,
			username = EXCLUDED.username,
			source_query = EXCLUDED.source_query,
			active = TRUE,
			updated_at = NOW(),
			last_error = NULL`

	if _, err := db.Pool.Exec(ctx, insert, peerID, title, clean, sourceQuery); err != nil {
		return 0, fmt.Errorf("insert manual group: %w", err)
	}

	return peerID, nil
}

// FetchPublicGroups returns recently updated groups for admin views.
func (db *DB) FetchPublicGroups(ctx context.Context, limit int) ([]DiscoveredGroup, error) {
	const query = `
		SELECT peer_id, COALESCE(username, ''), COALESCE(title, ''), active, joined,
		       COALESCE(source_query, ''), last_error
		FROM discovered_groups
		ORDER BY updated_at DESC
		LIMIT $1`

	return db.queryGroups(ctx, query, limit)
}

// FetchUnjoinedPublicGroups returns join candidates, priority seeds
// first.
func (db *DB) FetchUnjoinedPublicGroups(ctx context.Context, limit int) ([]DiscoveredGroup, error) {
	const query = `
		SELECT peer_id, COALESCE(username, ''), COALESCE(title, ''), active, joined,
		       COALESCE(source_query, ''), last_error
		FROM discovered_groups
		WHERE joined = FALSE
		  AND active = TRUE
		  AND username IS NOT NULL
		  AND username <> ''
		ORDER BY
		  CASE WHEN source_query = 'priority_seed' THEN 0 ELSE 1 END,
		  updated_at DESC
		LIMIT $1`

	return db.queryGroups(ctx, query, limit)
}

func (db *DB) queryGroups(ctx context.Context, query string, limit int) ([]DiscoveredGroup, error) {
	rows, err := db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch groups: %w", err)
	}
	defer rows.Close()

	var groups []DiscoveredGroup

	for rows.Next() {
		var g DiscoveredGroup

		err := rows.Scan(&g.PeerID, &g.Username, &g.Title, &g.Active, &g.Joined, &g.SourceQuery, &g.LastError)
		if err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}

		groups = append(groups, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}

	return groups, nil
}

func (db *DB) SetPublicGroupActive(ctx context.Context, username string, active bool) (bool, error) {
	const query = `
		UPDATE discovered_groups
		SET active = $2, updated_at = NOW()
		WHERE username = $1`

	tag, err := db.Pool.Exec(ctx, query, cleanUsername(username), active)
	if err != nil {
		return false, fmt.Errorf("set group active: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (db *DB) DeletePublicGroup(ctx context.Context, username string) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM discovered_groups WHERE username = $1`, cleanUsername(username))
	if err != nil {
		return false, fmt.Errorf("delete group: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (db *DB) MarkGroupJoined(ctx context.Context, peerID int64) error {
	const query = `
		UPDATE discovered_groups
		SET joined = TRUE, updated_at = NOW(), last_error = NULL
		WHERE peer_id = $1`

	if _, err := db.Pool.Exec(ctx, query, peerID); err != nil {
		return fmt.Errorf("mark group joined: %w", err)
	}

	return nil
}

func (db *DB) MarkGroupError(ctx context.Context, peerID int64, groupErr string) error {
	if len(groupErr) > 500 {
		groupErr = groupErr[:500]
	}

	const query = `
		UPDATE discovered_groups
		SET updated_at = NOW(), last_error = $2
		WHERE peer_id = $1`

	if _, err := db.Pool.Exec(ctx, query, peerID, groupErr); err != nil {
		return fmt.Errorf("mark group error: %w", err)
	}

	return nil
}
