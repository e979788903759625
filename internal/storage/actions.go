package db

import (
	"context"
	"fmt"
)

// ActionStats summarizes recent account activity for the /stats view.
type ActionStats struct {
	Published1h  int64
	Published24h int64
	Edited24h    int64
	Joins24h     int64
	Errors24h    int64
	Total24h     int64
}

// InsertAction records one account action and its outcome.
func (db *DB) InsertAction(ctx context.Context, chatID, messageID int64, action, status string) error {
	const query = `
		INSERT INTO action_log (chat_id, message_id, action_type, status)
		VALUES ($1, $2, $3, $4)`

	if _, err := db.Pool.Exec(ctx, query, chatID, messageID, action, status); err != nil {
		return fmt.Errorf("insert action: %w", err)
	}

	return nil
}

// FetchActionStats aggregates the action log over the last day.
func (db *DB) FetchActionStats(ctx context.Context) (ActionStats, error) {
	const query = `
		SELECT
			COUNT(*) FILTER (
				WHERE action_type = 'publish'
				  AND created_at >= NOW() - INTERVAL '1 hour'
			) AS published_1h,
			COUNT(*) FILTER (
				WHERE action_type = 'publish'
				  AND created_at >= NOW() - INTERVAL '24 hour'
			) AS published_24h,
			COUNT(*) FILTER (
				WHERE action_type = 'publish_edit'
				  AND created_at >= NOW() - INTERVAL '24 hour'
			) AS edited_24h,
			COUNT(*) FILTER (
				WHERE action_type IN ('join', 'join_public')
				  AND created_at >= NOW() - INTERVAL '24 hour'
			) AS joins_24h,
			COUNT(*) FILTER (
				WHERE status = 'error'
				  AND created_at >= NOW() - INTERVAL '24 hour'
			) AS errors_24h,
			COUNT(*) FILTER (
				WHERE created_at >= NOW() - INTERVAL '24 hour'
			) AS total_actions_24h
		FROM action_log`

	var stats ActionStats

	err := db.Pool.QueryRow(ctx, query).Scan(
		&stats.Published1h,
		&stats.Published24h,
		&stats.Edited24h,
		&stats.Joins24h,
		&stats.Errors24h,
		&stats.Total24h,
	)
	if err != nil {
		return ActionStats{}, fmt.Errorf("fetch action stats: %w", err)
	}

	return stats, nil
}
