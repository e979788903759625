package db

import (
	"context"
	"fmt"
)

// FetchChatReadStates returns the last seen message id per chat.
func (db *DB) FetchChatReadStates(ctx context.Context) (map[int64]int64, error) {
	rows, err := db.Pool.Query(ctx, `SELECT chat_id, last_seen_message_id FROM chat_read_state`)
	if err != nil {
		return nil, fmt.Errorf("fetch chat read states: %w", err)
	}
	defer rows.Close()

	states := make(map[int64]int64)

	for rows.Next() {
		var chatID, lastSeen int64
		if err := rows.Scan(&chatID, &lastSeen); err != nil {
			return nil, fmt.Errorf("scan chat read state: %w", err)
		}

		states[chatID] = lastSeen
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat read states: %w", err)
	}

	return states, nil
}

// UpsertChatReadState advances the last seen message id for a chat.
// GREATEST keeps the stored position from moving backwards when
// concurrent workers report out of order.
func (db *DB) UpsertChatReadState(ctx context.Context, chatID, lastSeenMessageID int64) error {
	const query = `
		INSERT INTO chat_read_state (chat_id, last_seen_message_id, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (chat_id) DO UPDATE SET
			last_seen_message_id = GREATEST(chat_read_state.last_seen_message_id, EXCLUDED.last_seen_message_id),
			updated_at = NOW()`

	if _, err := db.Pool.Exec(ctx, query, chatID, lastSeenMessageID); err != nil {
		return fmt.Errorf("upsert chat read state: %w", err)
	}

	return nil
}
