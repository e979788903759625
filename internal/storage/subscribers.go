package db

import (
	"context"
	"fmt"
	"time"
)

// BotSubscriber is one user of the management bot.
type BotSubscriber struct {
	UserID       int64
	ChatID       int64
	Username     *string
	FirstName    *string
	Active       bool
	SubscribedAt time.Time
	UpdatedAt    time.Time
}

// UpsertBotSubscriber stores or reactivates a subscriber.
func (db *DB) UpsertBotSubscriber(ctx context.Context, sub BotSubscriber) error {
	const query = `
		INSERT INTO bot_subscribers (user_id, chat_id, username, first_name, active, subscribed_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			chat_id = EXCLUDED.chat_id,
			username = COALESCE(EXCLUDED.username, bot_subscribers.username),
			first_name = COALESCE(EXCLUDED.first_name, bot_subscribers.first_name),
			active = EXCLUDED.active,
			updated_at = NOW()`

	var username *string
	if sub.Username != nil {
		clean := cleanUsername(*sub.Username)
		if clean != "" {
			username = &clean
		}
	}

	if _, err := db.Pool.Exec(ctx, query, sub.UserID, sub.ChatID, username, sub.FirstName, sub.Active); err != nil {
		return fmt.Errorf("upsert subscriber: %w", err)
	}

	return nil
}

func (db *DB) SetBotSubscriberActive(ctx context.Context, userID int64, active bool) (bool, error) {
	const query = `
		UPDATE bot_subscribers
		SET active = $2, updated_at = NOW()
		WHERE user_id = $1`

	tag, err := db.Pool.Exec(ctx, query, userID, active)
	if err != nil {
		return false, fmt.Errorf("set subscriber active: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (db *DB) CountBotSubscribers(ctx context.Context, activeOnly bool) (int64, error) {
	query := `SELECT COUNT(*) FROM bot_subscribers`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}

	var count int64
	if err := db.Pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count subscribers: %w", err)
	}

	return count, nil
}

func (db *DB) FetchBotSubscribers(ctx context.Context, limit int, activeOnly bool) ([]BotSubscriber, error) {
	query := `
		SELECT user_id, chat_id, username, first_name, active, subscribed_at, updated_at
		FROM bot_subscribers`

	if activeOnly {
		query += ` WHERE active = TRUE`
	}

	query += ` ORDER BY updated_at DESC LIMIT $1`

	rows, err := db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch subscribers: %w", err)
	}
	defer rows.Close()

	var subs []BotSubscriber

	for rows.Next() {
		var sub BotSubscriber

		err := rows.Scan(&sub.UserID, &sub.ChatID, &sub.Username, &sub.FirstName,
			&sub.Active, &sub.SubscribedAt, &sub.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}

		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscribers: %w", err)
	}

	return subs, nil
}
