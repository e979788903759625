package db

import (
	"context"
	"fmt"
)

// FetchRuntimeConfig returns all stored config overrides.
func (db *DB) FetchRuntimeConfig(ctx context.Context) (map[string]string, error) {
	rows, err := db.Pool.Query(ctx, `SELECT key, value FROM runtime_config`)
	if err != nil {
		return nil, fmt.Errorf("fetch runtime config: %w", err)
	}
	defer rows.Close()

	config := make(map[string]string)

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan runtime config: %w", err)
		}

		config[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runtime config: %w", err)
	}

	return config, nil
}

func (db *DB) UpsertRuntimeConfig(ctx context.Context, key, value string) error {
	const query = `
		INSERT INTO runtime_config (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = NOW()`

	if _, err := db.Pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("upsert runtime config: %w", err)
	}

	return nil
}

func (db *DB) DeleteRuntimeConfig(ctx context.Context, key string) (bool, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM runtime_config WHERE key = $1`, key)
	if err != nil {
		return false, fmt.Errorf("delete runtime config: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
