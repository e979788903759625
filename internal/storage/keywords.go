package db

import (
	"context"
	"fmt"
)

// EnsureDefaultKeywordRules inserts missing seed rules without touching
// existing ones.
func (db *DB) EnsureDefaultKeywordRules(ctx context.Context, defaults map[string][]string) error {
	const query = `
		INSERT INTO keyword_rules (kind, value)
		VALUES ($1, $2)
		ON CONFLICT (kind, value) DO NOTHING`

	for kind, values := range defaults {
		for _, value := range values {
			if _, err := db.Pool.Exec(ctx, query, kind, value); err != nil {
				return fmt.Errorf("seed keyword rule %s/%s: %w", kind, value, err)
			}
		}
	}

	return nil
}

// FetchKeywordRules returns all keyword rules grouped by kind.
func (db *DB) FetchKeywordRules(ctx context.Context) (map[string][]string, error) {
	rows, err := db.Pool.Query(ctx, `SELECT kind, value FROM keyword_rules`)
	if err != nil {
		return nil, fmt.Errorf("fetch keyword rules: %w", err)
	}
	defer rows.Close()

	grouped := make(map[string][]string)

	for rows.Next() {
		var kind, value string
		if err := rows.Scan(&kind, &value); err != nil {
			return nil, fmt.Errorf("scan keyword rule: %w", err)
		}

		grouped[kind] = append(grouped[kind], value)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keyword rules: %w", err)
	}

	return grouped, nil
}

func (db *DB) UpsertKeywordRule(ctx context.Context, kind, value string) error {
	const query = `
		INSERT INTO keyword_rules (kind, value)
		VALUES ($1, $2)
		ON CONFLICT (kind, value) DO NOTHING`

	if _, err := db.Pool.Exec(ctx, query, kind, value); err != nil {
		return fmt.Errorf("upsert keyword rule: %w", err)
	}

	return nil
}

func (db *DB) DeleteKeywordRule(ctx context.Context, kind, value string) (bool, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM keyword_rules WHERE kind = $1 AND value = $2`, kind, value)
	if err != nil {
		return false, fmt.Errorf("delete keyword rule: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
