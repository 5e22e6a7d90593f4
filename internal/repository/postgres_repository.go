package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBlobs keeps ledger blobs in the ledger_blobs table, one row per key.
type PostgresBlobs struct {
	pool *pgxpool.Pool
}

func NewPostgresBlobs(pool *pgxpool.Pool) *PostgresBlobs {
	return &PostgresBlobs{pool: pool}
}

func (p *PostgresBlobs) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var body []byte
	err := p.pool.QueryRow(ctx, `
		SELECT body
		FROM ledger_blobs
		WHERE key = $1
	`, key).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("load blob %s: %w", key, err)
	}
	return body, true, nil
}

// Save upserts every blob inside one transaction.
func (p *PostgresBlobs) Save(ctx context.Context, blobs map[string][]byte) error {
	if len(blobs) == 0 {
		return nil
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer tx.Rollback(ctx)

	keys := make([]string, 0, len(blobs))
	for key := range blobs {
		keys = append(keys, key)
	}
	// stable row lock order
	slices.Sort(keys)

	for _, key := range keys {
		if _, err := tx.Exec(ctx, `
			INSERT INTO ledger_blobs (key, body, updated_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (key) DO UPDATE
			SET body = EXCLUDED.body,
				updated_at = NOW()
		`, key, blobs[key]); err != nil {
			return fmt.Errorf("save blob %s: %w", key, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save tx: %w", err)
	}
	return nil
}

func (p *PostgresBlobs) Delete(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM ledger_blobs WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete blob %s: %w", key, err)
	}
	return nil
}
