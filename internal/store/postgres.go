package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresKV keeps the key-value table in Postgres for server-side gateways
type PostgresKV struct {
	DB *pgxpool.Pool
}

func NewPostgresKV(db *pgxpool.Pool) *PostgresKV {
	return &PostgresKV{DB: db}
}

func (p *PostgresKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := p.DB.QueryRow(ctx, `SELECT value FROM kv_store WHERE key=$1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("postgres get %s: %w", key, err)
	}
	return value, true, nil
}

func (p *PostgresKV) Set(ctx context.Context, key string, value []byte) error {
	_, err := p.DB.Exec(ctx,
		`INSERT INTO kv_store(key, value, updated_at)
         VALUES($1, $2, CURRENT_TIMESTAMP)
         ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return fmt.Errorf("postgres set %s: %w", key, err)
	}
	return nil
}

func (p *PostgresKV) Delete(ctx context.Context, key string) error {
	if _, err := p.DB.Exec(ctx, `DELETE FROM kv_store WHERE key=$1`, key); err != nil {
		return fmt.Errorf("postgres delete %s: %w", key, err)
	}
	return nil
}

func (p *PostgresKV) Ping(ctx context.Context) error {
	return p.DB.Ping(ctx)
}

func (p *PostgresKV) Close() error {
	p.DB.Close()
	return nil
}
