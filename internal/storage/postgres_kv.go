package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const (
	DefaultSchema  = "marketplace"
	DefaultKVTable = "kv"
)

// PostgresKV keeps each document in one JSONB row of schema.table.
type PostgresKV struct {
	db    *sql.DB
	table string
}

func NewPostgresKV(db *sql.DB, schema, table string) *PostgresKV {
	if schema == "" {
		schema = DefaultSchema
	}
	if table == "" {
		table = DefaultKVTable
	}
	return &PostgresKV{
		db:    db,
		table: pq.QuoteIdentifier(schema) + "." + pq.QuoteIdentifier(table),
	}
}

func (p *PostgresKV) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := p.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT value FROM %s WHERE key = $1", p.table), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("key %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select %q: %w", key, err)
	}
	return value, nil
}

func (p *PostgresKV) Set(ctx context.Context, key string, value []byte) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`, p.table)

	// jsonb parameters must go over the wire as text, not bytea
	if _, err := p.db.ExecContext(ctx, query, key, string(value)); err != nil {
		return fmt.Errorf("upsert %q: %w", key, err)
	}
	return nil
}

func (p *PostgresKV) Remove(ctx context.Context, key string) error {
	if _, err := p.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE key = $1", p.table), key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}
