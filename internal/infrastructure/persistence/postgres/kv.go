package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// KV stores values in hub_kv under a namespace, so several hubs can share
// one database.
type KV struct {
	pool      *Pool
	namespace string
}

// NewKV wraps pool, which must already be migrated. An empty namespace
// becomes "hub".
func NewKV(pool *Pool, namespace string) *KV {
	if namespace == "" {
		namespace = "hub"
	}
	return &KV{pool: pool, namespace: namespace}
}

// Open connects to databaseURL, applies pending migrations and returns a KV.
func Open(ctx context.Context, databaseURL, namespace string) (*KV, error) {
	pool, err := Connect(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if _, err := NewMigrator(pool).Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return NewKV(pool, namespace), nil
}

// Pool returns the underlying pool.
func (kv *KV) Pool() *Pool {
	return kv.pool
}

// Get returns the value under key.
func (kv *KV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := kv.pool.QueryRow(ctx,
		`SELECT value FROM hub_kv WHERE namespace = $1 AND key = $2`,
		kv.namespace, key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("postgres: get %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts value under key.
func (kv *KV) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	err := kv.pool.Exec(ctx, `
		INSERT INTO hub_kv (namespace, key, value) VALUES ($1, $2, $3)
		ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value
	`, kv.namespace, key, value)
	if err != nil {
		return fmt.Errorf("postgres: set %s: %w", key, err)
	}
	return nil
}

// Delete removes keys with one statement.
func (kv *KV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	err := kv.pool.Exec(ctx,
		`DELETE FROM hub_kv WHERE namespace = $1 AND key = ANY($2)`,
		kv.namespace, keys,
	)
	if err != nil {
		return fmt.Errorf("postgres: delete: %w", err)
	}
	return nil
}

// Ping checks the pool.
func (kv *KV) Ping(ctx context.Context) error {
	return kv.pool.Ping(ctx)
}

// Close closes the pool.
func (kv *KV) Close() error {
	kv.pool.Close()
	return nil
}
