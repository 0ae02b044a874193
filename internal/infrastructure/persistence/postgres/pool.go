// Package postgres stores Student Hub collections in PostgreSQL. Each key is
// one row of hub_kv; the table is created by a forward-only migrator on Open.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrClosed is returned by every Pool method after Close.
var ErrClosed = errors.New("postgres: pool is closed")

// ══════════════════════════════════════════════════════════════════════════════
// POOL
// ══════════════════════════════════════════════════════════════════════════════

// Pool wraps a pgx pool so a closed pool fails fast instead of blocking on
// acquire.
type Pool struct {
	mu     sync.RWMutex
	pgx    *pgxpool.Pool
	closed bool
}

// Stats is a snapshot of pool usage.
type Stats struct {
	Total    int32
	Idle     int32
	Acquired int32
	Max      int32
}

// Connect parses databaseURL, dials and pings. The hub writes whole
// collections under one lock, so a handful of connections is plenty unless
// the URL asks for more with pool_max_conns.
func Connect(ctx context.Context, databaseURL string) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse url: %w", err)
	}
	if cfg.MaxConns == 0 {
		cfg.MaxConns = 4
	}
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute
	cfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Pool{pgx: pool}, nil
}

func (p *Pool) get() (*pgxpool.Pool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrClosed
	}
	return p.pgx, nil
}

// Ping checks that the database answers.
func (p *Pool) Ping(ctx context.Context) error {
	pool, err := p.get()
	if err != nil {
		return err
	}
	return pool.Ping(ctx)
}

// Stats reports the current pool usage. A closed pool reports zeros.
func (p *Pool) Stats() Stats {
	pool, err := p.get()
	if err != nil {
		return Stats{}
	}
	s := pool.Stat()
	return Stats{
		Total:    s.TotalConns(),
		Idle:     s.IdleConns(),
		Acquired: s.AcquiredConns(),
		Max:      s.MaxConns(),
	}
}

// Close releases every connection. Further calls are no-ops.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.pgx.Close()
}

// ─────────────────────────────────────────────────────────────────────────────
// statements
// ─────────────────────────────────────────────────────────────────────────────

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Exec runs a statement that returns no rows.
func (p *Pool) Exec(ctx context.Context, sql string, args ...any) error {
	pool, err := p.get()
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, sql, args...)
	return err
}

// QueryRow runs a single-row query. Errors surface from Scan.
func (p *Pool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	pool, err := p.get()
	if err != nil {
		return errRow{err: err}
	}
	return pool.QueryRow(ctx, sql, args...)
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

// InTx runs fn in a read-committed transaction. It commits when fn returns
// nil and rolls back otherwise, including on panic.
func (p *Pool) InTx(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	pool, err := p.get()
	if err != nil {
		return err
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(ctx)
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("postgres: rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}
