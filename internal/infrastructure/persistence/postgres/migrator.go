package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ErrMigrationFailed wraps any error raised while applying a migration.
var ErrMigrationFailed = errors.New("postgres: migration failed")

// migrationLockID serialises Migrate across processes starting together.
const migrationLockID = 0x5354554442 // "STUDB"

// Migration is one forward-only schema step.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// MigrationStatus reports whether a migration has been applied.
type MigrationStatus struct {
	Migration
	Applied   bool
	AppliedAt time.Time
}

// Migrator applies Migrations in version order and records them in
// hub_schema_migrations.
type Migrator struct {
	pool       *Pool
	migrations []Migration
}

// NewMigrator uses the built-in migrations unless others are given.
func NewMigrator(pool *Pool, migrations ...Migration) *Migrator {
	if len(migrations) == 0 {
		migrations = Migrations()
	}
	return &Migrator{pool: pool, migrations: migrations}
}

const createMigrationTable = `
CREATE TABLE IF NOT EXISTS hub_schema_migrations (
    version    INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
)`

// Migrate applies every pending migration in one transaction under an
// advisory lock and returns how many it applied.
func (m *Migrator) Migrate(ctx context.Context) (int, error) {
	if err := m.pool.Exec(ctx, createMigrationTable); err != nil {
		return 0, fmt.Errorf("%w: create table: %v", ErrMigrationFailed, err)
	}

	var count int
	err := m.pool.InTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLockID); err != nil {
			return err
		}
		applied, err := appliedVersions(ctx, tx)
		if err != nil {
			return err
		}
		for _, mig := range m.migrations {
			if _, done := applied[mig.Version]; done {
				continue
			}
			if _, err := tx.Exec(ctx, mig.SQL); err != nil {
				return fmt.Errorf("version %d (%s): %w", mig.Version, mig.Name, err)
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO hub_schema_migrations (version, name) VALUES ($1, $2)`,
				mig.Version, mig.Name,
			); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMigrationFailed, err)
	}
	return count, nil
}

// Status lists every known migration with its applied time, if any.
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	if err := m.pool.Exec(ctx, createMigrationTable); err != nil {
		return nil, err
	}

	var applied map[int]time.Time
	err := m.pool.InTx(ctx, func(tx pgx.Tx) error {
		var err error
		applied, err = appliedVersions(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]MigrationStatus, len(m.migrations))
	for i, mig := range m.migrations {
		at, ok := applied[mig.Version]
		out[i] = MigrationStatus{Migration: mig, Applied: ok, AppliedAt: at}
	}
	return out, nil
}

func appliedVersions(ctx context.Context, q querier) (map[int]time.Time, error) {
	rows, err := q.Query(ctx, `SELECT version, applied_at FROM hub_schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]time.Time)
	for rows.Next() {
		var (
			version int
			at      time.Time
		)
		if err := rows.Scan(&version, &at); err != nil {
			return nil, err
		}
		applied[version] = at
	}
	return applied, rows.Err()
}
