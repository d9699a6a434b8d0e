package migration

import (
	"context"

	"campaignintel/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the schema. Statements stick to the SQL subset
// shared by PostgreSQL and SQLite and are safe to re-run.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createConstituencyRecordsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create constituency_records table")
	}

	if err := r.createStrategySnapshotsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create strategy_snapshots table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createConstituencyRecordsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS constituency_records (
			id VARCHAR(128) PRIMARY KEY,
			name VARCHAR(255) NOT NULL DEFAULT '',
			region VARCHAR(128) NOT NULL DEFAULT '',
			record TEXT NOT NULL,
			updated_at_ms BIGINT NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createStrategySnapshotsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS strategy_snapshots (
			id VARCHAR(64) PRIMARY KEY,
			constituency_id VARCHAR(128) NOT NULL,
			fingerprint VARCHAR(64) NOT NULL,
			status VARCHAR(32) NOT NULL,
			priority_score INTEGER NOT NULL,
			document TEXT NOT NULL,
			created_at_ms BIGINT NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_constituency_records_region ON constituency_records(region)`,
		`CREATE INDEX IF NOT EXISTS idx_strategy_snapshots_constituency ON strategy_snapshots(constituency_id, created_at_ms)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_strategy_snapshots_fingerprint ON strategy_snapshots(constituency_id, fingerprint)`,
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
