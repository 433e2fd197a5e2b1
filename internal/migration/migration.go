package migration

import (
	"context"

	"trustdebt/internal"
	"trustdebt/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db sqlx.ExecerContext) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
	logger  *internal.Logger
}

// NewRunner creates a new migration runner
func NewRunner(logger *internal.Logger) *MigrationRunner {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &MigrationRunner{
		version: "1.0.0",
		logger:  logger,
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db sqlx.ExecerContext) error {
	if err := r.createRunsTable(ctx, db); err != nil {
		return errors.DatabaseError("failed to create trust_debt_runs table", err)
	}

	if err := r.createRunCategoriesTable(ctx, db); err != nil {
		return errors.DatabaseError("failed to create trust_debt_run_categories table", err)
	}

	r.createIndexes(ctx, db)
	return nil
}

// asymmetry_ratio is double precision so +Infinity round-trips.
func (r *MigrationRunner) createRunsTable(ctx context.Context, db sqlx.ExecerContext) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS trust_debt_runs (
			run_id VARCHAR(64) PRIMARY KEY,
			project VARCHAR(255) NOT NULL,
			fingerprint CHAR(64) NOT NULL,
			total_units DOUBLE PRECISION NOT NULL CHECK (total_units >= 0),
			grade VARCHAR(16) NOT NULL,
			upper_triangle_units DOUBLE PRECISION NOT NULL,
			lower_triangle_units DOUBLE PRECISION NOT NULL,
			diagonal_units DOUBLE PRECISION NOT NULL,
			asymmetry_ratio DOUBLE PRECISION NOT NULL,
			trajectory VARCHAR(16),
			unresolved BOOLEAN NOT NULL DEFAULT false,
			report JSONB NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createRunCategoriesTable(ctx context.Context, db sqlx.ExecerContext) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS trust_debt_run_categories (
			run_id VARCHAR(64) NOT NULL REFERENCES trust_debt_runs(run_id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			category_id VARCHAR(255) NOT NULL,
			display_name TEXT NOT NULL,
			parent_id VARCHAR(255),
			depth INTEGER NOT NULL,
			weight DOUBLE PRECISION NOT NULL,
			row_units DOUBLE PRECISION NOT NULL,
			column_units DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (run_id, position)
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db sqlx.ExecerContext) {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_runs_project_created ON trust_debt_runs(project, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_runs_fingerprint ON trust_debt_runs(fingerprint)",
		"CREATE INDEX IF NOT EXISTS idx_run_categories_category ON trust_debt_run_categories(category_id)",
	}

	for _, idxSQL := range indexes {
		if _, err := db.ExecContext(ctx, idxSQL); err != nil {
			// Log but don't fail on index creation errors
			r.logger.Warn("failed to create index: %v", err)
		}
	}
}
