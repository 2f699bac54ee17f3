package migration

import (
	"context"

	"ninebox/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
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

// Run executes all database migrations in order. Every statement is idempotent.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createEmployeesTable(ctx, db); err != nil {
		return errors.DatabaseError("failed to create employees table", err)
	}

	if err := r.addLoadOrderColumn(ctx, db); err != nil {
		return errors.DatabaseError("failed to add employees.load_order", err)
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.DatabaseError("failed to create indexes", err)
	}

	return nil
}

func (r *MigrationRunner) createEmployeesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS employees (
			employee_id INTEGER PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			job_title VARCHAR(255),
			location VARCHAR(100),
			job_function VARCHAR(100),
			job_level VARCHAR(50),
			tenure_category VARCHAR(50),
			manager VARCHAR(255),
			performance VARCHAR(10) NOT NULL CHECK (performance IN ('Low', 'Medium', 'High')),
			potential VARCHAR(10) NOT NULL CHECK (potential IN ('Low', 'Medium', 'High')),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

// addLoadOrderColumn keeps source order stable so duplicate names resolve
// to the same employee on every load.
func (r *MigrationRunner) addLoadOrderColumn(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		DO $$
		BEGIN
			IF NOT EXISTS (
				SELECT 1 FROM information_schema.columns
				WHERE table_name = 'employees' AND column_name = 'load_order'
			) THEN
				ALTER TABLE employees ADD COLUMN load_order BIGSERIAL;
			END IF;
		END $$;
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_employees_manager ON employees(manager);
		CREATE INDEX IF NOT EXISTS idx_employees_load_order ON employees(load_order);
	`)
	return err
}
