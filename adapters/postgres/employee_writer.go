package postgres

import (
	"context"
	"fmt"

	"ninebox/domain/employee"

	"github.com/jmoiron/sqlx"
)

const insertBatchSize = 500

// ReplaceEmployees swaps the table contents for records in one transaction.
// Rows are inserted in slice order so load_order preserves it.
func ReplaceEmployees(ctx context.Context, db *sqlx.DB, records []employee.Record) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM employees`); err != nil {
		return fmt.Errorf("failed to clear employees: %w", err)
	}

	query := `INSERT INTO employees (
		employee_id, name, job_title, location, job_function,
		job_level, tenure_category, manager, performance, potential
	) VALUES (
		:employee_id, :name, :job_title, :location, :job_function,
		:job_level, :tenure_category, :manager, :performance, :potential
	)`

	for start := 0; start < len(records); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(records) {
			end = len(records)
		}
		if _, err := tx.NamedExecContext(ctx, query, records[start:end]); err != nil {
			return fmt.Errorf("failed to insert employees %d-%d: %w", start, end-1, err)
		}
	}

	return tx.Commit()
}
