package postgres

import (
	"context"
	"fmt"

	"ninebox/domain/core"
	"ninebox/domain/employee"
	"ninebox/ports"

	"github.com/jmoiron/sqlx"
)

// employeeRepository reads the roster from the employees table
type employeeRepository struct {
	db *sqlx.DB
}

// NewEmployeeRepository creates a read-only roster source
func NewEmployeeRepository(db *sqlx.DB) ports.EmployeeSource {
	return &employeeRepository{db: db}
}

func (r *employeeRepository) Describe() string {
	return "postgres employees table"
}

// employeeRow mirrors the table; ratings are validated after the scan.
type employeeRow struct {
	ID          int    `db:"employee_id"`
	Name        string `db:"name"`
	Title       string `db:"job_title"`
	Location    string `db:"location"`
	JobFunction string `db:"job_function"`
	JobLevel    string `db:"job_level"`
	Tenure      string `db:"tenure_category"`
	Manager     string `db:"manager"`
	Performance string `db:"performance"`
	Potential   string `db:"potential"`
}

// LoadEmployees returns every employee ordered by load order, which fixes
// which record wins when names repeat
func (r *employeeRepository) LoadEmployees(ctx context.Context) ([]employee.Record, error) {
	query := `SELECT
		employee_id, name, COALESCE(job_title, '') AS job_title,
		COALESCE(location, '') AS location, COALESCE(job_function, '') AS job_function,
		COALESCE(job_level, '') AS job_level, COALESCE(tenure_category, '') AS tenure_category,
		COALESCE(manager, '') AS manager, performance, potential
	FROM employees
	ORDER BY load_order, employee_id`

	var rows []employeeRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to load employees: %w", err)
	}

	records := make([]employee.Record, 0, len(rows))
	for i, row := range rows {
		perf, err := employee.ParseRating(row.Performance)
		if err != nil {
			return nil, core.NewInvalidEmployeeError(i+1, err.Error())
		}
		pot, err := employee.ParseRating(row.Potential)
		if err != nil {
			return nil, core.NewInvalidEmployeeError(i+1, err.Error())
		}
		records = append(records, employee.Record{
			ID:          row.ID,
			Name:        row.Name,
			Title:       row.Title,
			Location:    row.Location,
			JobFunction: row.JobFunction,
			JobLevel:    row.JobLevel,
			Tenure:      row.Tenure,
			Manager:     row.Manager,
			Performance: perf,
			Potential:   pot,
		})
	}
	return records, nil
}
