package ports

import (
	"context"

	"ninebox/domain/employee"
)

// EmployeeSource loads the roster an analysis runs over. Implementations
// return records in source order; duplicate names resolve by that order.
type EmployeeSource interface {
	LoadEmployees(ctx context.Context) ([]employee.Record, error)
	// Describe names the source for logs and error messages.
	Describe() string
}
