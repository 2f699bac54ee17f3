package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrEmployeeNotFound = fmt.Errorf("%w: employee", ErrNotFound)
	ErrManagerNotFound  = fmt.Errorf("%w: manager", ErrNotFound)

	// Analysis errors. Analyzers turn these into soft-failed results rather
	// than aborting a report.
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrDegenerateTable  = errors.New("contingency table is degenerate")
	ErrUnsupportedShape = errors.New("unsupported contingency table shape")

	// Input errors
	ErrInvalidRating   = errors.New("invalid rating")
	ErrInvalidEmployee = errors.New("invalid employee record")
)

// NewNotFoundError reports a missing resource by kind and key.
func NewNotFoundError(resource string, key string) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, resource, key)
}

// NewInsufficientDataError explains why a table cannot be analyzed.
func NewInsufficientDataError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInsufficientData, reason)
}

func NewDegenerateTableError(rows, cols int) error {
	return fmt.Errorf("%w: %dx%d", ErrDegenerateTable, rows, cols)
}

func NewUnsupportedShapeError(rows, cols int) error {
	return fmt.Errorf("%w: %dx%d (want 2x2)", ErrUnsupportedShape, rows, cols)
}

func NewInvalidRatingError(value string) error {
	return fmt.Errorf("%w: %q", ErrInvalidRating, value)
}

func NewInvalidEmployeeError(row int, reason string) error {
	return fmt.Errorf("%w at row %d: %s", ErrInvalidEmployee, row, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsSoftAnalysisError reports whether err should degrade a single result
// instead of failing the whole report.
func IsSoftAnalysisError(err error) bool {
	return errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrDegenerateTable) ||
		errors.Is(err, ErrUnsupportedShape)
}

func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidRating) ||
		errors.Is(err, ErrInvalidEmployee)
}
