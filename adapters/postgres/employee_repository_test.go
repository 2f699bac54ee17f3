package postgres

import (
	"context"
	"errors"
	"testing"

	"ninebox/domain/core"
	"ninebox/domain/employee"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var employeeColumns = []string{
	"employee_id", "name", "job_title", "location", "job_function",
	"job_level", "tenure_category", "manager", "performance", "potential",
}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestEmployeeRepository_LoadEmployees(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM employees ORDER BY load_order, employee_id`).
		WillReturnRows(sqlmock.NewRows(employeeColumns).
			AddRow(1, "Ivy Moss", "Director", "USA", "Engineering", "L6", "5y+", "", "High", "High").
			AddRow(2, "Jon Reyes", "", "USA", "Engineering", "L3", "1-3y", "Ivy Moss", "medium", "low"))

	records, err := NewEmployeeRepository(db).LoadEmployees(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Director", records[0].Title)
	assert.Equal(t, employee.RatingHigh, records[0].Potential)
	assert.Equal(t, "Ivy Moss", records[1].Manager)
	assert.Equal(t, employee.RatingMedium, records[1].Performance)
	assert.Equal(t, employee.RatingLow, records[1].Potential)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepository_InvalidRating(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM employees`).
		WillReturnRows(sqlmock.NewRows(employeeColumns).
			AddRow(1, "Kim Vo", "", "", "", "", "", "", "Outstanding", "High"))

	_, err := NewEmployeeRepository(db).LoadEmployees(context.Background())
	assert.ErrorIs(t, err, core.ErrInvalidEmployee)
	assert.ErrorContains(t, err, "Outstanding")
}

func TestEmployeeRepository_QueryError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM employees`).WillReturnError(errors.New("connection reset"))

	_, err := NewEmployeeRepository(db).LoadEmployees(context.Background())
	assert.ErrorContains(t, err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceEmployees(t *testing.T) {
	db, mock := newMockDB(t)
	records := []employee.Record{
		{ID: 1, Name: "Ivy Moss", Performance: employee.RatingHigh, Potential: employee.RatingHigh},
		{ID: 2, Name: "Jon Reyes", Manager: "Ivy Moss", Performance: employee.RatingLow, Potential: employee.RatingMedium},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM employees`).WillReturnResult(sqlmock.NewResult(0, 7))
	mock.ExpectExec(`INSERT INTO employees`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, ReplaceEmployees(context.Background(), db, records))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceEmployees_RollsBackOnInsertFailure(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM employees`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO employees`).WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	err := ReplaceEmployees(context.Background(), db, []employee.Record{
		{ID: 1, Name: "Ivy Moss", Performance: employee.RatingHigh, Potential: employee.RatingHigh},
	})
	assert.ErrorContains(t, err, "duplicate key")
	assert.NoError(t, mock.ExpectationsWereMet())
}
