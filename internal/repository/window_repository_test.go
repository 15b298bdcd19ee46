package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusdata/sga-enroll-api/internal/models"
)

func windowRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "active", "start_date", "end_date", "period", "created_at", "updated_at"})
}

func TestWindowRepositoryFindCurrent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentWindowRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT id, name, active, start_date, end_date, period, created_at, updated_at FROM enrollment_windows").
		WithArgs(now).
		WillReturnRows(windowRows().AddRow("win-1", "2nd half 2026", true, now.AddDate(0, 0, -1), now.AddDate(0, 0, 5), models.PeriodSecondHalf, now, now))

	window, err := repo.FindCurrent(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, "win-1", window.ID)
	assert.Equal(t, models.PeriodSecondHalf, window.Period)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWindowRepositoryFindCurrentNone(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentWindowRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT id, name, active, start_date, end_date, period, created_at, updated_at FROM enrollment_windows").
		WithArgs(now).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindCurrent(context.Background(), now)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWindowRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentWindowRepository(db)

	start := time.Now()
	end := start.AddDate(0, 0, 10)
	mock.ExpectExec("INSERT INTO enrollment_windows").
		WithArgs(sqlmock.AnyArg(), "annual 2026", true, start, end, models.PeriodFirstHalfAndAnnual).
		WillReturnResult(sqlmock.NewResult(1, 1))

	window := &models.EnrollmentWindow{
		Name:      "annual 2026",
		Active:    true,
		StartDate: start,
		EndDate:   end,
		Period:    models.PeriodFirstHalfAndAnnual,
	}
	require.NoError(t, repo.Create(context.Background(), window))
	assert.NotEmpty(t, window.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWindowRepositoryDeactivateOthers(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentWindowRepository(db)

	mock.ExpectExec("UPDATE enrollment_windows SET active = FALSE").
		WithArgs("win-1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.DeactivateOthers(context.Background(), "win-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
