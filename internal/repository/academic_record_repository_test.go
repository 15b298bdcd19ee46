package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusdata/sga-enroll-api/internal/models"
)

func TestAcademicRecordRepositoryHistoryByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAcademicRecordRepository(db)

	mock.ExpectQuery("SELECT subject_id, status FROM academic_records").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"subject_id", "status"}).
			AddRow(1, models.RecordPassed).
			AddRow(2, models.RecordRegular).
			AddRow(3, models.RecordLapsed))

	mock.ExpectQuery("SELECT subject_id FROM subject_enrollments").
		WithArgs(int64(42), models.EnrollmentStatusPending, models.EnrollmentStatusConfirmed).
		WillReturnRows(sqlmock.NewRows([]string{"subject_id"}).AddRow(4))

	history, err := repo.HistoryByStudent(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, history.Passed)
	assert.Equal(t, []int64{2}, history.Regularized)
	assert.Equal(t, []int64{4}, history.EnrolledIDs)
	// A lapsed regular status no longer satisfies anything.
	assert.NotContains(t, history.Regularized, int64(3))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAcademicRecordRepositoryHistoryEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAcademicRecordRepository(db)

	mock.ExpectQuery("SELECT subject_id, status FROM academic_records").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"subject_id", "status"}))
	mock.ExpectQuery("SELECT subject_id FROM subject_enrollments").
		WithArgs(int64(42), models.EnrollmentStatusPending, models.EnrollmentStatusConfirmed).
		WillReturnRows(sqlmock.NewRows([]string{"subject_id"}))

	history, err := repo.HistoryByStudent(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, history.Passed)
	assert.Empty(t, history.Regularized)
	assert.Empty(t, history.EnrolledIDs)
	require.NoError(t, mock.ExpectationsWereMet())
}
