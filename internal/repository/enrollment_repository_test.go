package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusdata/sga-enroll-api/internal/models"
)

func enrollmentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "student_id", "subject_id", "window_id", "status", "requested_at", "resolved_at"})
}

func TestEnrollmentRepositoryListActiveByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT id, student_id, subject_id, window_id, status, requested_at, resolved_at").
		WithArgs(int64(42), models.EnrollmentStatusPending, models.EnrollmentStatusConfirmed).
		WillReturnRows(enrollmentRows().AddRow("enr-1", 42, 1, "win-1", models.EnrollmentStatusConfirmed, now, nil))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT enrollment_id, day, start_time, end_time FROM enrollment_slots WHERE enrollment_id IN (?) ORDER BY enrollment_id, position")).
		WithArgs("enr-1").
		WillReturnRows(sqlmock.NewRows([]string{"enrollment_id", "day", "start_time", "end_time"}).
			AddRow("enr-1", "MONDAY", "08:00", "10:00"))

	enrollments, err := repo.ListActiveByStudent(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.Equal(t, []models.ClassSlot{{Day: "MONDAY", StartTime: "08:00", EndTime: "10:00"}}, enrollments[0].Schedule)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryExistsActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(42), int64(1), models.EnrollmentStatusPending, models.EnrollmentStatusConfirmed).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsActive(context.Background(), 42, 1)
	require.NoError(t, err)
	assert.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO subject_enrollments").
		WithArgs(sqlmock.AnyArg(), int64(42), int64(1), "win-1", models.EnrollmentStatusPending, now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO enrollment_slots").
		WithArgs(sqlmock.AnyArg(), 0, "MONDAY", "08:00", "10:00").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	enrollment := &models.SubjectEnrollment{
		StudentID:   42,
		SubjectID:   1,
		WindowID:    "win-1",
		Status:      models.EnrollmentStatusPending,
		RequestedAt: now,
		Schedule:    []models.ClassSlot{{Day: "MONDAY", StartTime: "08:00", EndTime: "10:00"}},
	}
	require.NoError(t, repo.Create(context.Background(), enrollment))
	assert.NotEmpty(t, enrollment.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	resolved := time.Now()
	mock.ExpectExec("UPDATE subject_enrollments SET status").
		WithArgs(models.EnrollmentStatusDropped, resolved, "enr-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "enr-1", models.EnrollmentStatusDropped, &resolved))
	require.NoError(t, mock.ExpectationsWereMet())
}
