package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusdata/sga-enroll-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func subjectRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "code", "name", "academic_year", "term", "program_id", "plan_id", "created_at", "updated_at"})
}

func TestSubjectRepositoryListCatalog(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, code, name, academic_year, term, program_id, plan_id, created_at, updated_at FROM subjects ORDER BY academic_year ASC, id ASC")).
		WillReturnRows(subjectRows().
			AddRow(1, "MAT101", "Algebra", 1, models.TermAnnual, nil, nil, now, now).
			AddRow(2, "MAT201", "Analysis I", 2, models.TermFirstHalf, nil, nil, now, now))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT subject_id, day, start_time, end_time FROM subject_slots WHERE subject_id IN (?, ?) ORDER BY subject_id, position")).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"subject_id", "day", "start_time", "end_time"}).
			AddRow(1, "MONDAY", "08:00", "10:00").
			AddRow(2, "MONDAY", "09:00", "11:00"))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT subject_id, required_id, kind FROM subject_requisites WHERE subject_id IN (?, ?) ORDER BY subject_id, required_id")).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"subject_id", "required_id", "kind"}).
			AddRow(2, 1, models.RequisiteRegular))

	catalog, err := repo.ListCatalog(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, catalog, 2)
	assert.Equal(t, []models.ClassSlot{{Day: "MONDAY", StartTime: "08:00", EndTime: "10:00"}}, catalog[0].Schedule)
	assert.Equal(t, []int64{1}, catalog[1].RequiredRegularIDs)
	assert.Empty(t, catalog[1].RequiredPassedIDs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryListCatalogEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectQuery("SELECT id, code, name").WillReturnRows(subjectRows())

	catalog, err := repo.ListCatalog(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, catalog)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	now := time.Now()
	year := 2
	mock.ExpectQuery("SELECT id, code, name, academic_year, term, program_id, plan_id, created_at, updated_at FROM subjects WHERE academic_year").
		WithArgs(year).
		WillReturnRows(subjectRows().AddRow(3, "FIS201", "Physics II", 2, models.TermSecondHalf, nil, nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM subjects WHERE academic_year = $1")).
		WithArgs(year).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	subjects, total, err := repo.List(context.Background(), models.SubjectFilter{AcademicYear: &year})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, subjects, 1)
	assert.Equal(t, "Physics II", subjects[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO subjects").
		WithArgs("MAT101", "Algebra", 1, models.TermAnnual, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(7, now, now))
	mock.ExpectExec("INSERT INTO subject_slots").
		WithArgs(int64(7), 0, "MONDAY", "08:00", "10:00").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	subject := &models.Subject{
		Code:         "MAT101",
		Name:         "Algebra",
		AcademicYear: 1,
		Term:         models.TermAnnual,
		Schedule:     []models.ClassSlot{{Day: "MONDAY", StartTime: "08:00", EndTime: "10:00"}},
	}
	require.NoError(t, repo.Create(context.Background(), subject))
	assert.Equal(t, int64(7), subject.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
