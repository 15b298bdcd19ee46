package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusdata/sga-enroll-api/internal/models"
)

// AcademicRecordRepository persists per-subject outcomes of a student's
// trajectory and assembles the history snapshot the eligibility engine reads.
type AcademicRecordRepository struct {
	db *sqlx.DB
}

// NewAcademicRecordRepository constructs the repository.
func NewAcademicRecordRepository(db *sqlx.DB) *AcademicRecordRepository {
	return &AcademicRecordRepository{db: db}
}

// HistoryByStudent builds the StudentHistory snapshot: passed and regularized
// subject IDs from academic records, plus subjects with a seat-occupying
// enrollment.
func (r *AcademicRecordRepository) HistoryByStudent(ctx context.Context, studentID int64) (*models.StudentHistory, error) {
	history := &models.StudentHistory{StudentID: studentID}

	const recordsQuery = `SELECT subject_id, status FROM academic_records WHERE student_id = $1 ORDER BY subject_id`
	var records []struct {
		SubjectID int64               `db:"subject_id"`
		Status    models.RecordStatus `db:"status"`
	}
	if err := r.db.SelectContext(ctx, &records, recordsQuery, studentID); err != nil {
		return nil, fmt.Errorf("list academic records: %w", err)
	}
	for _, rec := range records {
		switch rec.Status {
		case models.RecordPassed:
			history.Passed = append(history.Passed, rec.SubjectID)
		case models.RecordRegular:
			history.Regularized = append(history.Regularized, rec.SubjectID)
		}
	}

	const enrolledQuery = `SELECT subject_id FROM subject_enrollments WHERE student_id = $1 AND status IN ($2, $3) ORDER BY subject_id`
	if err := r.db.SelectContext(ctx, &history.EnrolledIDs, enrolledQuery,
		studentID, models.EnrollmentStatusPending, models.EnrollmentStatusConfirmed); err != nil {
		return nil, fmt.Errorf("list enrolled subjects: %w", err)
	}

	return history, nil
}

// ListByStudent returns the raw academic record rows for a student.
func (r *AcademicRecordRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.AcademicRecord, error) {
	const query = `SELECT id, student_id, subject_id, status, grade, recorded_at FROM academic_records WHERE student_id = $1 ORDER BY recorded_at DESC`
	var records []models.AcademicRecord
	if err := r.db.SelectContext(ctx, &records, query, studentID); err != nil {
		return nil, fmt.Errorf("list academic records: %w", err)
	}
	return records, nil
}

// Create inserts an academic record row.
func (r *AcademicRecordRepository) Create(ctx context.Context, record *models.AcademicRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.RecordedAt.IsZero() {
		record.RecordedAt = time.Now().UTC()
	}
	const query = `INSERT INTO academic_records (id, student_id, subject_id, status, grade, recorded_at)
        VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(ctx, query,
		record.ID, record.StudentID, record.SubjectID, record.Status, record.Grade, record.RecordedAt); err != nil {
		return fmt.Errorf("insert academic record: %w", err)
	}
	return nil
}
