package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusdata/sga-enroll-api/internal/models"
)

// EnrollmentRepository handles persistence of subject enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// List returns enrollments with subject info, filtered and paginated.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	base := `FROM subject_enrollments e
LEFT JOIN subjects s ON s.id = e.subject_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != nil {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, *filter.StudentID)
	}
	if filter.SubjectID != nil {
		conditions = append(conditions, fmt.Sprintf("e.subject_id = $%d", len(args)+1))
		args = append(args, *filter.SubjectID)
	}
	if filter.WindowID != "" {
		conditions = append(conditions, fmt.Sprintf("e.window_id = $%d", len(args)+1))
		args = append(args, filter.WindowID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"requested_at": "e.requested_at",
		"subject_name": "s.name",
		"status":       "e.status",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "e.requested_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT e.id, e.student_id, e.subject_id, e.window_id, e.status, e.requested_at, e.resolved_at,
        s.code AS subject_code, s.name AS subject_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.SubjectEnrollment, error) {
	const query = `SELECT id, student_id, subject_id, window_id, status, requested_at, resolved_at FROM subject_enrollments WHERE id = $1`
	var enrollment models.SubjectEnrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	schedule, err := r.slotsByEnrollment(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	enrollment.Schedule = schedule[id]
	return &enrollment, nil
}

// ListActiveByStudent returns pending and confirmed enrollments with their
// assigned section schedules. This is the conflict-detection input of the
// eligibility engine.
func (r *EnrollmentRepository) ListActiveByStudent(ctx context.Context, studentID int64) ([]models.SubjectEnrollment, error) {
	const query = `SELECT id, student_id, subject_id, window_id, status, requested_at, resolved_at
        FROM subject_enrollments WHERE student_id = $1 AND status IN ($2, $3) ORDER BY requested_at`
	var enrollments []models.SubjectEnrollment
	if err := r.db.SelectContext(ctx, &enrollments, query,
		studentID, models.EnrollmentStatusPending, models.EnrollmentStatusConfirmed); err != nil {
		return nil, fmt.Errorf("list active enrollments: %w", err)
	}
	if len(enrollments) == 0 {
		return enrollments, nil
	}

	ids := make([]string, len(enrollments))
	for i, e := range enrollments {
		ids[i] = e.ID
	}
	schedules, err := r.slotsByEnrollment(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range enrollments {
		enrollments[i].Schedule = schedules[enrollments[i].ID]
	}
	return enrollments, nil
}

// ExistsActive reports whether the student already holds a seat-occupying
// enrollment for the subject.
func (r *EnrollmentRepository) ExistsActive(ctx context.Context, studentID, subjectID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM subject_enrollments WHERE student_id = $1 AND subject_id = $2 AND status IN ($3, $4))`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query,
		studentID, subjectID, models.EnrollmentStatusPending, models.EnrollmentStatusConfirmed); err != nil {
		return false, fmt.Errorf("check active enrollment: %w", err)
	}
	return exists, nil
}

// Create inserts an enrollment with its assigned schedule slots.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.SubjectEnrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create enrollment: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO subject_enrollments (id, student_id, subject_id, window_id, status, requested_at)
        VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := tx.ExecContext(ctx, query,
		enrollment.ID, enrollment.StudentID, enrollment.SubjectID, enrollment.WindowID, enrollment.Status, enrollment.RequestedAt); err != nil {
		return fmt.Errorf("insert enrollment: %w", err)
	}

	const slotQuery = `INSERT INTO enrollment_slots (enrollment_id, position, day, start_time, end_time) VALUES ($1, $2, $3, $4, $5)`
	for i, slot := range enrollment.Schedule {
		if _, err := tx.ExecContext(ctx, slotQuery, enrollment.ID, i, slot.Day, slot.StartTime, slot.EndTime); err != nil {
			return fmt.Errorf("insert enrollment slot: %w", err)
		}
	}
	return tx.Commit()
}

// UpdateStatus transitions an enrollment's lifecycle state.
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus, resolvedAt *time.Time) error {
	const query = `UPDATE subject_enrollments SET status = $1, resolved_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, status, resolvedAt, id); err != nil {
		return fmt.Errorf("update enrollment status: %w", err)
	}
	return nil
}

type enrollmentSlotRow struct {
	EnrollmentID string `db:"enrollment_id"`
	Day          string `db:"day"`
	StartTime    string `db:"start_time"`
	EndTime      string `db:"end_time"`
}

func (r *EnrollmentRepository) slotsByEnrollment(ctx context.Context, ids []string) (map[string][]models.ClassSlot, error) {
	query, args, err := sqlx.In("SELECT enrollment_id, day, start_time, end_time FROM enrollment_slots WHERE enrollment_id IN (?) ORDER BY enrollment_id, position", ids)
	if err != nil {
		return nil, fmt.Errorf("build enrollment slots query: %w", err)
	}
	query = r.db.Rebind(query)

	var rows []enrollmentSlotRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list enrollment slots: %w", err)
	}

	result := make(map[string][]models.ClassSlot, len(ids))
	for _, row := range rows {
		result[row.EnrollmentID] = append(result[row.EnrollmentID], models.ClassSlot{
			Day:       row.Day,
			StartTime: row.StartTime,
			EndTime:   row.EndTime,
		})
	}
	return result, nil
}
