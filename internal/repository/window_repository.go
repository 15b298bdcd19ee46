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

// EnrollmentWindowRepository handles persistence of enrollment windows.
type EnrollmentWindowRepository struct {
	db *sqlx.DB
}

// NewEnrollmentWindowRepository constructs the repository.
func NewEnrollmentWindowRepository(db *sqlx.DB) *EnrollmentWindowRepository {
	return &EnrollmentWindowRepository{db: db}
}

const windowColumns = "id, name, active, start_date, end_date, period, created_at, updated_at"

// List returns windows filtered by the provided criteria.
func (r *EnrollmentWindowRepository) List(ctx context.Context, filter models.WindowFilter) ([]models.EnrollmentWindow, int, error) {
	var conditions []string
	var args []interface{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Period != "" {
		conditions = append(conditions, fmt.Sprintf("period = $%d", len(args)+1))
		args = append(args, filter.Period)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
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

	query := fmt.Sprintf("SELECT %s FROM enrollment_windows%s ORDER BY start_date %s LIMIT %d OFFSET %d",
		windowColumns, clause, order, size, offset)

	var windows []models.EnrollmentWindow
	if err := r.db.SelectContext(ctx, &windows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollment windows: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM enrollment_windows" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollment windows: %w", err)
	}
	return windows, total, nil
}

// FindByID returns a window by its ID.
func (r *EnrollmentWindowRepository) FindByID(ctx context.Context, id string) (*models.EnrollmentWindow, error) {
	query := fmt.Sprintf("SELECT %s FROM enrollment_windows WHERE id = $1", windowColumns)
	var window models.EnrollmentWindow
	if err := r.db.GetContext(ctx, &window, query, id); err != nil {
		return nil, err
	}
	return &window, nil
}

// FindCurrent returns the active window whose date range covers the given
// instant, or sql.ErrNoRows when none does.
func (r *EnrollmentWindowRepository) FindCurrent(ctx context.Context, now time.Time) (*models.EnrollmentWindow, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollment_windows
        WHERE active = TRUE AND start_date <= $1 AND end_date >= $1
        ORDER BY start_date DESC LIMIT 1`, windowColumns)
	var window models.EnrollmentWindow
	if err := r.db.GetContext(ctx, &window, query, now); err != nil {
		return nil, err
	}
	return &window, nil
}

// Create inserts a new enrollment window.
func (r *EnrollmentWindowRepository) Create(ctx context.Context, window *models.EnrollmentWindow) error {
	if window.ID == "" {
		window.ID = uuid.NewString()
	}
	// period is stored as '' when the window carries no term restriction.
	const query = `INSERT INTO enrollment_windows (id, name, active, start_date, end_date, period, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`
	if _, err := r.db.ExecContext(ctx, query,
		window.ID, window.Name, window.Active, window.StartDate, window.EndDate, window.Period); err != nil {
		return fmt.Errorf("insert enrollment window: %w", err)
	}
	return nil
}

// Update replaces a window's mutable fields.
func (r *EnrollmentWindowRepository) Update(ctx context.Context, window *models.EnrollmentWindow) error {
	const query = `UPDATE enrollment_windows SET name = $1, active = $2, start_date = $3, end_date = $4, period = $5, updated_at = NOW() WHERE id = $6`
	if _, err := r.db.ExecContext(ctx, query,
		window.Name, window.Active, window.StartDate, window.EndDate, window.Period, window.ID); err != nil {
		return fmt.Errorf("update enrollment window: %w", err)
	}
	return nil
}

// DeactivateOthers clears the active flag on every window except the given
// one, keeping a single window open per period.
func (r *EnrollmentWindowRepository) DeactivateOthers(ctx context.Context, keepID string) error {
	const query = `UPDATE enrollment_windows SET active = FALSE, updated_at = NOW() WHERE id <> $1 AND active = TRUE`
	if _, err := r.db.ExecContext(ctx, query, keepID); err != nil {
		return fmt.Errorf("deactivate enrollment windows: %w", err)
	}
	return nil
}
