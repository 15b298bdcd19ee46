package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusdata/sga-enroll-api/internal/models"
	appErrors "github.com/campusdata/sga-enroll-api/pkg/errors"
	"github.com/campusdata/sga-enroll-api/pkg/export"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.SubjectEnrollment, error)
	Create(ctx context.Context, enrollment *models.SubjectEnrollment) error
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus, resolvedAt *time.Time) error
}

type enrollmentSubjectReader interface {
	FindByID(ctx context.Context, id int64) (*models.Subject, error)
}

type eligibilityReporter interface {
	Report(ctx context.Context, studentID int64, planID *int64, selected []int64) (*models.EligibilityReport, error)
	InvalidateStudent(ctx context.Context, studentID int64)
}

// EnrollRequest captures an enrollment attempt for one subject. StudentID is
// honored for staff callers only; student tokens are always scoped to their
// own identity.
type EnrollRequest struct {
	SubjectID int64  `json:"subject_id" validate:"required"`
	PlanID    *int64 `json:"plan_id,omitempty"`
	StudentID *int64 `json:"student_id,omitempty"`
}

// ResolveEnrollmentRequest settles a pending enrollment.
type ResolveEnrollmentRequest struct {
	Status models.EnrollmentStatus `json:"status" validate:"required,oneof=CONFIRMED REJECTED"`
}

// EnrollmentService handles enrollment submission and lifecycle. Every write
// re-runs classification first: an enrollment is accepted only when the
// subject is currently enrollable for the student.
type EnrollmentService struct {
	repo        enrollmentRepository
	subjects    enrollmentSubjectReader
	windows     currentWindowReader
	eligibility eligibilityReporter
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewEnrollmentService constructs an EnrollmentService.
func NewEnrollmentService(
	repo enrollmentRepository,
	subjects enrollmentSubjectReader,
	windows currentWindowReader,
	eligibility eligibilityReporter,
	validate *validator.Validate,
	logger *zap.Logger,
) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		repo:        repo,
		subjects:    subjects,
		windows:     windows,
		eligibility: eligibility,
		validator:   validate,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Enroll submits an enrollment for the student. The subject must classify as
// enrollable and an enrollment window must currently be open.
func (s *EnrollmentService) Enroll(ctx context.Context, studentID int64, req EnrollRequest) (*models.SubjectEnrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	now := s.now()
	window, err := s.windows.FindCurrent(ctx, now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrWindowClosed, "no enrollment window is open")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment window")
	}

	report, err := s.eligibility.Report(ctx, studentID, req.PlanID, nil)
	if err != nil {
		return nil, err
	}
	result, ok := report.Results[req.SubjectID]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found in catalog")
	}
	if result.Status != models.SubjectEnabled {
		return nil, s.rejectionError(result)
	}

	subject, err := s.subjects.FindByID(ctx, req.SubjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	enrollment := &models.SubjectEnrollment{
		ID:          uuid.NewString(),
		StudentID:   studentID,
		SubjectID:   subject.ID,
		WindowID:    window.ID,
		Status:      models.EnrollmentStatusPending,
		RequestedAt: now,
		Schedule:    subject.Schedule,
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist enrollment")
	}

	s.eligibility.InvalidateStudent(ctx, studentID)
	s.logger.Info("enrollment submitted",
		zap.String("enrollment_id", enrollment.ID),
		zap.Int64("student_id", studentID),
		zap.Int64("subject_id", subject.ID))
	return enrollment, nil
}

// Drop withdraws a pending or confirmed enrollment owned by the student.
func (s *EnrollmentService) Drop(ctx context.Context, studentID int64, enrollmentID string) (*models.SubjectEnrollment, error) {
	enrollment, err := s.findOwned(ctx, studentID, enrollmentID)
	if err != nil {
		return nil, err
	}
	if !enrollment.Status.Active() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "enrollment is already settled")
	}

	resolvedAt := s.now()
	if err := s.repo.UpdateStatus(ctx, enrollment.ID, models.EnrollmentStatusDropped, &resolvedAt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to drop enrollment")
	}
	enrollment.Status = models.EnrollmentStatusDropped
	enrollment.ResolvedAt = &resolvedAt

	s.eligibility.InvalidateStudent(ctx, studentID)
	return enrollment, nil
}

// Resolve confirms or rejects a pending enrollment. Staff only.
func (s *EnrollmentService) Resolve(ctx context.Context, enrollmentID string, req ResolveEnrollmentRequest) (*models.SubjectEnrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resolution payload")
	}

	enrollment, err := s.repo.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Status != models.EnrollmentStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "only pending enrollments can be resolved")
	}

	resolvedAt := s.now()
	if err := s.repo.UpdateStatus(ctx, enrollment.ID, req.Status, &resolvedAt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve enrollment")
	}
	enrollment.Status = req.Status
	enrollment.ResolvedAt = &resolvedAt

	s.eligibility.InvalidateStudent(ctx, enrollment.StudentID)
	return enrollment, nil
}

// Get returns one enrollment, restricted to its owner for student callers.
func (s *EnrollmentService) Get(ctx context.Context, enrollmentID string, studentScope *int64) (*models.SubjectEnrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if studentScope != nil && enrollment.StudentID != *studentScope {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "enrollment belongs to another student")
	}
	return enrollment, nil
}

// List returns paginated enrollment details.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	return items, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// ExportCSV renders the filtered enrollments as a CSV document.
func (s *EnrollmentService) ExportCSV(ctx context.Context, filter models.EnrollmentFilter) ([]byte, error) {
	filter.Page = 1
	filter.PageSize = 10000
	items, _, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}

	table := export.Table{
		Columns: []string{"id", "student_id", "subject_code", "subject_name", "window_id", "status", "requested_at", "resolved_at"},
	}
	for _, item := range items {
		resolved := ""
		if item.ResolvedAt != nil {
			resolved = item.ResolvedAt.UTC().Format(time.RFC3339)
		}
		table.Rows = append(table.Rows, []string{
			item.ID,
			strconv.FormatInt(item.StudentID, 10),
			item.SubjectCode,
			item.SubjectName,
			item.WindowID,
			string(item.Status),
			item.RequestedAt.UTC().Format(time.RFC3339),
			resolved,
		})
	}
	return export.CSV(table)
}

func (s *EnrollmentService) findOwned(ctx context.Context, studentID int64, enrollmentID string) (*models.SubjectEnrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.StudentID != studentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "enrollment belongs to another student")
	}
	return enrollment, nil
}

func (s *EnrollmentService) rejectionError(result models.Classification) error {
	message := "subject is not enrollable"
	if len(result.Reasons) > 0 {
		message = strings.Join(result.Reasons, "; ")
	} else if result.Status == models.SubjectPassed {
		message = "subject has already been passed"
	}
	return appErrors.Clone(appErrors.ErrNotEligible, message)
}
