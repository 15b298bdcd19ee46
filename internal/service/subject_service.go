package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusdata/sga-enroll-api/internal/eligibility"
	"github.com/campusdata/sga-enroll-api/internal/models"
	appErrors "github.com/campusdata/sga-enroll-api/pkg/errors"
)

type subjectRepository interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error)
	ListCatalog(ctx context.Context, planID *int64) ([]models.Subject, error)
	FindByID(ctx context.Context, id int64) (*models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
}

// SubjectRequest captures fields for creating or updating catalog subjects.
type SubjectRequest struct {
	Code               string             `json:"code" validate:"required"`
	Name               string             `json:"name" validate:"required"`
	AcademicYear       int                `json:"academic_year" validate:"required,min=1"`
	Term               models.Term        `json:"term" validate:"required"`
	ProgramID          *int64             `json:"program_id,omitempty"`
	PlanID             *int64             `json:"plan_id,omitempty"`
	Schedule           []models.ClassSlot `json:"schedule"`
	RequiredRegularIDs []int64            `json:"required_regular_ids"`
	RequiredPassedIDs  []int64            `json:"required_passed_ids"`
}

// SubjectService manages the subject catalog. Writes enforce the structural
// invariants classification relies on: valid terms, well-formed schedules and
// prerequisites that point at earlier-year subjects.
type SubjectService struct {
	repo      subjectRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService constructs a SubjectService.
func NewSubjectService(repo subjectRepository, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated subjects.
func (s *SubjectService) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
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

// Get returns one subject by ID.
func (s *SubjectService) Get(ctx context.Context, id int64) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	return subject, nil
}

// Create persists a new catalog subject.
func (s *SubjectService) Create(ctx context.Context, req SubjectRequest) (*models.Subject, error) {
	subject, err := s.buildSubject(ctx, 0, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	s.logger.Info("subject created", zap.Int64("subject_id", subject.ID), zap.String("code", subject.Code))
	return subject, nil
}

// Update replaces the subject's fields, schedule and prerequisites.
func (s *SubjectService) Update(ctx context.Context, id int64, req SubjectRequest) (*models.Subject, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	subject, err := s.buildSubject(ctx, existing.ID, req)
	if err != nil {
		return nil, err
	}
	subject.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, subject); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subject")
	}
	return subject, nil
}

func (s *SubjectService) buildSubject(ctx context.Context, id int64, req SubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	if !req.Term.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid term")
	}
	if err := eligibility.ValidateSchedule(id, req.Schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule")
	}
	if err := s.checkRequisites(ctx, id, req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &models.Subject{
		ID:                 id,
		Code:               strings.TrimSpace(req.Code),
		Name:               strings.TrimSpace(req.Name),
		AcademicYear:       req.AcademicYear,
		Term:               req.Term,
		ProgramID:          req.ProgramID,
		PlanID:             req.PlanID,
		CreatedAt:          now,
		UpdatedAt:          now,
		Schedule:           req.Schedule,
		RequiredRegularIDs: req.RequiredRegularIDs,
		RequiredPassedIDs:  req.RequiredPassedIDs,
	}, nil
}

func (s *SubjectService) checkRequisites(ctx context.Context, id int64, req SubjectRequest) error {
	seen := make(map[int64]struct{})
	for _, reqID := range append(append([]int64{}, req.RequiredRegularIDs...), req.RequiredPassedIDs...) {
		if reqID == id && id != 0 {
			return appErrors.Clone(appErrors.ErrValidation, "subject cannot require itself")
		}
		if _, dup := seen[reqID]; dup {
			continue
		}
		seen[reqID] = struct{}{}

		required, err := s.repo.FindByID(ctx, reqID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("required subject %d does not exist", reqID))
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load required subject")
		}
		if required.AcademicYear >= req.AcademicYear {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("required subject %d must belong to an earlier academic year", reqID))
		}
	}
	return nil
}
