package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusdata/sga-enroll-api/internal/models"
	appErrors "github.com/campusdata/sga-enroll-api/pkg/errors"
)

type windowRepository interface {
	List(ctx context.Context, filter models.WindowFilter) ([]models.EnrollmentWindow, int, error)
	FindByID(ctx context.Context, id string) (*models.EnrollmentWindow, error)
	FindCurrent(ctx context.Context, now time.Time) (*models.EnrollmentWindow, error)
	Create(ctx context.Context, window *models.EnrollmentWindow) error
	Update(ctx context.Context, window *models.EnrollmentWindow) error
	DeactivateOthers(ctx context.Context, keepID string) error
}

// WindowRequest captures fields for creating or updating enrollment windows.
type WindowRequest struct {
	Name      string              `json:"name" validate:"required"`
	StartDate time.Time           `json:"start_date" validate:"required"`
	EndDate   time.Time           `json:"end_date" validate:"required"`
	Period    models.WindowPeriod `json:"period"`
	Active    bool                `json:"active"`
}

// WindowService manages enrollment windows. At most one window is active at a
// time; activating a window deactivates the rest.
type WindowService struct {
	repo      windowRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewWindowService constructs a WindowService.
func NewWindowService(repo windowRepository, validate *validator.Validate, logger *zap.Logger) *WindowService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WindowService{repo: repo, validator: validate, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// List returns paginated windows.
func (s *WindowService) List(ctx context.Context, filter models.WindowFilter) ([]models.EnrollmentWindow, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list windows")
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

// Get returns one window by ID.
func (s *WindowService) Get(ctx context.Context, id string) (*models.EnrollmentWindow, error) {
	window, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment window not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load window")
	}
	return window, nil
}

// Current returns the window open right now, or a not-found error.
func (s *WindowService) Current(ctx context.Context) (*models.EnrollmentWindow, error) {
	window, err := s.repo.FindCurrent(ctx, s.now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no enrollment window is open")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load window")
	}
	return window, nil
}

// Create persists a new enrollment window.
func (s *WindowService) Create(ctx context.Context, req WindowRequest) (*models.EnrollmentWindow, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	now := s.now()
	window := &models.EnrollmentWindow{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Active:    req.Active,
		StartDate: req.StartDate.UTC(),
		EndDate:   req.EndDate.UTC(),
		Period:    req.Period,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, window); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create window")
	}
	if window.Active {
		if err := s.repo.DeactivateOthers(ctx, window.ID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate other windows")
		}
	}
	s.logger.Info("enrollment window created", zap.String("window_id", window.ID), zap.String("name", window.Name))
	return window, nil
}

// Update replaces the window's fields.
func (s *WindowService) Update(ctx context.Context, id string, req WindowRequest) (*models.EnrollmentWindow, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	window, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	window.Name = req.Name
	window.Active = req.Active
	window.StartDate = req.StartDate.UTC()
	window.EndDate = req.EndDate.UTC()
	window.Period = req.Period
	window.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, window); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment window not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update window")
	}
	if window.Active {
		if err := s.repo.DeactivateOthers(ctx, window.ID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate other windows")
		}
	}
	return window, nil
}

// Activate marks the window active and deactivates every other window.
func (s *WindowService) Activate(ctx context.Context, id string) (*models.EnrollmentWindow, error) {
	window, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	window.Active = true
	window.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, window); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate window")
	}
	if err := s.repo.DeactivateOthers(ctx, window.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate other windows")
	}
	return window, nil
}

func (s *WindowService) validateRequest(req WindowRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid window payload")
	}
	if req.EndDate.Before(req.StartDate) {
		return appErrors.Clone(appErrors.ErrValidation, "end_date must not precede start_date")
	}
	if !req.Period.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "invalid period restriction")
	}
	return nil
}
