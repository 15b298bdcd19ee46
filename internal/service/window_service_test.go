package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusdata/sga-enroll-api/internal/models"
	appErrors "github.com/campusdata/sga-enroll-api/pkg/errors"
)

type mockWindowRepo struct {
	windows     map[string]models.EnrollmentWindow
	deactivated []string
}

func (m *mockWindowRepo) List(ctx context.Context, filter models.WindowFilter) ([]models.EnrollmentWindow, int, error) {
	var out []models.EnrollmentWindow
	for _, w := range m.windows {
		out = append(out, w)
	}
	return out, len(out), nil
}

func (m *mockWindowRepo) FindByID(ctx context.Context, id string) (*models.EnrollmentWindow, error) {
	if w, ok := m.windows[id]; ok {
		return &w, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockWindowRepo) FindCurrent(ctx context.Context, now time.Time) (*models.EnrollmentWindow, error) {
	for _, w := range m.windows {
		if w.Active && w.OpenAt(now) {
			current := w
			return &current, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockWindowRepo) Create(ctx context.Context, window *models.EnrollmentWindow) error {
	if m.windows == nil {
		m.windows = make(map[string]models.EnrollmentWindow)
	}
	m.windows[window.ID] = *window
	return nil
}

func (m *mockWindowRepo) Update(ctx context.Context, window *models.EnrollmentWindow) error {
	if _, ok := m.windows[window.ID]; !ok {
		return sql.ErrNoRows
	}
	m.windows[window.ID] = *window
	return nil
}

func (m *mockWindowRepo) DeactivateOthers(ctx context.Context, keepID string) error {
	m.deactivated = append(m.deactivated, keepID)
	for id, w := range m.windows {
		if id != keepID {
			w.Active = false
			m.windows[id] = w
		}
	}
	return nil
}

func newTestWindowService(repo *mockWindowRepo) *WindowService {
	svc := NewWindowService(repo, validator.New(), zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestWindowServiceCreateActivatesSingleWindow(t *testing.T) {
	repo := &mockWindowRepo{windows: map[string]models.EnrollmentWindow{
		"old": {ID: "old", Name: "old window", Active: true},
	}}
	svc := newTestWindowService(repo)

	window, err := svc.Create(context.Background(), WindowRequest{
		Name:      "2026 intake",
		StartDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		Period:    models.PeriodFirstHalfAndAnnual,
		Active:    true,
	})
	require.NoError(t, err)

	assert.True(t, window.Active)
	assert.Contains(t, repo.deactivated, window.ID)
	assert.False(t, repo.windows["old"].Active)
}

func TestWindowServiceCreateRejectsInvertedDates(t *testing.T) {
	svc := newTestWindowService(&mockWindowRepo{})

	_, err := svc.Create(context.Background(), WindowRequest{
		Name:      "bad",
		StartDate: time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestWindowServiceCreateRejectsUnknownPeriod(t *testing.T) {
	svc := newTestWindowService(&mockWindowRepo{})

	_, err := svc.Create(context.Background(), WindowRequest{
		Name:      "bad",
		StartDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		Period:    models.WindowPeriod("THIRD_HALF"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestWindowServiceActivate(t *testing.T) {
	repo := &mockWindowRepo{windows: map[string]models.EnrollmentWindow{
		"w1": {ID: "w1", Name: "first", Active: false},
		"w2": {ID: "w2", Name: "second", Active: true},
	}}
	svc := newTestWindowService(repo)

	window, err := svc.Activate(context.Background(), "w1")
	require.NoError(t, err)

	assert.True(t, window.Active)
	assert.False(t, repo.windows["w2"].Active)
}

func TestWindowServiceCurrentNone(t *testing.T) {
	svc := newTestWindowService(&mockWindowRepo{})

	_, err := svc.Current(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
