package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusdata/sga-enroll-api/internal/models"
	appErrors "github.com/campusdata/sga-enroll-api/pkg/errors"
)

type mockSubjectRepo struct {
	subjects map[int64]models.Subject
	created  *models.Subject
	updated  *models.Subject
	nextID   int64
}

func (m *mockSubjectRepo) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	var out []models.Subject
	for _, s := range m.subjects {
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m *mockSubjectRepo) ListCatalog(ctx context.Context, planID *int64) ([]models.Subject, error) {
	var out []models.Subject
	for _, s := range m.subjects {
		out = append(out, s)
	}
	return out, nil
}

func (m *mockSubjectRepo) FindByID(ctx context.Context, id int64) (*models.Subject, error) {
	if s, ok := m.subjects[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubjectRepo) Create(ctx context.Context, subject *models.Subject) error {
	if m.subjects == nil {
		m.subjects = make(map[int64]models.Subject)
	}
	m.nextID++
	subject.ID = m.nextID
	m.subjects[subject.ID] = *subject
	m.created = subject
	return nil
}

func (m *mockSubjectRepo) Update(ctx context.Context, subject *models.Subject) error {
	if _, ok := m.subjects[subject.ID]; !ok {
		return sql.ErrNoRows
	}
	m.subjects[subject.ID] = *subject
	m.updated = subject
	return nil
}

func newTestSubjectService(repo *mockSubjectRepo) *SubjectService {
	return NewSubjectService(repo, validator.New(), zap.NewNop())
}

func validSubjectRequest() SubjectRequest {
	return SubjectRequest{
		Code:         "MAT201",
		Name:         "Analysis I",
		AcademicYear: 2,
		Term:         models.TermAnnual,
		Schedule:     []models.ClassSlot{{Day: "MONDAY", StartTime: "08:00", EndTime: "10:00"}},
	}
}

func TestSubjectServiceCreate(t *testing.T) {
	repo := &mockSubjectRepo{subjects: map[int64]models.Subject{
		1: {ID: 1, Code: "MAT101", AcademicYear: 1},
	}, nextID: 1}
	svc := newTestSubjectService(repo)

	req := validSubjectRequest()
	req.RequiredRegularIDs = []int64{1}

	subject, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "MAT201", subject.Code)
	assert.NotZero(t, subject.ID)
	require.NotNil(t, repo.created)
}

func TestSubjectServiceCreateRejectsBadTerm(t *testing.T) {
	svc := newTestSubjectService(&mockSubjectRepo{})

	req := validSubjectRequest()
	req.Term = models.Term("QUARTER")

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSubjectServiceCreateRejectsBadSchedule(t *testing.T) {
	svc := newTestSubjectService(&mockSubjectRepo{})

	req := validSubjectRequest()
	req.Schedule = []models.ClassSlot{{Day: "MONDAY", StartTime: "10:00", EndTime: "08:00"}}

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSubjectServiceCreateRejectsMissingRequisite(t *testing.T) {
	svc := newTestSubjectService(&mockSubjectRepo{})

	req := validSubjectRequest()
	req.RequiredPassedIDs = []int64{42}

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "does not exist")
}

func TestSubjectServiceCreateRejectsLaterYearRequisite(t *testing.T) {
	repo := &mockSubjectRepo{subjects: map[int64]models.Subject{
		3: {ID: 3, Code: "MAT301", AcademicYear: 3},
	}, nextID: 3}
	svc := newTestSubjectService(repo)

	req := validSubjectRequest()
	req.RequiredRegularIDs = []int64{3}

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "earlier academic year")
}

func TestSubjectServiceUpdateRejectsSelfRequisite(t *testing.T) {
	repo := &mockSubjectRepo{subjects: map[int64]models.Subject{
		2: {ID: 2, Code: "MAT201", AcademicYear: 2},
	}, nextID: 2}
	svc := newTestSubjectService(repo)

	req := validSubjectRequest()
	req.RequiredRegularIDs = []int64{2}

	_, err := svc.Update(context.Background(), 2, req)
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "cannot require itself")
}

func TestSubjectServiceGetNotFound(t *testing.T) {
	svc := newTestSubjectService(&mockSubjectRepo{})

	_, err := svc.Get(context.Background(), 99)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
