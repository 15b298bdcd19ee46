package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusdata/sga-enroll-api/internal/models"
	"github.com/campusdata/sga-enroll-api/internal/service"
)

type fakeCatalog struct {
	catalog []models.Subject
}

func (f *fakeCatalog) ListCatalog(context.Context, *int64) ([]models.Subject, error) {
	return f.catalog, nil
}

type fakeHistory struct {
	history models.StudentHistory
}

func (f *fakeHistory) HistoryByStudent(_ context.Context, studentID int64) (*models.StudentHistory, error) {
	h := f.history
	h.StudentID = studentID
	return &h, nil
}

type fakeWindows struct {
	window *models.EnrollmentWindow
}

func (f *fakeWindows) FindCurrent(context.Context, time.Time) (*models.EnrollmentWindow, error) {
	if f.window == nil {
		return nil, sql.ErrNoRows
	}
	return f.window, nil
}

type fakeActive struct{}

func (fakeActive) ListActiveByStudent(context.Context, int64) ([]models.SubjectEnrollment, error) {
	return nil, nil
}

type reportEnvelope struct {
	Data  *models.EligibilityReport `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestEligibilityHandler() *EligibilityHandler {
	catalog := &fakeCatalog{catalog: []models.Subject{
		{ID: 1, Code: "MAT101", Name: "Algebra", AcademicYear: 1, Term: models.TermAnnual},
		{ID: 2, Code: "MAT201", Name: "Analysis I", AcademicYear: 2, Term: models.TermAnnual, RequiredRegularIDs: []int64{1}},
	}}
	svc := service.NewEligibilityService(
		catalog,
		&fakeHistory{history: models.StudentHistory{Regularized: []int64{1}}},
		&fakeWindows{},
		fakeActive{},
		nil,
		nil,
		time.Minute,
		zap.NewNop(),
	)
	return NewEligibilityHandler(svc)
}

func performReport(t *testing.T, target string) (*httptest.ResponseRecorder, reportEnvelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	handler := newTestEligibilityHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	c.Params = gin.Params{{Key: "id", Value: "7"}}

	handler.Report(c)

	var envelope reportEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return rec, envelope
}

func TestEligibilityHandlerReport(t *testing.T) {
	rec, envelope := performReport(t, "/students/7/eligibility")

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, envelope.Data)
	assert.Equal(t, int64(7), envelope.Data.StudentID)
	assert.Equal(t, []int64{1, 2}, envelope.Data.Enabled)
}

func TestEligibilityHandlerReportWithSelections(t *testing.T) {
	rec, envelope := performReport(t, "/students/7/eligibility?selected=1,2")

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, envelope.Data)
	// Both selected subjects classify as already enrolled for this session.
	assert.Equal(t, models.BlockAlreadyEnrolled, envelope.Data.Results[1].BlockReason)
	assert.Equal(t, models.BlockAlreadyEnrolled, envelope.Data.Results[2].BlockReason)
}

func TestEligibilityHandlerReportBadSelected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestEligibilityHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/students/7/eligibility?selected=abc", nil)
	c.Params = gin.Params{{Key: "id", Value: "7"}}

	handler.Report(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEligibilityHandlerReportBadStudentID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestEligibilityHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/students/abc/eligibility", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	handler.Report(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
