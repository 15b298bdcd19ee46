package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/campusdata/sga-enroll-api/internal/eligibility"
	"github.com/campusdata/sga-enroll-api/internal/models"
	appErrors "github.com/campusdata/sga-enroll-api/pkg/errors"
	"github.com/campusdata/sga-enroll-api/pkg/jobs"
)

type catalogReader interface {
	ListCatalog(ctx context.Context, planID *int64) ([]models.Subject, error)
}

type historyReader interface {
	HistoryByStudent(ctx context.Context, studentID int64) (*models.StudentHistory, error)
}

type currentWindowReader interface {
	FindCurrent(ctx context.Context, now time.Time) (*models.EnrollmentWindow, error)
}

type activeEnrollmentReader interface {
	ListActiveByStudent(ctx context.Context, studentID int64) ([]models.SubjectEnrollment, error)
}

// EligibilityService assembles the data a classification pass needs, runs the
// pure classifier and shapes the result for rendering. Reports are derived
// state: cached briefly per student and window, invalidated on every
// enrollment write, never stored durably.
type EligibilityService struct {
	subjects    catalogReader
	records     historyReader
	windows     currentWindowReader
	enrollments activeEnrollmentReader
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
	cacheTTL    time.Duration
	warm        *jobs.Queue
	now         func() time.Time
}

// NewEligibilityService constructs an EligibilityService.
func NewEligibilityService(
	subjects catalogReader,
	records historyReader,
	windows currentWindowReader,
	enrollments activeEnrollmentReader,
	cache *CacheService,
	metrics *MetricsService,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *EligibilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EligibilityService{
		subjects:    subjects,
		records:     records,
		windows:     windows,
		enrollments: enrollments,
		cache:       cache,
		metrics:     metrics,
		cacheTTL:    cacheTTL,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Report classifies every catalog subject for the student. Selected IDs are
// the subjects tentatively picked in the current session; they participate in
// conflict detection but are not persisted, so reports with selections bypass
// the cache.
func (s *EligibilityService) Report(ctx context.Context, studentID int64, planID *int64, selected []int64) (*models.EligibilityReport, error) {
	window, err := s.currentWindow(ctx)
	if err != nil {
		return nil, err
	}

	cacheKey := s.cacheKey(studentID, window)
	if len(selected) == 0 && s.cache.Enabled() {
		var cached models.EligibilityReport
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, nil
		}
	}

	catalog, err := s.subjects.ListCatalog(ctx, planID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject catalog")
	}
	for _, subject := range catalog {
		if err := eligibility.ValidateSchedule(subject.ID, subject.Schedule); err != nil {
			s.logger.Warn("catalog subject has an invalid schedule",
				zap.Int64("subject_id", subject.ID), zap.Error(err))
		}
	}

	history, err := s.records.HistoryByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic history")
	}

	active, err := s.enrollments.ListActiveByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active enrollments")
	}

	in := eligibility.Input{
		Catalog:    catalog,
		History:    *history,
		Window:     window,
		Selections: selectSubjects(catalog, selected),
		Existing:   existingEnrollments(active),
		Now:        s.now(),
	}

	results := eligibility.Classify(in)
	if s.metrics != nil {
		s.metrics.RecordClassification()
	}

	report := buildReport(studentID, window, results)
	if len(selected) == 0 && s.cache.Enabled() {
		_ = s.cache.Set(ctx, cacheKey, report, s.cacheTTL)
	}
	return report, nil
}

// SetWarmQueue attaches a background queue that recomputes a student's
// report after invalidation so the next read is served warm.
func (s *EligibilityService) SetWarmQueue(q *jobs.Queue) {
	s.warm = q
}

// InvalidateStudent drops every cached report for the student. Enrollment
// writes call this so the next read reflects the new state.
func (s *EligibilityService) InvalidateStudent(ctx context.Context, studentID int64) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("eligibility:%d:*", studentID)); err != nil {
		s.logger.Warn("failed to invalidate eligibility cache", zap.Int64("student_id", studentID), zap.Error(err))
	}
	if s.warm != nil {
		if err := s.warm.Enqueue(jobs.Job{
			ID:      fmt.Sprintf("warm-%d-%d", studentID, s.now().UnixNano()),
			Type:    "eligibility-warm",
			Payload: studentID,
		}); err != nil {
			s.logger.Warn("failed to enqueue eligibility warm job", zap.Int64("student_id", studentID), zap.Error(err))
		}
	}
}

func (s *EligibilityService) currentWindow(ctx context.Context) (*models.EnrollmentWindow, error) {
	window, err := s.windows.FindCurrent(ctx, s.now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment window")
	}
	return window, nil
}

func (s *EligibilityService) cacheKey(studentID int64, window *models.EnrollmentWindow) string {
	windowID := "none"
	if window != nil {
		windowID = window.ID
	}
	return fmt.Sprintf("eligibility:%d:%s", studentID, windowID)
}

func selectSubjects(catalog []models.Subject, selected []int64) []models.Subject {
	if len(selected) == 0 {
		return nil
	}
	byID := make(map[int64]models.Subject, len(catalog))
	for _, s := range catalog {
		byID[s.ID] = s
	}
	out := make([]models.Subject, 0, len(selected))
	for _, id := range selected {
		if subject, ok := byID[id]; ok {
			out = append(out, subject)
		}
	}
	return out
}

func existingEnrollments(active []models.SubjectEnrollment) []eligibility.ExistingEnrollment {
	out := make([]eligibility.ExistingEnrollment, 0, len(active))
	for _, e := range active {
		out = append(out, eligibility.ExistingEnrollment{SubjectID: e.SubjectID, Schedule: e.Schedule})
	}
	return out
}

func buildReport(studentID int64, window *models.EnrollmentWindow, results map[int64]models.Classification) *models.EligibilityReport {
	report := &models.EligibilityReport{
		StudentID: studentID,
		Results:   results,
		Enabled:   []int64{},
		Blocked:   []int64{},
		Passed:    []int64{},
	}
	if window != nil {
		report.WindowID = window.ID
	}
	for id, result := range results {
		switch result.Status {
		case models.SubjectEnabled:
			report.Enabled = append(report.Enabled, id)
		case models.SubjectBlocked:
			report.Blocked = append(report.Blocked, id)
		case models.SubjectPassed:
			report.Passed = append(report.Passed, id)
		}
	}
	sort.Slice(report.Enabled, func(i, j int) bool { return report.Enabled[i] < report.Enabled[j] })
	sort.Slice(report.Blocked, func(i, j int) bool { return report.Blocked[i] < report.Blocked[j] })
	sort.Slice(report.Passed, func(i, j int) bool { return report.Passed[i] < report.Passed[j] })
	return report
}
