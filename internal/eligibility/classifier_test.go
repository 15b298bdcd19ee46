package eligibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusdata/sga-enroll-api/internal/models"
)

func mustDate(raw string) time.Time {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		panic(err)
	}
	return t
}

func twoSubjectCatalog() []models.Subject {
	return []models.Subject{
		{
			ID:       1,
			Name:     "Algebra",
			Term:     models.TermAnnual,
			Schedule: []models.ClassSlot{slot("MONDAY", "08:00", "10:00")},
		},
		{
			ID:                 2,
			Name:               "Analysis I",
			Term:               models.TermAnnual,
			Schedule:           []models.ClassSlot{slot("MONDAY", "09:00", "11:00")},
			RequiredRegularIDs: []int64{1},
		},
	}
}

func TestClassifyMissingPrerequisites(t *testing.T) {
	in := Input{Catalog: twoSubjectCatalog(), History: models.StudentHistory{}, Now: mustDate("2026-03-10")}

	results := Classify(in)
	require.Len(t, results, 2)
	assert.Equal(t, models.SubjectEnabled, results[1].Status)
	assert.Equal(t, models.SubjectBlocked, results[2].Status)
	assert.Equal(t, models.BlockPrerequisites, results[2].BlockReason)
	assert.Equal(t, []string{"Regularize: Algebra"}, results[2].Reasons)
}

func TestClassifyPrerequisiteSatisfiedNoEnrollments(t *testing.T) {
	in := Input{
		Catalog: twoSubjectCatalog(),
		History: models.StudentHistory{Regularized: []int64{1}},
		Now:     mustDate("2026-03-10"),
	}

	results := Classify(in)
	assert.Equal(t, models.SubjectEnabled, results[1].Status)
	assert.Equal(t, models.SubjectEnabled, results[2].Status)
}

func TestClassifyConflictWithInSessionSelection(t *testing.T) {
	catalog := twoSubjectCatalog()
	in := Input{
		Catalog:    catalog,
		History:    models.StudentHistory{Regularized: []int64{1}},
		Selections: []models.Subject{catalog[0]},
		Now:        mustDate("2026-03-10"),
	}

	results := Classify(in)
	// The selected subject itself reads as already enrolled.
	assert.Equal(t, models.BlockAlreadyEnrolled, results[1].BlockReason)
	require.Equal(t, models.SubjectBlocked, results[2].Status)
	assert.Equal(t, models.BlockScheduleConflict, results[2].BlockReason)
	require.NotNil(t, results[2].ConflictsWith)
	assert.Equal(t, int64(1), *results[2].ConflictsWith)
	assert.Equal(t, []string{"Schedule conflicts with Algebra"}, results[2].Reasons)
}

func TestClassifyConflictWithExistingEnrollment(t *testing.T) {
	in := Input{
		Catalog: twoSubjectCatalog(),
		History: models.StudentHistory{Regularized: []int64{1}, EnrolledIDs: []int64{1}},
		Existing: []ExistingEnrollment{
			{SubjectID: 1, Schedule: []models.ClassSlot{slot("MONDAY", "08:00", "10:00")}},
		},
		Now: mustDate("2026-03-10"),
	}

	results := Classify(in)
	assert.Equal(t, models.BlockAlreadyEnrolled, results[1].BlockReason)
	assert.Equal(t, models.BlockScheduleConflict, results[2].BlockReason)
}

// The assigned section schedule, not the catalog default, drives conflicts.
func TestClassifySectionScheduleOverridesCatalog(t *testing.T) {
	in := Input{
		Catalog: twoSubjectCatalog(),
		History: models.StudentHistory{Regularized: []int64{1}, EnrolledIDs: []int64{1}},
		Existing: []ExistingEnrollment{
			{SubjectID: 1, Schedule: []models.ClassSlot{slot("FRIDAY", "08:00", "10:00")}},
		},
		Now: mustDate("2026-03-10"),
	}

	results := Classify(in)
	assert.Equal(t, models.SubjectEnabled, results[2].Status)
}

func TestClassifyPeriodGate(t *testing.T) {
	window := &models.EnrollmentWindow{
		Active:    true,
		StartDate: mustDate("2026-08-01"),
		EndDate:   mustDate("2026-08-20"),
		Period:    models.PeriodSecondHalf,
	}
	subject := models.Subject{ID: 10, Name: "Physics I", Term: models.TermFirstHalf}
	in := Input{Catalog: []models.Subject{subject}, Window: window, Now: mustDate("2026-08-10")}

	results := Classify(in)
	require.Equal(t, models.SubjectBlocked, results[10].Status)
	assert.Equal(t, models.BlockPeriod, results[10].BlockReason)
}

// The period gate wins even when prerequisites are also missing.
func TestClassifyPeriodPrecedesPrerequisites(t *testing.T) {
	window := &models.EnrollmentWindow{
		Active:    true,
		StartDate: mustDate("2026-08-01"),
		EndDate:   mustDate("2026-08-20"),
		Period:    models.PeriodSecondHalf,
	}
	subject := models.Subject{ID: 10, Term: models.TermFirstHalf, RequiredPassedIDs: []int64{99}}
	in := Input{Catalog: []models.Subject{subject}, Window: window, Now: mustDate("2026-08-10")}

	results := Classify(in)
	assert.Equal(t, models.BlockPeriod, results[10].BlockReason)
}

func TestClassifyPassedShortCircuitsEverything(t *testing.T) {
	window := &models.EnrollmentWindow{
		Active:    true,
		StartDate: mustDate("2026-08-01"),
		EndDate:   mustDate("2026-08-20"),
		Period:    models.PeriodSecondHalf,
	}
	subject := models.Subject{
		ID:                10,
		Term:              models.TermFirstHalf,
		RequiredPassedIDs: []int64{99},
		Schedule:          []models.ClassSlot{slot("MONDAY", "08:00", "10:00")},
	}
	in := Input{
		Catalog: []models.Subject{subject},
		History: models.StudentHistory{Passed: []int64{10}, EnrolledIDs: []int64{10}},
		Window:  window,
		Now:     mustDate("2026-08-10"),
	}

	results := Classify(in)
	assert.Equal(t, models.SubjectPassed, results[10].Status)
	assert.Empty(t, results[10].BlockReason)
}

// Prerequisite failure is reported ahead of a schedule conflict.
func TestClassifyPrerequisitesPrecedeConflicts(t *testing.T) {
	in := Input{
		Catalog: twoSubjectCatalog(),
		History: models.StudentHistory{EnrolledIDs: []int64{1}},
		Existing: []ExistingEnrollment{
			{SubjectID: 1, Schedule: []models.ClassSlot{slot("MONDAY", "08:00", "10:00")}},
		},
		Now: mustDate("2026-03-10"),
	}

	results := Classify(in)
	assert.Equal(t, models.BlockPrerequisites, results[2].BlockReason)
}

func TestClassifyAlreadyEnrolled(t *testing.T) {
	subject := models.Subject{ID: 5, Name: "Chemistry", Term: models.TermAnnual}
	in := Input{
		Catalog: []models.Subject{subject},
		History: models.StudentHistory{EnrolledIDs: []int64{5}},
		Now:     mustDate("2026-03-10"),
	}

	results := Classify(in)
	require.Equal(t, models.SubjectBlocked, results[5].Status)
	assert.Equal(t, models.BlockAlreadyEnrolled, results[5].BlockReason)
}

// Opposite half-year terms never collide regardless of paper timetables.
func TestClassifyOppositeHalvesNeverConflict(t *testing.T) {
	first := models.Subject{ID: 1, Name: "First", Term: models.TermFirstHalf, Schedule: []models.ClassSlot{slot("MONDAY", "08:00", "10:00")}}
	second := models.Subject{ID: 2, Name: "Second", Term: models.TermSecondHalf, Schedule: []models.ClassSlot{slot("MONDAY", "08:00", "10:00")}}
	in := Input{
		Catalog:    []models.Subject{first, second},
		Selections: []models.Subject{first},
		Now:        mustDate("2026-03-10"),
	}

	results := Classify(in)
	assert.Equal(t, models.SubjectEnabled, results[2].Status)
}

func TestClassifyIdempotent(t *testing.T) {
	in := Input{
		Catalog: twoSubjectCatalog(),
		History: models.StudentHistory{Regularized: []int64{1}, EnrolledIDs: []int64{1}},
		Existing: []ExistingEnrollment{
			{SubjectID: 1, Schedule: []models.ClassSlot{slot("MONDAY", "08:00", "10:00")}},
		},
		Now: mustDate("2026-03-10"),
	}

	first := Classify(in)
	second := Classify(in)
	assert.Equal(t, first, second)
}
