package eligibility

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/campusdata/sga-enroll-api/internal/models"
)

func catalogIndex(subjects ...models.Subject) map[int64]models.Subject {
	idx := make(map[int64]models.Subject, len(subjects))
	for _, s := range subjects {
		idx[s.ID] = s
	}
	return idx
}

func TestCheckPrerequisitesAllSatisfied(t *testing.T) {
	algebra := models.Subject{ID: 1, Name: "Algebra"}
	analysis := models.Subject{ID: 2, Name: "Analysis I"}
	subject := models.Subject{ID: 3, Name: "Analysis II", RequiredRegularIDs: []int64{2}, RequiredPassedIDs: []int64{1}}
	history := models.StudentHistory{Passed: []int64{1}, Regularized: []int64{2}}

	result := CheckPrerequisites(subject, history, catalogIndex(algebra, analysis, subject))
	assert.True(t, result.Satisfied())
	assert.Empty(t, result.MissingRegular)
	assert.Empty(t, result.MissingPassed)
}

func TestCheckPrerequisitesMissingSets(t *testing.T) {
	subject := models.Subject{ID: 3, RequiredRegularIDs: []int64{1, 2}, RequiredPassedIDs: []int64{1}}
	catalog := catalogIndex(
		models.Subject{ID: 1, Name: "Algebra"},
		models.Subject{ID: 2, Name: "Analysis I"},
	)
	history := models.StudentHistory{Regularized: []int64{1}}

	result := CheckPrerequisites(subject, history, catalog)
	assert.False(t, result.Satisfied())
	assert.Equal(t, []string{"Analysis I"}, result.MissingRegular)
	assert.Equal(t, []string{"Algebra"}, result.MissingPassed)
}

func TestCheckPrerequisitesPassedCountsAsRegularized(t *testing.T) {
	subject := models.Subject{ID: 2, RequiredRegularIDs: []int64{1}}
	history := models.StudentHistory{Passed: []int64{1}}

	result := CheckPrerequisites(subject, history, catalogIndex(models.Subject{ID: 1, Name: "Algebra"}))
	assert.True(t, result.Satisfied())
}

func TestCheckPrerequisitesUnknownIDPlaceholder(t *testing.T) {
	subject := models.Subject{ID: 2, RequiredRegularIDs: []int64{99, 99}}
	history := models.StudentHistory{}

	result := CheckPrerequisites(subject, history, catalogIndex())
	assert.Equal(t, []string{"Subject 99"}, result.MissingRegular)
}

func TestPeriodEligible(t *testing.T) {
	now := mustDate("2026-03-10")
	open := &models.EnrollmentWindow{
		Active:    true,
		StartDate: mustDate("2026-03-01"),
		EndDate:   mustDate("2026-03-20"),
	}
	annual := models.Subject{Term: models.TermAnnual}
	first := models.Subject{Term: models.TermFirstHalf}
	second := models.Subject{Term: models.TermSecondHalf}

	// No period tag: no restriction.
	assert.True(t, PeriodEligible(annual, open, now))
	assert.True(t, PeriodEligible(second, open, now))

	// Nil or inactive window: no restriction either.
	assert.True(t, PeriodEligible(second, nil, now))
	closed := *open
	closed.Active = false
	closed.Period = models.PeriodSecondHalf
	assert.True(t, PeriodEligible(first, &closed, now))

	firstAndAnnual := *open
	firstAndAnnual.Period = models.PeriodFirstHalfAndAnnual
	assert.True(t, PeriodEligible(annual, &firstAndAnnual, now))
	assert.True(t, PeriodEligible(first, &firstAndAnnual, now))
	assert.False(t, PeriodEligible(second, &firstAndAnnual, now))

	secondOnly := *open
	secondOnly.Period = models.PeriodSecondHalf
	assert.False(t, PeriodEligible(annual, &secondOnly, now))
	assert.False(t, PeriodEligible(first, &secondOnly, now))
	assert.True(t, PeriodEligible(second, &secondOnly, now))

	// Outside the date range the tag no longer restricts.
	assert.True(t, PeriodEligible(first, &secondOnly, mustDate("2026-04-01")))
}
