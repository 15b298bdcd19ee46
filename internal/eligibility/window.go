package eligibility

import (
	"time"

	"github.com/campusdata/sga-enroll-api/internal/models"
)

// PeriodEligible reports whether the subject's term may be enrolled in under
// the given window at the given instant. A nil, inactive, or out-of-range
// window imposes no restriction, nor does a window without a period tag.
func PeriodEligible(subject models.Subject, window *models.EnrollmentWindow, now time.Time) bool {
	if window == nil || !window.OpenAt(now) || window.Period == "" {
		return true
	}
	switch window.Period {
	case models.PeriodFirstHalfAndAnnual:
		return subject.Term == models.TermAnnual || subject.Term == models.TermFirstHalf
	case models.PeriodSecondHalf:
		return subject.Term == models.TermSecondHalf
	}
	return true
}
