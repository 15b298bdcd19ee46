package eligibility

import "github.com/campusdata/sga-enroll-api/internal/models"

// TermsCollide reports whether two subjects' terms can share real calendar
// time, as a pre-filter to skip unnecessary interval comparisons. An annual
// subject runs across both halves and must be checked against everything.
// Opposite half-year terms occupy disjoint calendar halves and can never
// collide, however their paper timetables look.
func TermsCollide(a, b models.Term) bool {
	if a == models.TermAnnual || b == models.TermAnnual {
		return true
	}
	return a == b
}
