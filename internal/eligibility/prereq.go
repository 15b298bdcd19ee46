package eligibility

import (
	"fmt"

	"github.com/campusdata/sga-enroll-api/internal/models"
)

// PrereqResult lists the prerequisite subjects a student is still missing,
// by display name.
type PrereqResult struct {
	MissingRegular []string
	MissingPassed  []string
}

// Satisfied reports whether no prerequisite is missing.
func (r PrereqResult) Satisfied() bool {
	return len(r.MissingRegular) == 0 && len(r.MissingPassed) == 0
}

// CheckPrerequisites computes which of a subject's required-regular and
// required-passed prerequisites are absent from the student's history. The
// two checks are independent set differences, except that a passed subject
// also counts as regularized. IDs referenced but absent from the catalog
// degrade to a placeholder label instead of failing; a data inconsistency
// must never block classification.
func CheckPrerequisites(subject models.Subject, history models.StudentHistory, catalog map[int64]models.Subject) PrereqResult {
	passed := toSet(history.Passed)
	regularized := toSet(history.Regularized)
	// Passing the final exam subsumes the regular status.
	for id := range passed {
		regularized[id] = struct{}{}
	}

	var result PrereqResult
	seen := make(map[int64]struct{})
	for _, id := range subject.RequiredRegularIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := regularized[id]; !ok {
			result.MissingRegular = append(result.MissingRegular, subjectLabel(id, catalog))
		}
	}
	seen = make(map[int64]struct{})
	for _, id := range subject.RequiredPassedIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := passed[id]; !ok {
			result.MissingPassed = append(result.MissingPassed, subjectLabel(id, catalog))
		}
	}
	return result
}

func subjectLabel(id int64, catalog map[int64]models.Subject) string {
	if s, ok := catalog[id]; ok && s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("Subject %d", id)
}

func toSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
