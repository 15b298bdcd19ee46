package eligibility

import (
	"fmt"
	"strings"
	"time"

	"github.com/campusdata/sga-enroll-api/internal/models"
)

// ExistingEnrollment pairs an enrolled subject with the section schedule it
// was actually assigned, which may differ from the catalog default. Only
// pending or confirmed enrollments belong here.
type ExistingEnrollment struct {
	SubjectID int64
	Schedule  []models.ClassSlot
}

// Input carries everything one classification pass consumes. The caller
// fetches and validates the data; Classify itself performs no I/O.
type Input struct {
	Catalog []models.Subject
	History models.StudentHistory
	Window  *models.EnrollmentWindow
	// Selections are the subjects tentatively picked in the current
	// session, not yet submitted.
	Selections []models.Subject
	Existing   []ExistingEnrollment
	Now        time.Time
}

// Classify assigns every catalog subject exactly one status. Rules apply in
// fixed precedence, first match wins: passed, period gate, prerequisites,
// already enrolled, schedule conflict against existing enrollments, schedule
// conflict against in-session selections, enabled. The result is a pure
// projection: recomputed from scratch each call, never stored.
func Classify(in Input) map[int64]models.Classification {
	catalog := make(map[int64]models.Subject, len(in.Catalog))
	for _, s := range in.Catalog {
		catalog[s.ID] = s
	}
	passed := toSet(in.History.Passed)
	enrolled := toSet(in.History.EnrolledIDs)
	selected := make(map[int64]struct{}, len(in.Selections))
	for _, s := range in.Selections {
		selected[s.ID] = struct{}{}
	}

	results := make(map[int64]models.Classification, len(in.Catalog))
	for _, subject := range in.Catalog {
		results[subject.ID] = classifySubject(subject, in, catalog, passed, enrolled, selected)
	}
	return results
}

func classifySubject(
	subject models.Subject,
	in Input,
	catalog map[int64]models.Subject,
	passed, enrolled, selected map[int64]struct{},
) models.Classification {
	result := models.Classification{SubjectID: subject.ID}

	if _, ok := passed[subject.ID]; ok {
		result.Status = models.SubjectPassed
		return result
	}

	if !PeriodEligible(subject, in.Window, in.Now) {
		result.Status = models.SubjectBlocked
		result.BlockReason = models.BlockPeriod
		result.Reasons = []string{"Not offered in the current enrollment period"}
		return result
	}

	if prereqs := CheckPrerequisites(subject, in.History, catalog); !prereqs.Satisfied() {
		result.Status = models.SubjectBlocked
		result.BlockReason = models.BlockPrerequisites
		result.Reasons = prereqReasons(prereqs)
		return result
	}

	_, inEnrolled := enrolled[subject.ID]
	_, inSelected := selected[subject.ID]
	if inEnrolled || inSelected {
		result.Status = models.SubjectBlocked
		result.BlockReason = models.BlockAlreadyEnrolled
		result.Reasons = []string{"Already enrolled"}
		return result
	}

	for _, entry := range in.Existing {
		if entry.SubjectID == subject.ID {
			continue
		}
		if !scheduleConflict(subject, entry.SubjectID, entry.Schedule, catalog) {
			continue
		}
		return conflictResult(subject.ID, entry.SubjectID, catalog)
	}

	for _, other := range in.Selections {
		if other.ID == subject.ID {
			continue
		}
		if !scheduleConflict(subject, other.ID, other.Schedule, catalog) {
			continue
		}
		return conflictResult(subject.ID, other.ID, catalog)
	}

	result.Status = models.SubjectEnabled
	return result
}

// scheduleConflict applies the term pre-filter and interval comparison
// between the candidate subject and one occupied schedule. When the occupying
// subject is unknown to the catalog its term cannot be established, so the
// comparison runs unconditionally.
func scheduleConflict(subject models.Subject, otherID int64, otherSchedule []models.ClassSlot, catalog map[int64]models.Subject) bool {
	if len(subject.Schedule) == 0 || len(otherSchedule) == 0 {
		return false
	}
	if other, ok := catalog[otherID]; ok && !TermsCollide(subject.Term, other.Term) {
		return false
	}
	return Overlaps(subject.Schedule, otherSchedule)
}

func conflictResult(subjectID, conflictID int64, catalog map[int64]models.Subject) models.Classification {
	return models.Classification{
		SubjectID:     subjectID,
		Status:        models.SubjectBlocked,
		BlockReason:   models.BlockScheduleConflict,
		Reasons:       []string{fmt.Sprintf("Schedule conflicts with %s", subjectLabel(conflictID, catalog))},
		ConflictsWith: &conflictID,
	}
}

func prereqReasons(r PrereqResult) []string {
	var reasons []string
	if len(r.MissingRegular) > 0 {
		reasons = append(reasons, "Regularize: "+strings.Join(r.MissingRegular, ", "))
	}
	if len(r.MissingPassed) > 0 {
		reasons = append(reasons, "Pass: "+strings.Join(r.MissingPassed, ", "))
	}
	return reasons
}
