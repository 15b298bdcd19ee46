package models

// SubjectStatus is the terminal classification of one subject for a student.
type SubjectStatus string

const (
	SubjectPassed  SubjectStatus = "PASSED"
	SubjectBlocked SubjectStatus = "BLOCKED"
	SubjectEnabled SubjectStatus = "ENABLED"
)

// BlockReason tags why a subject is not currently enrollable.
type BlockReason string

const (
	BlockPrerequisites    BlockReason = "PREREQUISITES"
	BlockPeriod           BlockReason = "PERIOD"
	BlockScheduleConflict BlockReason = "SCHEDULE_CONFLICT"
	BlockAlreadyEnrolled  BlockReason = "ALREADY_ENROLLED"
	BlockOther            BlockReason = "OTHER"
)

// Classification is the per-subject outcome of an eligibility pass. It is a
// pure projection, recomputed from scratch on every input change and never
// persisted.
type Classification struct {
	SubjectID   int64         `json:"subject_id"`
	Status      SubjectStatus `json:"status"`
	BlockReason BlockReason   `json:"block_reason,omitempty"`
	Reasons     []string      `json:"reasons,omitempty"`
	// ConflictsWith names the subject whose schedule collides, when
	// BlockReason is SCHEDULE_CONFLICT.
	ConflictsWith *int64 `json:"conflicts_with,omitempty"`
}

// EligibilityReport groups classifications the way callers render them.
type EligibilityReport struct {
	StudentID int64                    `json:"student_id"`
	WindowID  string                   `json:"window_id,omitempty"`
	Results   map[int64]Classification `json:"results"`
	Enabled   []int64                  `json:"enabled"`
	Blocked   []int64                  `json:"blocked"`
	Passed    []int64                  `json:"passed"`
}
