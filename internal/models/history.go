package models

import "time"

// RecordStatus is the outcome recorded for a student on one subject.
type RecordStatus string

const (
	// RecordRegular: coursework complete, final exam pending.
	RecordRegular RecordStatus = "REGULAR"
	// RecordPassed: final exam passed.
	RecordPassed RecordStatus = "PASSED"
	// RecordLapsed: regular status expired without passing the final.
	RecordLapsed RecordStatus = "LAPSED"
)

// AcademicRecord is one row of a student's trajectory.
type AcademicRecord struct {
	ID         string       `db:"id" json:"id"`
	StudentID  int64        `db:"student_id" json:"student_id"`
	SubjectID  int64        `db:"subject_id" json:"subject_id"`
	Status     RecordStatus `db:"status" json:"status"`
	Grade      *float64     `db:"grade" json:"grade,omitempty"`
	RecordedAt time.Time    `db:"recorded_at" json:"recorded_at"`
}

// StudentHistory is the snapshot of a student's trajectory the eligibility
// engine consumes: which subjects are passed, regularized, and currently
// enrolled.
type StudentHistory struct {
	StudentID   int64   `json:"student_id"`
	Passed      []int64 `json:"passed_subject_ids"`
	Regularized []int64 `json:"regularized_subject_ids"`
	EnrolledIDs []int64 `json:"currently_enrolled_subject_ids"`
}
