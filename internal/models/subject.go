package models

import "time"

// Term identifies the portion of the academic year a subject is taught in.
type Term string

const (
	TermAnnual     Term = "ANNUAL"
	TermFirstHalf  Term = "FIRST_HALF"
	TermSecondHalf Term = "SECOND_HALF"
)

// Valid reports whether the term is one of the known values.
func (t Term) Valid() bool {
	switch t {
	case TermAnnual, TermFirstHalf, TermSecondHalf:
		return true
	}
	return false
}

// ClassSlot is one weekly meeting of a subject. Times are "HH:MM" wall clock.
type ClassSlot struct {
	Day       string `db:"day" json:"day"`
	StartTime string `db:"start_time" json:"start_time"`
	EndTime   string `db:"end_time" json:"end_time"`
}

// Subject represents one curricular unit of a study plan.
type Subject struct {
	ID           int64     `db:"id" json:"id"`
	Code         string    `db:"code" json:"code"`
	Name         string    `db:"name" json:"name"`
	AcademicYear int       `db:"academic_year" json:"academic_year"`
	Term         Term      `db:"term" json:"term"`
	ProgramID    *int64    `db:"program_id" json:"program_id,omitempty"`
	PlanID       *int64    `db:"plan_id" json:"plan_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`

	// Loaded from the subject_slots and subject_requisites tables.
	Schedule           []ClassSlot `json:"schedule"`
	RequiredRegularIDs []int64     `json:"required_regular_ids"`
	RequiredPassedIDs  []int64     `json:"required_passed_ids"`
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	ProgramID    *int64
	PlanID       *int64
	AcademicYear *int
	Term         Term
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// RequisiteKind distinguishes the two prerequisite relations.
type RequisiteKind string

const (
	RequisiteRegular RequisiteKind = "REGULAR"
	RequisitePassed  RequisiteKind = "PASSED"
)

// SubjectRequisite is one prerequisite edge between two subjects.
type SubjectRequisite struct {
	SubjectID  int64         `db:"subject_id" json:"subject_id"`
	RequiredID int64         `db:"required_id" json:"required_id"`
	Kind       RequisiteKind `db:"kind" json:"kind"`
}
