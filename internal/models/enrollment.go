package models

import "time"

// EnrollmentStatus represents the lifecycle of a subject enrollment request.
type EnrollmentStatus string

const (
	EnrollmentStatusPending   EnrollmentStatus = "PENDING"
	EnrollmentStatusConfirmed EnrollmentStatus = "CONFIRMED"
	EnrollmentStatusRejected  EnrollmentStatus = "REJECTED"
	EnrollmentStatusDropped   EnrollmentStatus = "DROPPED"
)

// Active reports whether the enrollment occupies a seat and therefore counts
// toward schedule-conflict detection.
func (s EnrollmentStatus) Active() bool {
	return s == EnrollmentStatusPending || s == EnrollmentStatusConfirmed
}

// SubjectEnrollment captures a student's registration to a subject within an
// enrollment window. Schedule holds the section timetable actually assigned,
// which may differ from the subject's catalog default.
type SubjectEnrollment struct {
	ID          string           `db:"id" json:"id"`
	StudentID   int64            `db:"student_id" json:"student_id"`
	SubjectID   int64            `db:"subject_id" json:"subject_id"`
	WindowID    string           `db:"window_id" json:"window_id"`
	Status      EnrollmentStatus `db:"status" json:"status"`
	RequestedAt time.Time        `db:"requested_at" json:"requested_at"`
	ResolvedAt  *time.Time       `db:"resolved_at" json:"resolved_at,omitempty"`

	Schedule []ClassSlot `json:"schedule"`
}

// EnrollmentDetail enriches SubjectEnrollment with subject info.
type EnrollmentDetail struct {
	SubjectEnrollment
	SubjectCode string `db:"subject_code" json:"subject_code"`
	SubjectName string `db:"subject_name" json:"subject_name"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID *int64
	SubjectID *int64
	WindowID  string
	Status    EnrollmentStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
