package models

import "time"

// WindowPeriod restricts which subject terms an enrollment window accepts.
// An empty value means no term restriction.
type WindowPeriod string

const (
	PeriodFirstHalfAndAnnual WindowPeriod = "FIRST_HALF_AND_ANNUAL"
	PeriodSecondHalf         WindowPeriod = "SECOND_HALF"
)

// Valid reports whether the period is empty or one of the known values.
func (p WindowPeriod) Valid() bool {
	switch p {
	case "", PeriodFirstHalfAndAnnual, PeriodSecondHalf:
		return true
	}
	return false
}

// EnrollmentWindow is an administrator-defined date range during which
// students may submit enrollment requests.
type EnrollmentWindow struct {
	ID        string       `db:"id" json:"id"`
	Name      string       `db:"name" json:"name"`
	Active    bool         `db:"active" json:"active"`
	StartDate time.Time    `db:"start_date" json:"start_date"`
	EndDate   time.Time    `db:"end_date" json:"end_date"`
	Period    WindowPeriod `db:"period" json:"period,omitempty"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}

// OpenAt reports whether the window accepts requests at the given instant.
// Both boundary dates are inclusive.
func (w *EnrollmentWindow) OpenAt(t time.Time) bool {
	if w == nil || !w.Active {
		return false
	}
	day := t.Truncate(24 * time.Hour)
	start := w.StartDate.Truncate(24 * time.Hour)
	end := w.EndDate.Truncate(24 * time.Hour)
	return !day.Before(start) && !day.After(end)
}

// WindowFilter describes query params for listing windows.
type WindowFilter struct {
	Active    *bool
	Period    WindowPeriod
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
