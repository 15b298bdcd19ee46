// Package eligibility classifies every subject of a catalog into exactly one
// enrollment status for a given student. All functions are pure and
// synchronous: inputs are plain data, no I/O happens here, and identical
// inputs always produce identical output.
package eligibility

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/campusdata/sga-enroll-api/internal/models"
)

// ValidationError identifies a malformed slot at the input boundary.
type ValidationError struct {
	SubjectID int64
	Slot      int
	Field     string
	Value     string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("subject %d slot %d: invalid %s %q", e.SubjectID, e.Slot, e.Field, e.Value)
}

// ParseClockTime converts an "HH:MM" wall-clock string to minutes since
// midnight.
func ParseClockTime(raw string) (int, error) {
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock time %q", raw)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("invalid clock time %q", raw)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid clock time %q", raw)
	}
	return hours*60 + minutes, nil
}

// ValidateSchedule checks every slot of a subject's schedule at the boundary
// where external data enters. It reports the first malformed slot so callers
// can fail fast with a descriptive error instead of crashing mid-computation.
func ValidateSchedule(subjectID int64, schedule []models.ClassSlot) error {
	for i, slot := range schedule {
		if strings.TrimSpace(slot.Day) == "" {
			return &ValidationError{SubjectID: subjectID, Slot: i, Field: "day", Value: slot.Day}
		}
		start, err := ParseClockTime(slot.StartTime)
		if err != nil {
			return &ValidationError{SubjectID: subjectID, Slot: i, Field: "start_time", Value: slot.StartTime}
		}
		end, err := ParseClockTime(slot.EndTime)
		if err != nil {
			return &ValidationError{SubjectID: subjectID, Slot: i, Field: "end_time", Value: slot.EndTime}
		}
		if end <= start {
			return &ValidationError{SubjectID: subjectID, Slot: i, Field: "end_time", Value: slot.EndTime}
		}
	}
	return nil
}
