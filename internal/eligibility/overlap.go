package eligibility

import "github.com/campusdata/sga-enroll-api/internal/models"

// Overlaps reports whether any slot of a collides with any slot of b. Two
// slots collide only on the same day and when max(start) < min(end); slots
// that merely touch at an endpoint do not conflict. An empty schedule never
// conflicts. Slots that fail to parse are skipped; callers are expected to
// have validated schedules at the boundary.
func Overlaps(a, b []models.ClassSlot) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	for _, sa := range a {
		aStart, aEnd, ok := slotMinutes(sa)
		if !ok {
			continue
		}
		for _, sb := range b {
			if sa.Day != sb.Day {
				continue
			}
			bStart, bEnd, ok := slotMinutes(sb)
			if !ok {
				continue
			}
			if max(aStart, bStart) < min(aEnd, bEnd) {
				return true
			}
		}
	}
	return false
}

func slotMinutes(s models.ClassSlot) (start, end int, ok bool) {
	start, err := ParseClockTime(s.StartTime)
	if err != nil {
		return 0, 0, false
	}
	end, err = ParseClockTime(s.EndTime)
	if err != nil {
		return 0, 0, false
	}
	return start, end, true
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
