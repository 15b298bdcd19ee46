package eligibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusdata/sga-enroll-api/internal/models"
)

func slot(day, start, end string) models.ClassSlot {
	return models.ClassSlot{Day: day, StartTime: start, EndTime: end}
}

func TestParseClockTime(t *testing.T) {
	m, err := ParseClockTime("14:30")
	require.NoError(t, err)
	assert.Equal(t, 870, m)

	m, err = ParseClockTime("00:00")
	require.NoError(t, err)
	assert.Equal(t, 0, m)

	for _, raw := range []string{"", "14", "24:00", "12:60", "ab:cd", "9:30:00:00"} {
		_, err := ParseClockTime(raw)
		assert.Error(t, err, raw)
	}
}

func TestOverlapsSameDay(t *testing.T) {
	a := []models.ClassSlot{slot("MONDAY", "09:00", "10:30")}
	b := []models.ClassSlot{slot("MONDAY", "10:00", "11:00")}
	assert.True(t, Overlaps(a, b))
}

func TestOverlapsTouchingEndpointsDoNotConflict(t *testing.T) {
	a := []models.ClassSlot{slot("MONDAY", "09:00", "10:00")}
	b := []models.ClassSlot{slot("MONDAY", "10:00", "11:00")}
	assert.False(t, Overlaps(a, b))
}

func TestOverlapsDifferentDays(t *testing.T) {
	a := []models.ClassSlot{slot("MONDAY", "09:00", "11:00")}
	b := []models.ClassSlot{slot("TUESDAY", "09:00", "11:00")}
	assert.False(t, Overlaps(a, b))
}

func TestOverlapsEmptyScheduleNeverConflicts(t *testing.T) {
	b := []models.ClassSlot{slot("MONDAY", "08:00", "20:00")}
	assert.False(t, Overlaps(nil, b))
	assert.False(t, Overlaps(b, nil))
	assert.False(t, Overlaps(nil, nil))
}

func TestOverlapsSymmetry(t *testing.T) {
	cases := [][2][]models.ClassSlot{
		{{slot("MONDAY", "09:00", "10:30")}, {slot("MONDAY", "10:00", "11:00")}},
		{{slot("MONDAY", "09:00", "10:00")}, {slot("MONDAY", "10:00", "11:00")}},
		{{slot("FRIDAY", "08:00", "12:00"), slot("MONDAY", "14:00", "16:00")}, {slot("MONDAY", "15:00", "17:00")}},
	}
	for i, c := range cases {
		assert.Equal(t, Overlaps(c[0], c[1]), Overlaps(c[1], c[0]), "case %d", i)
	}
}

func TestValidateSchedule(t *testing.T) {
	require.NoError(t, ValidateSchedule(1, []models.ClassSlot{slot("MONDAY", "08:00", "10:00")}))
	require.NoError(t, ValidateSchedule(1, nil))

	err := ValidateSchedule(7, []models.ClassSlot{slot("MONDAY", "8h30", "10:00")})
	require.Error(t, err)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, int64(7), vErr.SubjectID)
	assert.Equal(t, "start_time", vErr.Field)

	// End before start is rejected even when both times parse.
	err = ValidateSchedule(7, []models.ClassSlot{slot("MONDAY", "10:00", "09:00")})
	require.Error(t, err)

	err = ValidateSchedule(7, []models.ClassSlot{slot("", "08:00", "09:00")})
	require.Error(t, err)
}

func TestTermsCollide(t *testing.T) {
	assert.True(t, TermsCollide(models.TermAnnual, models.TermFirstHalf))
	assert.True(t, TermsCollide(models.TermSecondHalf, models.TermAnnual))
	assert.True(t, TermsCollide(models.TermAnnual, models.TermAnnual))
	assert.True(t, TermsCollide(models.TermFirstHalf, models.TermFirstHalf))
	assert.True(t, TermsCollide(models.TermSecondHalf, models.TermSecondHalf))

	// Opposite halves occupy disjoint calendar time.
	assert.False(t, TermsCollide(models.TermFirstHalf, models.TermSecondHalf))
	assert.False(t, TermsCollide(models.TermSecondHalf, models.TermFirstHalf))
}
