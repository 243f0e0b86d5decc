package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSlot(t *testing.T, day, start, end string) TimeSlot {
	t.Helper()
	slot, err := NewTimeSlot(day, start, end)
	require.NoError(t, err)
	return slot
}

func TestNewTimeSlotRejectsInvertedRange(t *testing.T) {
	_, err := NewTimeSlot("MONDAY", "10:00", "09:00")
	require.ErrorIs(t, err, ErrInvalidTimeRange)
}

func TestNewTimeSlotRejectsZeroLengthRange(t *testing.T) {
	_, err := NewTimeSlot("MONDAY", "09:00", "09:00")
	require.ErrorIs(t, err, ErrInvalidTimeRange)
}

func TestNewTimeSlotRejectsMalformedClock(t *testing.T) {
	for _, raw := range []string{"9:00", "09:60", "24:00", "0900", "ab:cd", ""} {
		_, err := NewTimeSlot("MONDAY", raw, "10:00")
		assert.ErrorIs(t, err, ErrInvalidClock, "clock %q", raw)
	}
}

func TestNewTimeSlotRejectsUnknownDay(t *testing.T) {
	_, err := NewTimeSlot("SUNDAY", "09:00", "10:00")
	require.ErrorIs(t, err, ErrInvalidDayOfWeek)
}

func TestNewTimeSlotNormalisesDayCase(t *testing.T) {
	slot := mustSlot(t, "monday", "09:00", "10:00")
	assert.Equal(t, Monday, slot.Day)
}

func TestOverlapsDifferentDaysNeverOverlap(t *testing.T) {
	a := mustSlot(t, "MONDAY", "09:00", "10:00")
	b := mustSlot(t, "TUESDAY", "09:00", "10:00")
	assert.False(t, a.Overlaps(b))
	assert.False(t, b.Overlaps(a))
}

func TestOverlapsBackToBackSlotsDoNotOverlap(t *testing.T) {
	a := mustSlot(t, "MONDAY", "09:00", "10:00")
	b := mustSlot(t, "MONDAY", "10:00", "11:00")
	assert.False(t, a.Overlaps(b))
	assert.False(t, b.Overlaps(a))
}

func TestOverlapsPartialOverlap(t *testing.T) {
	a := mustSlot(t, "MONDAY", "09:00", "10:00")
	b := mustSlot(t, "MONDAY", "09:30", "10:30")
	assert.True(t, a.Overlaps(b))
}

func TestOverlapsContainment(t *testing.T) {
	outer := mustSlot(t, "FRIDAY", "08:00", "12:00")
	inner := mustSlot(t, "FRIDAY", "09:00", "10:00")
	assert.True(t, outer.Overlaps(inner))
	assert.True(t, inner.Overlaps(outer))
}

func TestOverlapsIsSymmetric(t *testing.T) {
	pairs := [][4]string{
		{"09:00", "10:00", "09:30", "10:30"},
		{"09:00", "10:00", "10:00", "11:00"},
		{"09:00", "10:00", "11:00", "12:00"},
		{"08:00", "12:00", "09:00", "10:00"},
		{"09:00", "10:00", "09:00", "10:00"},
	}
	for _, p := range pairs {
		a := mustSlot(t, "WEDNESDAY", p[0], p[1])
		b := mustSlot(t, "WEDNESDAY", p[2], p[3])
		assert.Equal(t, a.Overlaps(b), b.Overlaps(a), "pair %v", p)
	}
}

func TestTimeSlotFormatting(t *testing.T) {
	slot := mustSlot(t, "MONDAY", "07:05", "08:40")
	assert.Equal(t, "07:05", slot.Start())
	assert.Equal(t, "08:40", slot.End())
	assert.Equal(t, "MONDAY 07:05-08:40", slot.String())
}
