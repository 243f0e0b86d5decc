package models

import (
	"errors"
	"fmt"
	"strings"
)

// DayOfWeek enumerates the school week. Sunday is not a teaching day.
type DayOfWeek string

const (
	Monday    DayOfWeek = "MONDAY"
	Tuesday   DayOfWeek = "TUESDAY"
	Wednesday DayOfWeek = "WEDNESDAY"
	Thursday  DayOfWeek = "THURSDAY"
	Friday    DayOfWeek = "FRIDAY"
	Saturday  DayOfWeek = "SATURDAY"
)

var weekdays = map[DayOfWeek]struct{}{
	Monday: {}, Tuesday: {}, Wednesday: {}, Thursday: {}, Friday: {}, Saturday: {},
}

// Construction failures for time slots. Wrapped errors keep the HH:MM or
// day value that was rejected.
var (
	ErrInvalidTimeRange = errors.New("time slot start must be before end")
	ErrInvalidClock     = errors.New("clock value must be HH:MM")
	ErrInvalidDayOfWeek = errors.New("unknown day of week")
)

// ParseDayOfWeek normalises and validates a weekday label.
func ParseDayOfWeek(raw string) (DayOfWeek, error) {
	day := DayOfWeek(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := weekdays[day]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidDayOfWeek, raw)
	}
	return day, nil
}

// TimeSlot is a half-open wall-clock range on a specific weekday, held at
// minute granularity.
type TimeSlot struct {
	Day         DayOfWeek
	StartMinute int
	EndMinute   int
}

// NewTimeSlot builds a TimeSlot from a weekday label and HH:MM boundaries.
// Zero-length and inverted ranges are rejected.
func NewTimeSlot(day, start, end string) (TimeSlot, error) {
	weekday, err := ParseDayOfWeek(day)
	if err != nil {
		return TimeSlot{}, err
	}
	startMin, err := parseClock(start)
	if err != nil {
		return TimeSlot{}, err
	}
	endMin, err := parseClock(end)
	if err != nil {
		return TimeSlot{}, err
	}
	if startMin >= endMin {
		return TimeSlot{}, fmt.Errorf("%w: %s-%s", ErrInvalidTimeRange, start, end)
	}
	return TimeSlot{Day: weekday, StartMinute: startMin, EndMinute: endMin}, nil
}

// Overlaps reports whether two slots intersect. Ranges are half-open, so
// back-to-back lessons sharing a boundary minute do not overlap.
func (t TimeSlot) Overlaps(other TimeSlot) bool {
	if t.Day != other.Day {
		return false
	}
	return t.StartMinute < other.EndMinute && other.StartMinute < t.EndMinute
}

// Start renders the slot start as HH:MM.
func (t TimeSlot) Start() string {
	return formatMinute(t.StartMinute)
}

// End renders the slot end as HH:MM.
func (t TimeSlot) End() string {
	return formatMinute(t.EndMinute)
}

// String renders the slot for conflict messages, e.g. "MONDAY 09:00-10:00".
func (t TimeSlot) String() string {
	return fmt.Sprintf("%s %s-%s", t.Day, t.Start(), t.End())
}

func parseClock(raw string) (int, error) {
	if len(raw) != 5 || raw[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	var hour, minute int
	if _, err := fmt.Sscanf(raw, "%02d:%02d", &hour, &minute); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	return hour*60 + minute, nil
}

func formatMinute(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
