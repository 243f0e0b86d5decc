package models

import "time"

// SessionType distinguishes mandatory lessons from optional offerings. A
// section may legitimately run two electives at once; it can never sit in
// two lectures of the same subject.
type SessionType string

const (
	SessionLecture  SessionType = "LECTURE"
	SessionElective SessionType = "ELECTIVE"
)

// Schedule represents one timetabled lesson for a class within a term.
type Schedule struct {
	ID          string      `db:"id" json:"id"`
	TermID      string      `db:"term_id" json:"term_id"`
	ClassID     string      `db:"class_id" json:"class_id"`
	SubjectID   string      `db:"subject_id" json:"subject_id"`
	TeacherID   string      `db:"teacher_id" json:"teacher_id"`
	Room        string      `db:"room" json:"room"`
	DayOfWeek   string      `db:"day_of_week" json:"day_of_week"`
	StartTime   string      `db:"start_time" json:"start_time"`
	EndTime     string      `db:"end_time" json:"end_time"`
	SessionType SessionType `db:"session_type" json:"session_type"`
	JoinCode    string      `db:"join_code" json:"join_code"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// Slot builds the TimeSlot for this entry from its stored day and HH:MM
// boundaries.
func (s Schedule) Slot() (TimeSlot, error) {
	return NewTimeSlot(s.DayOfWeek, s.StartTime, s.EndTime)
}

// ScheduleFilter describes query params for listing schedules.
type ScheduleFilter struct {
	TermID    string
	ClassID   string
	SubjectID string
	TeacherID string
	DayOfWeek string
	Room      string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ScheduleMutationResult pairs a committed schedule with the non-blocking
// conflicts that were surfaced alongside it.
type ScheduleMutationResult struct {
	Schedule Schedule       `json:"schedule"`
	Report   ConflictReport `json:"report"`
}
