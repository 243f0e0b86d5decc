package models

// ConflictType is the closed set of collision kinds a candidate schedule
// can be checked for. Unknown kinds are a programming error, not data.
type ConflictType string

const (
	ConflictTeacherDoubleBooking ConflictType = "TEACHER_DOUBLE_BOOKING"
	ConflictRoomDoubleBooking    ConflictType = "ROOM_DOUBLE_BOOKING"
	ConflictSectionOverlap       ConflictType = "SECTION_OVERLAP"
	ConflictInvalidTimeRange     ConflictType = "INVALID_TIME_RANGE"
	ConflictStaleAcademicYear    ConflictType = "STALE_ACADEMIC_YEAR"
)

// ConflictSeverity grades how a conflict affects the mutation gate. Only
// CRITICAL blocks a commit.
type ConflictSeverity string

const (
	SeverityCritical ConflictSeverity = "CRITICAL"
	SeverityWarning  ConflictSeverity = "WARNING"
	SeverityInfo     ConflictSeverity = "INFO"
)

// Conflict is one detection result. Conflicts are ephemeral, computed per
// evaluation and never persisted.
type Conflict struct {
	Type       ConflictType     `json:"type"`
	Severity   ConflictSeverity `json:"severity"`
	Message    string           `json:"message"`
	ScheduleID string           `json:"schedule_id,omitempty"`
}

// ConflictReport aggregates every conflict found during one evaluation.
type ConflictReport struct {
	Conflicts           []Conflict `json:"conflicts"`
	HasBlockingConflict bool       `json:"has_blocking_conflict"`
}

// Add appends a conflict and tracks whether the report now blocks.
func (r *ConflictReport) Add(c Conflict) {
	r.Conflicts = append(r.Conflicts, c)
	if c.Severity == SeverityCritical {
		r.HasBlockingConflict = true
	}
}

// ScheduleConflictError is returned by the mutation gate when a candidate is
// rejected. It carries the complete report so callers can show every
// conflict, not just the first.
type ScheduleConflictError struct {
	Message string         `json:"message"`
	Report  ConflictReport `json:"report"`
}

// Error implements the error interface.
func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
