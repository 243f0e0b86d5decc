package service

import (
	"fmt"
	"strings"

	"github.com/classhub/school-api/internal/models"
)

// ConflictPolicy carries the configurable pieces of the rule set. The only
// policy knob today is how a plain section overlap is graded; deployments
// that never run parallel electives set it to CRITICAL.
type ConflictPolicy struct {
	SectionOverlapSeverity models.ConflictSeverity
}

// DefaultConflictPolicy treats section overlaps as advisory.
func DefaultConflictPolicy() ConflictPolicy {
	return ConflictPolicy{SectionOverlapSeverity: models.SeverityWarning}
}

// PolicyFromSeverity builds a policy from a config string, falling back to
// the default for anything that is not CRITICAL.
func PolicyFromSeverity(raw string) ConflictPolicy {
	if strings.EqualFold(raw, string(models.SeverityCritical)) {
		return ConflictPolicy{SectionOverlapSeverity: models.SeverityCritical}
	}
	return DefaultConflictPolicy()
}

// existingSlot pairs a stored schedule with its parsed time slot so each
// rule compares against the same snapshot.
type existingSlot struct {
	entry models.Schedule
	slot  models.TimeSlot
}

// Each rule scans the full comparison set and appends every finding; no
// early exit, the caller needs the complete list.

func teacherDoubleBookingRule(cand models.Schedule, slot models.TimeSlot, existing []existingSlot, report *models.ConflictReport) {
	for _, e := range existing {
		if e.entry.TermID != cand.TermID || e.entry.TeacherID != cand.TeacherID {
			continue
		}
		if !slot.Overlaps(e.slot) {
			continue
		}
		report.Add(models.Conflict{
			Type:       models.ConflictTeacherDoubleBooking,
			Severity:   models.SeverityCritical,
			Message:    fmt.Sprintf("teacher is already scheduled at %s in room %s", e.slot, e.entry.Room),
			ScheduleID: e.entry.ID,
		})
	}
}

func roomDoubleBookingRule(cand models.Schedule, slot models.TimeSlot, existing []existingSlot, report *models.ConflictReport) {
	for _, e := range existing {
		if e.entry.TermID != cand.TermID || !strings.EqualFold(e.entry.Room, cand.Room) {
			continue
		}
		if !slot.Overlaps(e.slot) {
			continue
		}
		report.Add(models.Conflict{
			Type:       models.ConflictRoomDoubleBooking,
			Severity:   models.SeverityCritical,
			Message:    fmt.Sprintf("room %s is already booked at %s", e.entry.Room, e.slot),
			ScheduleID: e.entry.ID,
		})
	}
}

func (p ConflictPolicy) sectionOverlapRule(cand models.Schedule, slot models.TimeSlot, existing []existingSlot, report *models.ConflictReport) {
	for _, e := range existing {
		if e.entry.TermID != cand.TermID || e.entry.ClassID != cand.ClassID {
			continue
		}
		if !slot.Overlaps(e.slot) {
			continue
		}
		severity := p.SectionOverlapSeverity
		if severity == "" {
			severity = models.SeverityWarning
		}
		// Two mandatory sessions of one subject cannot coexist for a section
		// regardless of policy.
		if e.entry.SubjectID == cand.SubjectID &&
			(cand.SessionType == models.SessionLecture || e.entry.SessionType == models.SessionLecture) {
			severity = models.SeverityCritical
		}
		report.Add(models.Conflict{
			Type:       models.ConflictSectionOverlap,
			Severity:   severity,
			Message:    fmt.Sprintf("class already has a session at %s", e.slot),
			ScheduleID: e.entry.ID,
		})
	}
}

func staleTermRule(cand models.Schedule, activeTermIDs []string, report *models.ConflictReport) {
	for _, id := range activeTermIDs {
		if id == cand.TermID {
			return
		}
	}
	report.Add(models.Conflict{
		Type:     models.ConflictStaleAcademicYear,
		Severity: models.SeverityInfo,
		Message:  fmt.Sprintf("term %s is not an active academic term", cand.TermID),
	})
}
