package service

import (
	"fmt"

	"github.com/classhub/school-api/internal/models"
)

// ConflictClassifier evaluates a candidate schedule against a snapshot of
// existing entries and aggregates every finding into one report. The
// computation is pure: no I/O, no shared state, identical inputs produce an
// identically ordered report.
type ConflictClassifier struct {
	policy ConflictPolicy
}

// NewConflictClassifier builds a classifier with the given policy.
func NewConflictClassifier(policy ConflictPolicy) *ConflictClassifier {
	return &ConflictClassifier{policy: policy}
}

// Classify runs the rule set in fixed order: time-range validity first
// (short-circuiting, since no comparison is meaningful without a valid
// slot), then teacher, room, section and finally term staleness. selfID
// excludes the candidate's own persisted row when this is an edit. An
// existing entry whose stored slot cannot be parsed aborts the whole
// evaluation; a partial report must never read as "no conflicts".
func (c *ConflictClassifier) Classify(candidate models.Schedule, existing []models.Schedule, selfID string, activeTermIDs []string) (models.ConflictReport, error) {
	report := models.ConflictReport{}

	slot, err := candidate.Slot()
	if err != nil {
		report.Add(models.Conflict{
			Type:     models.ConflictInvalidTimeRange,
			Severity: models.SeverityCritical,
			Message:  err.Error(),
		})
		return report, nil
	}

	comparison := make([]existingSlot, 0, len(existing))
	for _, entry := range existing {
		if selfID != "" && entry.ID == selfID {
			continue
		}
		entrySlot, err := entry.Slot()
		if err != nil {
			return models.ConflictReport{}, fmt.Errorf("stored schedule %s has an unreadable slot: %w", entry.ID, err)
		}
		comparison = append(comparison, existingSlot{entry: entry, slot: entrySlot})
	}

	teacherDoubleBookingRule(candidate, slot, comparison, &report)
	roomDoubleBookingRule(candidate, slot, comparison, &report)
	c.policy.sectionOverlapRule(candidate, slot, comparison, &report)
	staleTermRule(candidate, activeTermIDs, &report)

	return report, nil
}
