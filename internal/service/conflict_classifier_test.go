package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classhub/school-api/internal/models"
)

func scheduleFixture(id, teacherID, room, classID string) models.Schedule {
	return models.Schedule{
		ID:          id,
		TermID:      "term-2024",
		ClassID:     classID,
		SubjectID:   "sub-math",
		TeacherID:   teacherID,
		Room:        room,
		DayOfWeek:   "MONDAY",
		StartTime:   "09:00",
		EndTime:     "10:00",
		SessionType: models.SessionLecture,
	}
}

var activeTerms = []string{"term-2024"}

func TestClassifyTeacherDoubleBooking(t *testing.T) {
	classifier := NewConflictClassifier(DefaultConflictPolicy())
	existing := []models.Schedule{scheduleFixture("s1", "t1", "R1", "c1")}

	candidate := scheduleFixture("", "t1", "R2", "c2")
	candidate.StartTime = "09:30"
	candidate.EndTime = "10:30"

	report, err := classifier.Classify(candidate, existing, "", activeTerms)
	require.NoError(t, err)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, models.ConflictTeacherDoubleBooking, report.Conflicts[0].Type)
	assert.Equal(t, models.SeverityCritical, report.Conflicts[0].Severity)
	assert.Equal(t, "s1", report.Conflicts[0].ScheduleID)
	assert.True(t, report.HasBlockingConflict)
}

func TestClassifyNoConflictsForDisjointResources(t *testing.T) {
	classifier := NewConflictClassifier(DefaultConflictPolicy())
	existing := []models.Schedule{scheduleFixture("s1", "t1", "R1", "c1")}

	candidate := scheduleFixture("", "t2", "R2", "c2")
	candidate.StartTime = "10:00"
	candidate.EndTime = "11:00"

	report, err := classifier.Classify(candidate, existing, "", activeTerms)
	require.NoError(t, err)
	assert.Empty(t, report.Conflicts)
	assert.False(t, report.HasBlockingConflict)
}

func TestClassifyExcludesSelfOnEdit(t *testing.T) {
	classifier := NewConflictClassifier(DefaultConflictPolicy())
	existing := []models.Schedule{scheduleFixture("s1", "t1", "R1", "c1")}

	// Unchanged slot resubmitted as an edit of itself.
	candidate := scheduleFixture("s1", "t1", "R1", "c1")

	report, err := classifier.Classify(candidate, existing, "s1", activeTerms)
	require.NoError(t, err)
	assert.Empty(t, report.Conflicts)
}

func TestClassifyReportsEveryDimension(t *testing.T) {
	classifier := NewConflictClassifier(DefaultConflictPolicy())
	existing := []models.Schedule{
		scheduleFixture("s1", "t1", "R1", "c9"),
		scheduleFixture("s2", "t9", "R2", "c9"),
	}

	candidate := scheduleFixture("", "t1", "R2", "c9")
	candidate.SubjectID = "sub-phys"

	report, err := classifier.Classify(candidate, existing, "", activeTerms)
	require.NoError(t, err)

	types := make([]models.ConflictType, 0, len(report.Conflicts))
	for _, c := range report.Conflicts {
		types = append(types, c.Type)
	}
	// Rule order is fixed: teacher, room, then section findings.
	assert.Equal(t, []models.ConflictType{
		models.ConflictTeacherDoubleBooking,
		models.ConflictRoomDoubleBooking,
		models.ConflictSectionOverlap,
		models.ConflictSectionOverlap,
	}, types)
	assert.True(t, report.HasBlockingConflict)
}

func TestClassifySectionOverlapDefaultWarning(t *testing.T) {
	classifier := NewConflictClassifier(DefaultConflictPolicy())
	existing := []models.Schedule{scheduleFixture("s1", "t1", "R1", "c1")}

	candidate := scheduleFixture("", "t2", "R2", "c1")
	candidate.SubjectID = "sub-art"
	candidate.SessionType = models.SessionElective

	report, err := classifier.Classify(candidate, existing, "", activeTerms)
	require.NoError(t, err)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, models.ConflictSectionOverlap, report.Conflicts[0].Type)
	assert.Equal(t, models.SeverityWarning, report.Conflicts[0].Severity)
	assert.False(t, report.HasBlockingConflict)
}

func TestClassifySectionOverlapEscalatesForSameSubjectLecture(t *testing.T) {
	classifier := NewConflictClassifier(DefaultConflictPolicy())
	existing := []models.Schedule{scheduleFixture("s1", "t1", "R1", "c1")}

	candidate := scheduleFixture("", "t2", "R2", "c1")

	report, err := classifier.Classify(candidate, existing, "", activeTerms)
	require.NoError(t, err)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, models.SeverityCritical, report.Conflicts[0].Severity)
	assert.True(t, report.HasBlockingConflict)
}

func TestClassifySectionOverlapPolicyCritical(t *testing.T) {
	classifier := NewConflictClassifier(PolicyFromSeverity("CRITICAL"))
	existing := []models.Schedule{scheduleFixture("s1", "t1", "R1", "c1")}

	candidate := scheduleFixture("", "t2", "R2", "c1")
	candidate.SubjectID = "sub-art"
	candidate.SessionType = models.SessionElective

	report, err := classifier.Classify(candidate, existing, "", activeTerms)
	require.NoError(t, err)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, models.SeverityCritical, report.Conflicts[0].Severity)
}

func TestClassifyStaleTermIsInfoOnly(t *testing.T) {
	classifier := NewConflictClassifier(DefaultConflictPolicy())

	candidate := scheduleFixture("", "t1", "R1", "c1")
	candidate.TermID = "term-2019"

	report, err := classifier.Classify(candidate, nil, "", activeTerms)
	require.NoError(t, err)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, models.ConflictStaleAcademicYear, report.Conflicts[0].Type)
	assert.Equal(t, models.SeverityInfo, report.Conflicts[0].Severity)
	assert.False(t, report.HasBlockingConflict)
}

func TestClassifyInvalidTimeRangeShortCircuits(t *testing.T) {
	classifier := NewConflictClassifier(DefaultConflictPolicy())
	existing := []models.Schedule{scheduleFixture("s1", "t1", "R1", "c1")}

	candidate := scheduleFixture("", "t1", "R1", "c1")
	candidate.StartTime = "10:00"
	candidate.EndTime = "09:00"

	report, err := classifier.Classify(candidate, existing, "", activeTerms)
	require.NoError(t, err)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, models.ConflictInvalidTimeRange, report.Conflicts[0].Type)
	assert.Equal(t, models.SeverityCritical, report.Conflicts[0].Severity)
	assert.True(t, report.HasBlockingConflict)
}

func TestClassifyFailsClosedOnUnreadableStoredSlot(t *testing.T) {
	classifier := NewConflictClassifier(DefaultConflictPolicy())
	broken := scheduleFixture("s1", "t1", "R1", "c1")
	broken.StartTime = "garbage"

	candidate := scheduleFixture("", "t2", "R2", "c2")

	_, err := classifier.Classify(candidate, []models.Schedule{broken}, "", activeTerms)
	require.Error(t, err)
}

func TestClassifyIsDeterministic(t *testing.T) {
	classifier := NewConflictClassifier(DefaultConflictPolicy())
	existing := []models.Schedule{
		scheduleFixture("s1", "t1", "R1", "c1"),
		scheduleFixture("s2", "t1", "R2", "c2"),
		scheduleFixture("s3", "t9", "R1", "c3"),
	}

	candidate := scheduleFixture("", "t1", "R1", "c1")

	first, err := classifier.Classify(candidate, existing, "", activeTerms)
	require.NoError(t, err)
	second, err := classifier.Classify(candidate, existing, "", activeTerms)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
