package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classhub/school-api/internal/models"
	appErrors "github.com/classhub/school-api/pkg/errors"
)

type stubTimetableLister struct {
	schedules []models.Schedule
}

func (s *stubTimetableLister) ListByClass(_ context.Context, _ string) ([]models.Schedule, error) {
	return s.schedules, nil
}

func (s *stubTimetableLister) ListByTeacher(_ context.Context, _ string) ([]models.Schedule, error) {
	return s.schedules, nil
}

func TestExportServiceClassTimetableCSV(t *testing.T) {
	lister := &stubTimetableLister{schedules: []models.Schedule{
		{DayOfWeek: "MONDAY", StartTime: "08:00", EndTime: "09:00", SubjectID: "math", TeacherID: "tch-1", Room: "R101", SessionType: models.SessionLecture, JoinCode: "AB23CD45"},
	}}
	svc := NewExportService(lister, nil, nil, nil)

	result, err := svc.ClassTimetable(context.Background(), "class-1", FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "class-timetable.csv", result.Filename)

	body := string(result.Content)
	assert.True(t, strings.HasPrefix(body, "Day,Start,End,Subject,Teacher,Room,Type,Code"))
	assert.Contains(t, body, "MONDAY,08:00,09:00,math,tch-1,R101,LECTURE,AB23CD45")
}

func TestExportServiceTeacherTimetablePDF(t *testing.T) {
	lister := &stubTimetableLister{schedules: []models.Schedule{
		{DayOfWeek: "TUESDAY", StartTime: "10:00", EndTime: "11:00", SubjectID: "physics", TeacherID: "tch-1", Room: "LAB1"},
	}}
	svc := NewExportService(lister, nil, nil, nil)

	result, err := svc.TeacherTimetable(context.Background(), "tch-1", FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.Equal(t, "teacher-timetable.pdf", result.Filename)
	assert.True(t, strings.HasPrefix(string(result.Content), "%PDF"))
}

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, format)

	format, err = ParseFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, format)

	_, err = ParseFormat("xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
