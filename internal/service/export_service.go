package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/classhub/school-api/internal/models"
	"github.com/classhub/school-api/pkg/export"
	appErrors "github.com/classhub/school-api/pkg/errors"
)

type timetableLister interface {
	ListByClass(ctx context.Context, classID string) ([]models.Schedule, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Schedule, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFormat enumerates supported export formats.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// ExportResult carries a rendered document and its transfer metadata.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportService renders timetables as downloadable documents.
type ExportService struct {
	schedules timetableLister
	csv       csvRenderer
	pdf       pdfRenderer
	logger    *zap.Logger
}

// NewExportService creates a new export service.
func NewExportService(schedules timetableLister, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{schedules: schedules, csv: csv, pdf: pdf, logger: logger}
}

// ClassTimetable exports the weekly timetable of a class.
func (s *ExportService) ClassTimetable(ctx context.Context, classID string, format ExportFormat) (*ExportResult, error) {
	schedules, err := s.schedules.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class timetable")
	}
	return s.render(timetableDataset(schedules), "Class Timetable", "class-timetable", format)
}

// TeacherTimetable exports the weekly timetable of a teacher.
func (s *ExportService) TeacherTimetable(ctx context.Context, teacherID string, format ExportFormat) (*ExportResult, error) {
	schedules, err := s.schedules.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher timetable")
	}
	return s.render(timetableDataset(schedules), "Teacher Timetable", "teacher-timetable", format)
}

// ParseFormat normalises a format query parameter.
func ParseFormat(raw string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "csv":
		return FormatCSV, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", raw))
	}
}

func (s *ExportService) render(data export.Dataset, title, basename string, format ExportFormat) (*ExportResult, error) {
	switch format {
	case FormatCSV:
		content, err := s.csv.Render(data)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportResult{Content: content, ContentType: "text/csv", Filename: basename + ".csv"}, nil
	case FormatPDF:
		content, err := s.pdf.Render(data, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportResult{Content: content, ContentType: "application/pdf", Filename: basename + ".pdf"}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

func timetableDataset(schedules []models.Schedule) export.Dataset {
	rows := make([]map[string]string, 0, len(schedules))
	for _, sched := range schedules {
		rows = append(rows, map[string]string{
			"Day":     sched.DayOfWeek,
			"Start":   sched.StartTime,
			"End":     sched.EndTime,
			"Subject": sched.SubjectID,
			"Teacher": sched.TeacherID,
			"Room":    sched.Room,
			"Type":    string(sched.SessionType),
			"Code":    sched.JoinCode,
		})
	}
	return export.Dataset{
		Headers: []string{"Day", "Start", "End", "Subject", "Teacher", "Room", "Type", "Code"},
		Rows:    rows,
	}
}
