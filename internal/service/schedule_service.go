package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/classhub/school-api/internal/models"
	"github.com/classhub/school-api/pkg/codegen"
	appErrors "github.com/classhub/school-api/pkg/errors"
)

type scheduleRepository interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error)
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	FindCandidates(ctx context.Context, termID, dayOfWeek string) ([]models.Schedule, error)
	ExistsByJoinCode(ctx context.Context, code string) (bool, error)
	ListByClass(ctx context.Context, classID string) ([]models.Schedule, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Schedule, error)
	Create(ctx context.Context, schedule *models.Schedule) error
	Update(ctx context.Context, schedule *models.Schedule) error
	Delete(ctx context.Context, id string) error
}

type activeTermLister interface {
	ListActiveIDs(ctx context.Context) ([]string, error)
}

// ScheduleRequest describes the payload for proposing a timetable entry,
// shared by create, update and the dry-run conflict check.
type ScheduleRequest struct {
	TermID      string `json:"term_id" validate:"required"`
	ClassID     string `json:"class_id" validate:"required"`
	SubjectID   string `json:"subject_id" validate:"required"`
	TeacherID   string `json:"teacher_id" validate:"required"`
	Room        string `json:"room" validate:"required"`
	DayOfWeek   string `json:"day_of_week" validate:"required"`
	StartTime   string `json:"start_time" validate:"required"`
	EndTime     string `json:"end_time" validate:"required"`
	SessionType string `json:"session_type" validate:"omitempty,oneof=LECTURE ELECTIVE"`
}

// CheckScheduleRequest is the dry-run variant; ScheduleID carries the
// entry's own id when the caller is probing an edit.
type CheckScheduleRequest struct {
	ScheduleID string `json:"schedule_id"`
	ScheduleRequest
}

// ConflictCheckResponse is the wire shape of a dry-run evaluation.
type ConflictCheckResponse struct {
	HasConflicts        bool              `json:"has_conflicts"`
	HasBlockingConflict bool              `json:"has_blocking_conflict"`
	Conflicts           []models.Conflict `json:"conflicts"`
}

// ScheduleService is the timetable mutation gate: every create or update
// passes through conflict classification before it may touch storage.
type ScheduleService struct {
	repo           scheduleRepository
	terms          activeTermLister
	classifier     *ConflictClassifier
	codes          *codegen.Generator
	joinCodeLength int
	cache          *CacheService
	metrics        *MetricsService
	validator      *validator.Validate
	logger         *zap.Logger
}

// NewScheduleService wires the mutation gate.
func NewScheduleService(
	repo scheduleRepository,
	terms activeTermLister,
	classifier *ConflictClassifier,
	codes *codegen.Generator,
	joinCodeLength int,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if classifier == nil {
		classifier = NewConflictClassifier(DefaultConflictPolicy())
	}
	if codes == nil {
		codes = codegen.New(0)
	}
	if joinCodeLength <= 0 {
		joinCodeLength = 8
	}
	return &ScheduleService{
		repo:           repo,
		terms:          terms,
		classifier:     classifier,
		codes:          codes,
		joinCodeLength: joinCodeLength,
		cache:          cache,
		metrics:        metrics,
		validator:      validate,
		logger:         logger,
	}
}

// List returns schedules with pagination metadata.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, *models.Pagination, error) {
	schedules, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return schedules, pagination, nil
}

// Get returns a schedule by identifier.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.Schedule, error) {
	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return schedule, nil
}

// ListByClass returns the timetable for a class, served from cache when
// available.
func (s *ScheduleService) ListByClass(ctx context.Context, classID string) ([]models.Schedule, error) {
	key := "schedules:class:" + classID
	var cached []models.Schedule
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}
	schedules, err := s.repo.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class schedules")
	}
	s.cache.Set(ctx, key, schedules)
	return schedules, nil
}

// ListByTeacher returns the timetable for a teacher, served from cache when
// available.
func (s *ScheduleService) ListByTeacher(ctx context.Context, teacherID string) ([]models.Schedule, error) {
	key := "schedules:teacher:" + teacherID
	var cached []models.Schedule
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}
	schedules, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teacher schedules")
	}
	s.cache.Set(ctx, key, schedules)
	return schedules, nil
}

// Check runs a dry-run conflict evaluation without touching storage.
func (s *ScheduleService) Check(ctx context.Context, req CheckScheduleRequest) (*ConflictCheckResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflict check payload")
	}
	candidate := s.buildCandidate(req.ScheduleRequest)
	report, err := s.evaluate(ctx, candidate, req.ScheduleID)
	if err != nil {
		return nil, err
	}
	return &ConflictCheckResponse{
		HasConflicts:        len(report.Conflicts) > 0,
		HasBlockingConflict: report.HasBlockingConflict,
		Conflicts:           report.Conflicts,
	}, nil
}

// Create commits a new timetable entry after it cleared the gate. The join
// code is assigned immediately before the write.
func (s *ScheduleService) Create(ctx context.Context, req ScheduleRequest) (*models.ScheduleMutationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	schedule := s.buildCandidate(req)

	report, err := s.evaluate(ctx, schedule, "")
	if err != nil {
		return nil, err
	}
	if report.HasBlockingConflict {
		return nil, rejectedByReport(report)
	}

	joinCode, err := s.codes.Unique(ctx, s.joinCodeLength, s.repo.ExistsByJoinCode)
	if err != nil {
		if errors.Is(err, codegen.ErrExhausted) {
			return nil, appErrors.Wrap(err, appErrors.ErrCodeExhausted.Code, appErrors.ErrCodeExhausted.Status, "could not assign a unique join code")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate join code")
	}
	schedule.JoinCode = joinCode

	if err := s.repo.Create(ctx, &schedule); err != nil {
		if isUniqueViolation(err) {
			return nil, rejectedByStorage(err)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}

	s.cache.Invalidate(ctx, "schedules:*")
	s.logger.Info("schedule committed",
		zap.String("schedule_id", schedule.ID),
		zap.Int("advisory_conflicts", len(report.Conflicts)))
	return &models.ScheduleMutationResult{Schedule: schedule, Report: report}, nil
}

// Update re-evaluates an edited entry with itself excluded from the
// comparison set.
func (s *ScheduleService) Update(ctx context.Context, id string, req ScheduleRequest) (*models.ScheduleMutationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}

	updated := s.buildCandidate(req)
	updated.ID = existing.ID
	updated.JoinCode = existing.JoinCode
	updated.CreatedAt = existing.CreatedAt

	report, err := s.evaluate(ctx, updated, existing.ID)
	if err != nil {
		return nil, err
	}
	if report.HasBlockingConflict {
		return nil, rejectedByReport(report)
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		if isUniqueViolation(err) {
			return nil, rejectedByStorage(err)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule")
	}

	s.cache.Invalidate(ctx, "schedules:*")
	return &models.ScheduleMutationResult{Schedule: updated, Report: report}, nil
}

// Delete removes a schedule entry without conflict re-evaluation.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}

	s.cache.Invalidate(ctx, "schedules:*")
	return nil
}

func (s *ScheduleService) buildCandidate(req ScheduleRequest) models.Schedule {
	sessionType := models.SessionType(strings.ToUpper(req.SessionType))
	if sessionType == "" {
		sessionType = models.SessionLecture
	}
	return models.Schedule{
		TermID:      req.TermID,
		ClassID:     req.ClassID,
		SubjectID:   req.SubjectID,
		TeacherID:   req.TeacherID,
		Room:        req.Room,
		DayOfWeek:   strings.ToUpper(req.DayOfWeek),
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		SessionType: sessionType,
	}
}

// evaluate fetches a single coherent snapshot and classifies the candidate
// against it. A failed snapshot read is a hard failure; "could not check"
// must never be mistaken for "no conflicts".
func (s *ScheduleService) evaluate(ctx context.Context, candidate models.Schedule, selfID string) (models.ConflictReport, error) {
	if _, err := candidate.Slot(); err != nil {
		// No comparison is possible; the classifier turns the construction
		// failure into the single critical conflict.
		report, _ := s.classifier.Classify(candidate, nil, selfID, nil)
		s.metrics.ObserveConflictReport(report)
		return report, nil
	}

	activeTermIDs, err := s.terms.ListActiveIDs(ctx)
	if err != nil {
		return models.ConflictReport{}, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to load active terms for conflict check")
	}

	existing, err := s.repo.FindCandidates(ctx, candidate.TermID, candidate.DayOfWeek)
	if err != nil {
		return models.ConflictReport{}, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to load schedule snapshot for conflict check")
	}

	report, err := s.classifier.Classify(candidate, existing, selfID, activeTermIDs)
	if err != nil {
		return models.ConflictReport{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "conflict evaluation aborted")
	}
	s.metrics.ObserveConflictReport(report)
	return report, nil
}

func rejectedByReport(report models.ConflictReport) error {
	domainErr := &models.ScheduleConflictError{
		Message: "schedule conflicts with existing entries",
		Report:  report,
	}
	return appErrors.Wrap(domainErr, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, domainErr.Message)
}

// rejectedByStorage maps a unique-constraint violation raised at commit
// time to the same rejected outcome as an in-process detection. The
// in-process check is advisory; the storage constraint is the backstop for
// two candidates racing through evaluation together.
func rejectedByStorage(err error) error {
	domainErr := &models.ScheduleConflictError{
		Message: "schedule slot was taken by a concurrent change; re-check and retry",
	}
	domainErr.Report.HasBlockingConflict = true
	return appErrors.Wrap(errors.Join(domainErr, err), "PERSISTENCE_CONFLICT", appErrors.ErrConflict.Status, domainErr.Message)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
