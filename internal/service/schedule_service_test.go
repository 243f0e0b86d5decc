package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/classhub/school-api/internal/models"
	"github.com/classhub/school-api/pkg/codegen"
	appErrors "github.com/classhub/school-api/pkg/errors"
)

type mockScheduleRepo struct {
	items         map[string]*models.Schedule
	candidates    []models.Schedule
	candidatesErr error
	takenCodes    map[string]bool
	allCodesTaken bool
	createErr     error
	updateErr     error
	deleted       []string
	findCalls     int
}

func (m *mockScheduleRepo) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error) {
	out := make([]models.Schedule, 0, len(m.items))
	for _, s := range m.items {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (m *mockScheduleRepo) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	if s, ok := m.items[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockScheduleRepo) FindCandidates(ctx context.Context, termID, dayOfWeek string) ([]models.Schedule, error) {
	m.findCalls++
	if m.candidatesErr != nil {
		return nil, m.candidatesErr
	}
	return m.candidates, nil
}

func (m *mockScheduleRepo) ExistsByJoinCode(ctx context.Context, code string) (bool, error) {
	if m.allCodesTaken {
		return true, nil
	}
	return m.takenCodes[code], nil
}

func (m *mockScheduleRepo) ListByClass(ctx context.Context, classID string) ([]models.Schedule, error) {
	return nil, nil
}

func (m *mockScheduleRepo) ListByTeacher(ctx context.Context, teacherID string) ([]models.Schedule, error) {
	return nil, nil
}

func (m *mockScheduleRepo) Create(ctx context.Context, schedule *models.Schedule) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.items == nil {
		m.items = make(map[string]*models.Schedule)
	}
	if schedule.ID == "" {
		schedule.ID = "generated"
	}
	cp := *schedule
	m.items[schedule.ID] = &cp
	return nil
}

func (m *mockScheduleRepo) Update(ctx context.Context, schedule *models.Schedule) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	cp := *schedule
	m.items[schedule.ID] = &cp
	return nil
}

func (m *mockScheduleRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.items, id)
	return nil
}

type mockTermLister struct {
	ids []string
	err error
}

func (m *mockTermLister) ListActiveIDs(ctx context.Context) ([]string, error) {
	return m.ids, m.err
}

func newGateForTest(repo *mockScheduleRepo, terms *mockTermLister) *ScheduleService {
	return NewScheduleService(
		repo,
		terms,
		NewConflictClassifier(DefaultConflictPolicy()),
		codegen.New(5),
		8,
		nil,
		nil,
		validator.New(),
		zap.NewNop(),
	)
}

func scheduleRequestFixture() ScheduleRequest {
	return ScheduleRequest{
		TermID:    "term-2024",
		ClassID:   "c1",
		SubjectID: "sub-math",
		TeacherID: "t1",
		Room:      "R1",
		DayOfWeek: "monday",
		StartTime: "09:00",
		EndTime:   "10:00",
	}
}

func TestScheduleCreateCleanCommit(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc := newGateForTest(repo, &mockTermLister{ids: []string{"term-2024"}})

	result, err := svc.Create(context.Background(), scheduleRequestFixture())
	require.NoError(t, err)
	assert.Len(t, result.Schedule.JoinCode, 8)
	assert.Equal(t, "MONDAY", result.Schedule.DayOfWeek)
	assert.Equal(t, models.SessionLecture, result.Schedule.SessionType)
	assert.Empty(t, result.Report.Conflicts)
	assert.Len(t, repo.items, 1)
}

func TestScheduleCreateRejectedOnTeacherConflict(t *testing.T) {
	repo := &mockScheduleRepo{
		candidates: []models.Schedule{{
			ID: "s1", TermID: "term-2024", ClassID: "c9", SubjectID: "sub-bio",
			TeacherID: "t1", Room: "R9", DayOfWeek: "MONDAY",
			StartTime: "09:30", EndTime: "10:30", SessionType: models.SessionLecture,
		}},
	}
	svc := newGateForTest(repo, &mockTermLister{ids: []string{"term-2024"}})

	_, err := svc.Create(context.Background(), scheduleRequestFixture())
	require.Error(t, err)

	var conflictErr *models.ScheduleConflictError
	require.ErrorAs(t, err, &conflictErr)
	require.Len(t, conflictErr.Report.Conflicts, 1)
	assert.Equal(t, models.ConflictTeacherDoubleBooking, conflictErr.Report.Conflicts[0].Type)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.items, "rejected candidate must not be persisted")
}

func TestScheduleCreateCommitsDespiteWarning(t *testing.T) {
	repo := &mockScheduleRepo{
		candidates: []models.Schedule{{
			ID: "s1", TermID: "term-2024", ClassID: "c1", SubjectID: "sub-art",
			TeacherID: "t9", Room: "R9", DayOfWeek: "MONDAY",
			StartTime: "09:30", EndTime: "10:30", SessionType: models.SessionElective,
		}},
	}
	svc := newGateForTest(repo, &mockTermLister{ids: []string{"term-2024"}})

	req := scheduleRequestFixture()
	req.SessionType = "ELECTIVE"
	result, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, result.Report.Conflicts, 1)
	assert.Equal(t, models.SeverityWarning, result.Report.Conflicts[0].Severity)
	assert.Len(t, repo.items, 1, "warnings never block a commit")
}

func TestScheduleCreateInvalidTimeRange(t *testing.T) {
	repo := &mockScheduleRepo{candidatesErr: errors.New("must not be called")}
	svc := newGateForTest(repo, &mockTermLister{ids: []string{"term-2024"}})

	req := scheduleRequestFixture()
	req.StartTime = "10:00"
	req.EndTime = "10:00"

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)

	var conflictErr *models.ScheduleConflictError
	require.ErrorAs(t, err, &conflictErr)
	require.Len(t, conflictErr.Report.Conflicts, 1)
	assert.Equal(t, models.ConflictInvalidTimeRange, conflictErr.Report.Conflicts[0].Type)
	assert.Zero(t, repo.findCalls, "no snapshot read for an unusable slot")
}

func TestScheduleCreateJoinCodeExhaustion(t *testing.T) {
	repo := &mockScheduleRepo{allCodesTaken: true}
	svc := newGateForTest(repo, &mockTermLister{ids: []string{"term-2024"}})

	_, err := svc.Create(context.Background(), scheduleRequestFixture())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCodeExhausted.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.items)
}

func TestScheduleCreateMapsUniqueViolationToConflict(t *testing.T) {
	repo := &mockScheduleRepo{createErr: &pq.Error{Code: "23505"}}
	svc := newGateForTest(repo, &mockTermLister{ids: []string{"term-2024"}})

	_, err := svc.Create(context.Background(), scheduleRequestFixture())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "PERSISTENCE_CONFLICT", appErr.Code)
	assert.Equal(t, appErrors.ErrConflict.Status, appErr.Status)
}

func TestScheduleUpdateExcludesSelf(t *testing.T) {
	existing := models.Schedule{
		ID: "s1", TermID: "term-2024", ClassID: "c1", SubjectID: "sub-math",
		TeacherID: "t1", Room: "R1", DayOfWeek: "MONDAY",
		StartTime: "09:00", EndTime: "10:00", SessionType: models.SessionLecture,
		JoinCode: "ABCD2345",
	}
	repo := &mockScheduleRepo{
		items:      map[string]*models.Schedule{"s1": &existing},
		candidates: []models.Schedule{existing},
	}
	svc := newGateForTest(repo, &mockTermLister{ids: []string{"term-2024"}})

	result, err := svc.Update(context.Background(), "s1", scheduleRequestFixture())
	require.NoError(t, err)
	assert.Empty(t, result.Report.Conflicts, "an entry never conflicts with itself")
	assert.Equal(t, "ABCD2345", result.Schedule.JoinCode, "join code survives edits")
}

func TestScheduleUpdateNotFound(t *testing.T) {
	svc := newGateForTest(&mockScheduleRepo{}, &mockTermLister{ids: []string{"term-2024"}})

	_, err := svc.Update(context.Background(), "missing", scheduleRequestFixture())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleCheckIsDryRun(t *testing.T) {
	repo := &mockScheduleRepo{
		candidates: []models.Schedule{{
			ID: "s1", TermID: "term-2024", ClassID: "c9", SubjectID: "sub-bio",
			TeacherID: "t1", Room: "R9", DayOfWeek: "MONDAY",
			StartTime: "09:00", EndTime: "10:00", SessionType: models.SessionLecture,
		}},
	}
	svc := newGateForTest(repo, &mockTermLister{ids: []string{"term-2024"}})

	resp, err := svc.Check(context.Background(), CheckScheduleRequest{ScheduleRequest: scheduleRequestFixture()})
	require.NoError(t, err)
	assert.True(t, resp.HasConflicts)
	assert.True(t, resp.HasBlockingConflict)
	require.Len(t, resp.Conflicts, 1)
	assert.Empty(t, repo.items, "dry run must not persist")
}

func TestScheduleCheckSelfExclusion(t *testing.T) {
	existing := models.Schedule{
		ID: "s1", TermID: "term-2024", ClassID: "c1", SubjectID: "sub-math",
		TeacherID: "t1", Room: "R1", DayOfWeek: "MONDAY",
		StartTime: "09:00", EndTime: "10:00", SessionType: models.SessionLecture,
	}
	repo := &mockScheduleRepo{candidates: []models.Schedule{existing}}
	svc := newGateForTest(repo, &mockTermLister{ids: []string{"term-2024"}})

	resp, err := svc.Check(context.Background(), CheckScheduleRequest{
		ScheduleID:      "s1",
		ScheduleRequest: scheduleRequestFixture(),
	})
	require.NoError(t, err)
	assert.False(t, resp.HasConflicts)
}

func TestScheduleCheckFailsWhenSnapshotUnavailable(t *testing.T) {
	repo := &mockScheduleRepo{candidatesErr: errors.New("connection refused")}
	svc := newGateForTest(repo, &mockTermLister{ids: []string{"term-2024"}})

	_, err := svc.Check(context.Background(), CheckScheduleRequest{ScheduleRequest: scheduleRequestFixture()})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnavailable.Code, appErrors.FromError(err).Code,
		"could not check must never read as no conflicts")
}

func TestScheduleDeleteSkipsConflictEvaluation(t *testing.T) {
	existing := models.Schedule{ID: "s1", TermID: "term-2024"}
	repo := &mockScheduleRepo{
		items:         map[string]*models.Schedule{"s1": &existing},
		candidatesErr: errors.New("must not be called"),
	}
	svc := newGateForTest(repo, &mockTermLister{ids: []string{"term-2024"}})

	require.NoError(t, svc.Delete(context.Background(), "s1"))
	assert.Equal(t, []string{"s1"}, repo.deleted)
	assert.Zero(t, repo.findCalls)
}

func TestScheduleCreateSurfacesStaleTermInfo(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc := newGateForTest(repo, &mockTermLister{ids: []string{"term-2025"}})

	result, err := svc.Create(context.Background(), scheduleRequestFixture())
	require.NoError(t, err, "info conflicts never block")
	require.Len(t, result.Report.Conflicts, 1)
	assert.Equal(t, models.ConflictStaleAcademicYear, result.Report.Conflicts[0].Type)
	assert.Len(t, repo.items, 1)
}
