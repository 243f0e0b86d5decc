package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classhub/school-api/internal/models"
)

func newScheduleMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func scheduleRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "term_id", "class_id", "subject_id", "teacher_id", "room", "day_of_week", "start_time", "end_time", "session_type", "join_code", "created_at", "updated_at"}).
		AddRow("sch-1", "term-1", "class-1", "subj-1", "tch-1", "R101", "MONDAY", "08:00", "09:00", "LECTURE", "AB23CD45", time.Now(), time.Now())
}

func TestScheduleRepositoryList(t *testing.T) {
	db, mock, cleanup := newScheduleMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+scheduleColumns+" FROM schedules WHERE 1=1 AND term_id = $1 ORDER BY day_of_week ASC, start_time ASC LIMIT 20 OFFSET 0")).
		WithArgs("term-1").
		WillReturnRows(scheduleRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schedules WHERE 1=1 AND term_id = $1")).
		WithArgs("term-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	schedules, total, err := repo.List(context.Background(), models.ScheduleFilter{TermID: "term-1"})
	require.NoError(t, err)
	assert.Len(t, schedules, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryListRejectsUnknownSort(t *testing.T) {
	db, mock, cleanup := newScheduleMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+scheduleColumns+" FROM schedules WHERE 1=1 ORDER BY day_of_week ASC, start_time ASC LIMIT 20 OFFSET 0")).
		WillReturnRows(scheduleRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schedules WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, _, err := repo.List(context.Background(), models.ScheduleFilter{SortBy: "join_code; DROP TABLE schedules"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryFindCandidates(t *testing.T) {
	db, mock, cleanup := newScheduleMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+scheduleColumns+" FROM schedules WHERE term_id = $1 AND day_of_week = $2 ORDER BY start_time ASC, id ASC")).
		WithArgs("term-1", "MONDAY").
		WillReturnRows(scheduleRows())

	schedules, err := repo.FindCandidates(context.Background(), "term-1", "MONDAY")
	require.NoError(t, err)
	assert.Len(t, schedules, 1)
	assert.Equal(t, "sch-1", schedules[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryExistsByJoinCode(t *testing.T) {
	db, mock, cleanup := newScheduleMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM schedules WHERE join_code = $1 LIMIT 1")).
		WithArgs("AB23CD45").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM schedules WHERE join_code = $1 LIMIT 1")).
		WithArgs("ZZ99ZZ99").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	taken, err := repo.ExistsByJoinCode(context.Background(), "AB23CD45")
	require.NoError(t, err)
	assert.True(t, taken)

	free, err := repo.ExistsByJoinCode(context.Background(), "ZZ99ZZ99")
	require.NoError(t, err)
	assert.False(t, free)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newScheduleMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec("INSERT INTO schedules").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	sched := &models.Schedule{
		TermID:      "term-1",
		ClassID:     "class-1",
		SubjectID:   "subj-1",
		TeacherID:   "tch-1",
		Room:        "R101",
		DayOfWeek:   "MONDAY",
		StartTime:   "08:00",
		EndTime:     "09:00",
		SessionType: models.SessionLecture,
		JoinCode:    "AB23CD45",
	}
	err := repo.Create(context.Background(), sched)
	require.NoError(t, err)
	assert.NotEmpty(t, sched.ID)
	assert.False(t, sched.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newScheduleMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec("UPDATE schedules SET").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), &models.Schedule{ID: "sch-1", TermID: "term-1", ClassID: "class-1", SubjectID: "subj-1", TeacherID: "tch-1", Room: "R102", DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "10:00", SessionType: models.SessionLecture})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newScheduleMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedules WHERE id = $1")).
		WithArgs("sch-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), "sch-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
