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

func newTermMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTermRepositoryListActiveIDs(t *testing.T) {
	db, mock, cleanup := newTermMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM terms WHERE is_active = TRUE")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("term-1").AddRow("term-2"))

	ids, err := repo.ListActiveIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"term-1", "term-2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTermRepositoryList(t *testing.T) {
	db, mock, cleanup := newTermMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "academic_year", "start_date", "end_date", "is_active", "created_at", "updated_at"}).
		AddRow("term-1", "Fall", "2026/2027", time.Now(), time.Now(), true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+termColumns+" FROM terms WHERE 1=1 AND academic_year = $1 ORDER BY start_date DESC LIMIT 20 OFFSET 0")).
		WithArgs("2026/2027").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM terms WHERE 1=1 AND academic_year = $1")).
		WithArgs("2026/2027").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	terms, total, err := repo.List(context.Background(), models.TermFilter{AcademicYear: "2026/2027"})
	require.NoError(t, err)
	assert.Len(t, terms, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTermRepositorySetActive(t *testing.T) {
	db, mock, cleanup := newTermMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE terms SET is_active = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("term-1", true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetActive(context.Background(), "term-1", true)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
