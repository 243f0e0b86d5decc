package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classhub/school-api/internal/models"
	"github.com/classhub/school-api/pkg/codegen"
	appErrors "github.com/classhub/school-api/pkg/errors"
)

type mockTeacherRepo struct {
	teachers map[string]*models.Teacher
	codes    map[string]bool
}

func newMockTeacherRepo() *mockTeacherRepo {
	return &mockTeacherRepo{teachers: map[string]*models.Teacher{}, codes: map[string]bool{}}
}

func (m *mockTeacherRepo) List(_ context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	var out []models.Teacher
	for _, t := range m.teachers {
		out = append(out, *t)
	}
	return out, len(out), nil
}

func (m *mockTeacherRepo) FindByID(_ context.Context, id string) (*models.Teacher, error) {
	if t, ok := m.teachers[id]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTeacherRepo) ExistsByEmail(_ context.Context, email, excludeID string) (bool, error) {
	for _, t := range m.teachers {
		if t.Email == email && t.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockTeacherRepo) ExistsByCode(_ context.Context, code string) (bool, error) {
	return m.codes[code], nil
}

func (m *mockTeacherRepo) Create(_ context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = "tch-" + teacher.TeacherCode
	}
	m.teachers[teacher.ID] = teacher
	m.codes[teacher.TeacherCode] = true
	return nil
}

func (m *mockTeacherRepo) Update(_ context.Context, teacher *models.Teacher) error {
	m.teachers[teacher.ID] = teacher
	return nil
}

func (m *mockTeacherRepo) Deactivate(_ context.Context, id string) error {
	if t, ok := m.teachers[id]; ok {
		t.Active = false
	}
	return nil
}

func TestTeacherServiceCreateGeneratesCode(t *testing.T) {
	repo := newMockTeacherRepo()
	svc := NewTeacherService(repo, codegen.New(5), nil, nil)

	teacher, err := svc.Create(context.Background(), TeacherRequest{
		Email:    "Jane.Doe@classhub.test",
		FullName: "Jane Doe",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(teacher.TeacherCode, "TCH-"))
	assert.Equal(t, "jane.doe@classhub.test", teacher.Email)
	assert.True(t, teacher.Active)
	assert.Len(t, repo.teachers, 1)
}

func TestTeacherServiceCreateDuplicateEmail(t *testing.T) {
	repo := newMockTeacherRepo()
	svc := NewTeacherService(repo, codegen.New(5), nil, nil)

	_, err := svc.Create(context.Background(), TeacherRequest{Email: "jane@classhub.test", FullName: "Jane"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), TeacherRequest{Email: "jane@classhub.test", FullName: "Other Jane"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Len(t, repo.teachers, 1)
}

func TestTeacherServiceCreateInvalidEmail(t *testing.T) {
	svc := NewTeacherService(newMockTeacherRepo(), codegen.New(5), nil, nil)

	_, err := svc.Create(context.Background(), TeacherRequest{Email: "not-an-email", FullName: "Jane"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTeacherServiceUpdateKeepsCode(t *testing.T) {
	repo := newMockTeacherRepo()
	svc := NewTeacherService(repo, codegen.New(5), nil, nil)

	created, err := svc.Create(context.Background(), TeacherRequest{Email: "jane@classhub.test", FullName: "Jane"})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, TeacherRequest{Email: "jane.doe@classhub.test", FullName: "Jane Doe"})
	require.NoError(t, err)
	assert.Equal(t, created.TeacherCode, updated.TeacherCode)
	assert.Equal(t, "jane.doe@classhub.test", updated.Email)
}

func TestTeacherServiceDeactivate(t *testing.T) {
	repo := newMockTeacherRepo()
	svc := NewTeacherService(repo, codegen.New(5), nil, nil)

	created, err := svc.Create(context.Background(), TeacherRequest{Email: "jane@classhub.test", FullName: "Jane"})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), created.ID))
	assert.False(t, repo.teachers[created.ID].Active)

	err = svc.Deactivate(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
