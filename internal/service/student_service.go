package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/classhub/school-api/internal/models"
	"github.com/classhub/school-api/pkg/codegen"
	appErrors "github.com/classhub/school-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Deactivate(ctx context.Context, id string) error
}

type classFinder interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

// StudentRequest captures fields for creating or updating students.
type StudentRequest struct {
	FullName string  `json:"full_name" validate:"required"`
	Gender   string  `json:"gender" validate:"required,oneof=M F"`
	ClassID  *string `json:"class_id" validate:"omitempty,uuid"`
	Guardian *string `json:"guardian"`
	Phone    *string `json:"phone" validate:"omitempty,max=20"`
}

// StudentService handles student roster workflows.
type StudentService struct {
	repo      studentRepository
	classes   classFinder
	codes     *codegen.Generator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService creates a new student service.
func NewStudentService(repo studentRepository, classes classFinder, codes *codegen.Generator, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if codes == nil {
		codes = codegen.New(0)
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, classes: classes, codes: codes, validator: validate, logger: logger}
}

// List returns paginated students.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a student by identifier.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a student with a generated student code.
func (s *StudentService) Create(ctx context.Context, req StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	if err := s.checkClass(ctx, req.ClassID); err != nil {
		return nil, err
	}

	code, err := s.codes.Prefixed(ctx, "STU", 6, s.repo.ExistsByCode)
	if err != nil {
		if errors.Is(err, codegen.ErrExhausted) {
			return nil, appErrors.Clone(appErrors.ErrCodeExhausted, "could not allocate a student code")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate student code")
	}

	student := &models.Student{
		StudentCode: code,
		FullName:    req.FullName,
		Gender:      req.Gender,
		ClassID:     req.ClassID,
		Guardian:    req.Guardian,
		Phone:       req.Phone,
		Active:      true,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Update modifies student profile fields. The generated student code is
// immutable.
func (s *StudentService) Update(ctx context.Context, id string, req StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.checkClass(ctx, req.ClassID); err != nil {
		return nil, err
	}

	student.FullName = req.FullName
	student.Gender = req.Gender
	student.ClassID = req.ClassID
	student.Guardian = req.Guardian
	student.Phone = req.Phone

	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// Deactivate soft-deletes a student.
func (s *StudentService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate student")
	}
	return nil
}

func (s *StudentService) checkClass(ctx context.Context, classID *string) error {
	if classID == nil || s.classes == nil {
		return nil
	}
	if _, err := s.classes.FindByID(ctx, *classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "class does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class")
	}
	return nil
}
