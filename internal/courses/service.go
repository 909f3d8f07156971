package courses

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/atheneum-portal/atheneum-portal/internal/access"
)

// ErrInvalidInput indicates a rejected catalogue mutation.
var ErrInvalidInput = errors.New("courses: invalid input")

// ProfessorDirectory answers role lookups for teaching assignments. The
// account store implements it; the indirection keeps the catalogue free of
// an account-package dependency.
type ProfessorDirectory interface {
	RoleOf(ctx context.Context, id int64) (access.Role, error)
}

// Service wraps catalogue rules: professors manage the courses they teach,
// administrators manage all of them.
type Service struct {
	repo      Repository
	directory ProfessorDirectory
	engine    *access.Engine
	logger    *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, directory ProfessorDirectory, engine *access.Engine, logger *slog.Logger) *Service {
	return &Service{repo: repo, directory: directory, engine: engine, logger: logger}
}

// CreateInput carries a new course request.
type CreateInput struct {
	Code         string `json:"code" validate:"required,min=2,max=16"`
	Name         string `json:"name" validate:"required,min=2"`
	Description  string `json:"description"`
	Department   string `json:"department" validate:"required"`
	ProfessorID  int64  `json:"professor_id"`
	Semester     int    `json:"semester" validate:"required,min=1,max=10"`
	ForumEnabled bool   `json:"forum_enabled"`
}

// UpdateInput carries a course update request.
type UpdateInput struct {
	Name         string `json:"name" validate:"required,min=2"`
	Description  string `json:"description"`
	ProfessorID  int64  `json:"professor_id" validate:"required"`
	Semester     int    `json:"semester" validate:"required,min=1,max=10"`
	IsActive     bool   `json:"is_active"`
	ForumEnabled bool   `json:"forum_enabled"`
}

// List returns the courses visible to the actor: administrators see the
// whole catalogue, professors their own courses, students their department,
// guests only active courses.
func (s *Service) List(ctx context.Context, actor access.Principal) ([]Course, error) {
	if d := s.engine.Authorize(actor, access.ActionRead, access.Collection{Of: access.KindCourse}); !d.Allow {
		return nil, d.Err()
	}

	filter := Filter{}
	switch actor.Role {
	case access.RoleRoot, access.RoleAdmin:
	case access.RoleProfessor:
		filter.ProfessorID = actor.ID
	case access.RoleStudent:
		filter.Department = Department(actor.Department)
		filter.ActiveOnly = true
	default:
		filter.ActiveOnly = true
	}
	return s.repo.List(ctx, filter)
}

// Get fetches one course if the actor may read it.
func (s *Service) Get(ctx context.Context, actor access.Principal, id int64) (Course, error) {
	course, err := s.repo.Get(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if d := s.engine.Authorize(actor, access.ActionRead, course.Resource()); !d.Allow {
		return Course{}, d.Err()
	}
	return course, nil
}

// Create registers a course. A professor can only register a course they
// teach themselves, inside their own department.
func (s *Service) Create(ctx context.Context, actor access.Principal, input CreateInput) (Course, error) {
	if d := s.engine.Authorize(actor, access.ActionCreate, access.Collection{Of: access.KindCourse}); !d.Allow {
		return Course{}, d.Err()
	}

	department := Department(strings.TrimSpace(input.Department))
	if !ValidDepartment(string(department)) {
		return Course{}, fmt.Errorf("%w: unknown department %q", ErrInvalidInput, input.Department)
	}

	professorID := input.ProfessorID
	if actor.Role == access.RoleProfessor {
		if professorID != 0 && professorID != actor.ID {
			return Course{}, fmt.Errorf("%w: professors register only their own courses", ErrInvalidInput)
		}
		professorID = actor.ID
		if department != Department(actor.Department) {
			return Course{}, fmt.Errorf("%w: course outside your department", ErrInvalidInput)
		}
	}
	if err := s.checkProfessor(ctx, professorID); err != nil {
		return Course{}, err
	}

	course, err := s.repo.Create(ctx, CreateParams{
		Code:         strings.ToUpper(strings.TrimSpace(input.Code)),
		Name:         strings.TrimSpace(input.Name),
		Description:  strings.TrimSpace(input.Description),
		Department:   department,
		ProfessorID:  professorID,
		Semester:     input.Semester,
		ForumEnabled: input.ForumEnabled,
	})
	if err != nil {
		return Course{}, err
	}
	s.logger.Info("course created", slog.Int64("actor", actor.ID), slog.Int64("course", course.ID), slog.String("code", course.Code))
	return course, nil
}

// Update rewrites a course the actor controls.
func (s *Service) Update(ctx context.Context, actor access.Principal, id int64, input UpdateInput) (Course, error) {
	course, err := s.repo.Get(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if d := s.engine.Authorize(actor, access.ActionUpdate, course.Resource()); !d.Allow {
		return Course{}, d.Err()
	}

	if actor.Role == access.RoleProfessor && input.ProfessorID != actor.ID {
		return Course{}, fmt.Errorf("%w: professors cannot reassign their courses", ErrInvalidInput)
	}
	if input.ProfessorID != course.ProfessorID {
		if err := s.checkProfessor(ctx, input.ProfessorID); err != nil {
			return Course{}, err
		}
	}

	return s.repo.Update(ctx, id, UpdateParams{
		Name:         strings.TrimSpace(input.Name),
		Description:  strings.TrimSpace(input.Description),
		ProfessorID:  input.ProfessorID,
		Semester:     input.Semester,
		IsActive:     input.IsActive,
		ForumEnabled: input.ForumEnabled,
	})
}

// Delete removes a course and everything hanging off it.
func (s *Service) Delete(ctx context.Context, actor access.Principal, id int64) error {
	course, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if d := s.engine.Authorize(actor, access.ActionDelete, course.Resource()); !d.Allow {
		return d.Err()
	}
	s.logger.Info("course deleted", slog.Int64("actor", actor.ID), slog.Int64("course", id))
	return s.repo.Delete(ctx, id)
}

// checkProfessor enforces the invariant that the teaching account holds the
// professor role.
func (s *Service) checkProfessor(ctx context.Context, id int64) error {
	if id == 0 {
		return fmt.Errorf("%w: professor required", ErrInvalidInput)
	}
	role, err := s.directory.RoleOf(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: professor %d not found", ErrInvalidInput, id)
	}
	if role != access.RoleProfessor {
		return fmt.Errorf("%w: account %d is not a professor", ErrInvalidInput, id)
	}
	return nil
}
