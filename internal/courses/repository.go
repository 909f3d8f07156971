package courses

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates that the requested course does not exist.
	ErrNotFound = errors.New("courses: not found")
	// ErrCodeTaken indicates a duplicate course code on create.
	ErrCodeTaken = errors.New("courses: code already registered")
)

// Filter narrows a course listing.
type Filter struct {
	Department  Department
	ProfessorID int64
	ActiveOnly  bool
}

// CreateParams carries the fields needed to insert a course.
type CreateParams struct {
	Code         string
	Name         string
	Description  string
	Department   Department
	ProfessorID  int64
	Semester     int
	ForumEnabled bool
}

// UpdateParams carries the mutable course fields. The department and the
// course code are fixed at creation time.
type UpdateParams struct {
	Name         string
	Description  string
	ProfessorID  int64
	Semester     int
	IsActive     bool
	ForumEnabled bool
}

// Repository defines persistence operations for the course catalogue.
type Repository interface {
	List(ctx context.Context, filter Filter) ([]Course, error)
	Get(ctx context.Context, id int64) (Course, error)
	Create(ctx context.Context, params CreateParams) (Course, error)
	Update(ctx context.Context, id int64, params UpdateParams) (Course, error)
	Delete(ctx context.Context, id int64) error
}
