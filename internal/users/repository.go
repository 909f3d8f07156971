package users

import (
	"context"
	"errors"
	"time"

	"github.com/atheneum-portal/atheneum-portal/internal/access"
)

var (
	// ErrNotFound indicates that the requested account does not exist.
	ErrNotFound = errors.New("users: not found")
	// ErrEmailTaken indicates a duplicate email on create.
	ErrEmailTaken = errors.New("users: email already registered")
)

// CreateParams carries the fields needed to insert an account.
type CreateParams struct {
	Email        string
	Name         string
	Role         access.Role
	Department   string
	PasswordHash string
}

// Repository defines persistence operations for user accounts.
type Repository interface {
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id int64) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	Create(ctx context.Context, params CreateParams) (User, error)
	UpdateProfile(ctx context.Context, id int64, name string) (User, error)
	UpdateRole(ctx context.Context, id int64, role access.Role, department string) (User, error)
	SetActive(ctx context.Context, id int64, active bool) error
	SetLock(ctx context.Context, id int64, until *time.Time) error
	Delete(ctx context.Context, id int64) error

	access.PrincipalStore
}
