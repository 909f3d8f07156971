package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/atheneum-portal/atheneum-portal/internal/access"
	"github.com/atheneum-portal/atheneum-portal/internal/courses"
)

// ErrInvalidInput indicates a rejected account mutation.
var ErrInvalidInput = errors.New("users: invalid input")

// Service wraps account management rules. Every mutation is gated through
// the access engine with the target account as the resource, so the
// admin-on-admin and admin-on-root overrides apply uniformly.
type Service struct {
	repo   Repository
	engine *access.Engine
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, engine *access.Engine, logger *slog.Logger) *Service {
	return &Service{repo: repo, engine: engine, logger: logger}
}

// CreateInput carries a new account request.
type CreateInput struct {
	Email      string `json:"email" validate:"required,email"`
	Name       string `json:"name" validate:"required,min=2"`
	Password   string `json:"password" validate:"required,min=8"`
	Role       string `json:"role" validate:"required"`
	Department string `json:"department" validate:"omitempty"`
}

// List returns all accounts; requires the manage-users capability.
func (s *Service) List(ctx context.Context, actor access.Principal) ([]User, error) {
	if !s.engine.Policy().HasCapability(actor.Role, access.CapManageUsers) {
		return nil, access.Denied(access.ReasonInsufficientRole).Err()
	}
	return s.repo.List(ctx)
}

// Get fetches one account, applying the per-target scope rules.
func (s *Service) Get(ctx context.Context, actor access.Principal, id int64) (User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if d := s.engine.Authorize(actor, access.ActionRead, user.Account()); !d.Allow {
		return User{}, d.Err()
	}
	return user, nil
}

// Create registers a new account on behalf of an administrator. Guests are
// anonymous visitors, never stored accounts, so the guest role is not
// assignable either.
func (s *Service) Create(ctx context.Context, actor access.Principal, input CreateInput) (User, error) {
	role := access.Role(strings.TrimSpace(input.Role))
	if !role.Valid() || role == access.RoleRoot || role == access.RoleGuest {
		return User{}, fmt.Errorf("%w: role %q not assignable", ErrInvalidInput, input.Role)
	}
	department, err := departmentFor(role, input.Department)
	if err != nil {
		return User{}, err
	}

	if d := s.engine.Authorize(actor, access.ActionCreate, access.UserAccount{Role: role}); !d.Allow {
		return User{}, d.Err()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("users: hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, CreateParams{
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		Name:         strings.TrimSpace(input.Name),
		Role:         role,
		Department:   department,
		PasswordHash: string(hash),
	})
	if err != nil {
		return User{}, err
	}
	s.logger.Info("user created", slog.Int64("actor", actor.ID), slog.Int64("user", user.ID), slog.String("role", string(role)))
	return user, nil
}

// UpdateProfile updates the actor's own profile fields; the role can never
// be changed this way.
func (s *Service) UpdateProfile(ctx context.Context, actor access.Principal, name string) (User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return User{}, fmt.Errorf("%w: name required", ErrInvalidInput)
	}
	target, err := s.repo.Get(ctx, actor.ID)
	if err != nil {
		return User{}, err
	}
	if d := s.engine.Authorize(actor, access.ActionUpdate, target.Account()); !d.Allow {
		return User{}, d.Err()
	}
	return s.repo.UpdateProfile(ctx, actor.ID, name)
}

// UpdateRole reassigns role and department for a target account.
func (s *Service) UpdateRole(ctx context.Context, actor access.Principal, id int64, newRole access.Role, department string) (User, error) {
	if !newRole.Valid() || newRole == access.RoleRoot || newRole == access.RoleGuest {
		return User{}, fmt.Errorf("%w: role %q not assignable", ErrInvalidInput, newRole)
	}
	dept, err := departmentFor(newRole, department)
	if err != nil {
		return User{}, err
	}

	target, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if target.Role == access.RoleRoot {
		return User{}, fmt.Errorf("%w: root role is immutable", ErrInvalidInput)
	}
	if d := s.engine.Authorize(actor, access.ActionUpdate, target.Account()); !d.Allow {
		return User{}, d.Err()
	}
	return s.repo.UpdateRole(ctx, id, newRole, dept)
}

// SetActive toggles an account between active and inactive.
func (s *Service) SetActive(ctx context.Context, actor access.Principal, id int64, active bool) error {
	target, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if target.Role == access.RoleRoot && !active {
		return fmt.Errorf("%w: root account cannot be deactivated", ErrInvalidInput)
	}
	if d := s.engine.Authorize(actor, access.ActionUpdate, target.Account()); !d.Allow {
		return d.Err()
	}
	return s.repo.SetActive(ctx, id, active)
}

// Lock freezes an account until the given time.
func (s *Service) Lock(ctx context.Context, actor access.Principal, id int64, until time.Time) error {
	target, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if d := s.engine.Authorize(actor, access.ActionUpdate, target.Account()); !d.Allow {
		return d.Err()
	}
	s.logger.Info("user locked", slog.Int64("actor", actor.ID), slog.Int64("user", id), slog.Time("until", until))
	return s.repo.SetLock(ctx, id, &until)
}

// Unlock clears the lock timestamp explicitly; an expired lock needs no
// unlock at all.
func (s *Service) Unlock(ctx context.Context, actor access.Principal, id int64) error {
	target, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if d := s.engine.Authorize(actor, access.ActionUpdate, target.Account()); !d.Allow {
		return d.Err()
	}
	return s.repo.SetLock(ctx, id, nil)
}

// Delete removes an account. The root account is never hard-deleted.
func (s *Service) Delete(ctx context.Context, actor access.Principal, id int64) error {
	target, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if target.Role == access.RoleRoot {
		return fmt.Errorf("%w: root account cannot be deleted", ErrInvalidInput)
	}
	if d := s.engine.Authorize(actor, access.ActionDelete, target.Account()); !d.Allow {
		return d.Err()
	}
	s.logger.Info("user deleted", slog.Int64("actor", actor.ID), slog.Int64("user", id))
	return s.repo.Delete(ctx, id)
}

// departmentFor enforces the invariant that a department is present iff the
// role is professor or student.
func departmentFor(role access.Role, department string) (string, error) {
	department = strings.TrimSpace(department)
	if !role.HasDepartment() {
		if department != "" {
			return "", fmt.Errorf("%w: role %q carries no department", ErrInvalidInput, role)
		}
		return "", nil
	}
	if !courses.ValidDepartment(department) {
		return "", fmt.Errorf("%w: unknown department %q", ErrInvalidInput, department)
	}
	return department, nil
}
