package users

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atheneum-portal/atheneum-portal/internal/access"
)

type memoryUserRepo struct {
	users  map[int64]User
	nextID int64
}

func newMemoryUserRepo(seed ...User) *memoryUserRepo {
	repo := &memoryUserRepo{users: make(map[int64]User), nextID: 1}
	for _, u := range seed {
		repo.users[u.ID] = u
		if u.ID >= repo.nextID {
			repo.nextID = u.ID + 1
		}
	}
	return repo
}

func (r *memoryUserRepo) List(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *memoryUserRepo) Get(ctx context.Context, id int64) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *memoryUserRepo) FindByEmail(ctx context.Context, email string) (User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *memoryUserRepo) Create(ctx context.Context, params CreateParams) (User, error) {
	for _, u := range r.users {
		if u.Email == params.Email {
			return User{}, ErrEmailTaken
		}
	}
	u := User{
		ID:           r.nextID,
		Email:        params.Email,
		Name:         params.Name,
		Role:         params.Role,
		Department:   params.Department,
		PasswordHash: params.PasswordHash,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	r.nextID++
	r.users[u.ID] = u
	return u, nil
}

func (r *memoryUserRepo) UpdateProfile(ctx context.Context, id int64, name string) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	u.Name = name
	r.users[id] = u
	return u, nil
}

func (r *memoryUserRepo) UpdateRole(ctx context.Context, id int64, role access.Role, department string) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	u.Role = role
	u.Department = department
	r.users[id] = u
	return u, nil
}

func (r *memoryUserRepo) SetActive(ctx context.Context, id int64, active bool) error {
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.IsActive = active
	r.users[id] = u
	return nil
}

func (r *memoryUserRepo) SetLock(ctx context.Context, id int64, until *time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.LockedUntil = until
	r.users[id] = u
	return nil
}

func (r *memoryUserRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memoryUserRepo) FindPrincipal(ctx context.Context, id int64) (access.Principal, error) {
	u, ok := r.users[id]
	if !ok {
		return access.Principal{}, access.ErrPrincipalNotFound
	}
	return u.Principal(), nil
}

var _ Repository = (*memoryUserRepo)(nil)

func testService(seed ...User) (*Service, *memoryUserRepo) {
	repo := newMemoryUserRepo(seed...)
	engine := access.NewEngine(access.Config{})
	return NewService(repo, engine, slog.Default()), repo
}

func activeUser(id int64, role access.Role, department string) User {
	return User{ID: id, Email: "", Role: role, Department: department, IsActive: true}
}

func principal(id int64, role access.Role, department string) access.Principal {
	return access.Principal{ID: id, Role: role, Department: department, IsActive: true}
}

func TestAdminCannotUpdateOtherAdmin(t *testing.T) {
	svc, _ := testService(
		activeUser(1, access.RoleAdmin, ""),
		activeUser(2, access.RoleAdmin, ""),
	)

	err := svc.SetActive(context.Background(), principal(1, access.RoleAdmin, ""), 2, false)
	denied, ok := access.AsDenied(err)
	require.True(t, ok, "expected a denial, got %v", err)
	require.Equal(t, access.ReasonInsufficientRole, denied.Decision.Reason)
}

func TestAdminCannotTouchRoot(t *testing.T) {
	svc, _ := testService(
		activeUser(1, access.RoleAdmin, ""),
		activeUser(9, access.RoleRoot, ""),
	)

	_, err := svc.Get(context.Background(), principal(1, access.RoleAdmin, ""), 9)
	denied, ok := access.AsDenied(err)
	require.True(t, ok)
	require.Equal(t, access.ReasonInsufficientRole, denied.Decision.Reason)
}

func TestAdminManagesStudent(t *testing.T) {
	svc, repo := testService(
		activeUser(1, access.RoleAdmin, ""),
		activeUser(3, access.RoleStudent, "chemical"),
	)

	require.NoError(t, svc.SetActive(context.Background(), principal(1, access.RoleAdmin, ""), 3, false))
	require.False(t, repo.users[3].IsActive)

	require.NoError(t, svc.Lock(context.Background(), principal(1, access.RoleAdmin, ""), 3, time.Now().Add(time.Hour)))
	require.NotNil(t, repo.users[3].LockedUntil)

	require.NoError(t, svc.Unlock(context.Background(), principal(1, access.RoleAdmin, ""), 3))
	require.Nil(t, repo.users[3].LockedUntil)
}

func TestStudentCannotManageOthers(t *testing.T) {
	svc, _ := testService(
		activeUser(3, access.RoleStudent, "chemical"),
		activeUser(4, access.RoleStudent, "chemical"),
	)

	err := svc.SetActive(context.Background(), principal(3, access.RoleStudent, "chemical"), 4, false)
	denied, ok := access.AsDenied(err)
	require.True(t, ok)
	require.Equal(t, access.ReasonInsufficientRole, denied.Decision.Reason)
}

func TestSelfProfileUpdate(t *testing.T) {
	svc, repo := testService(activeUser(3, access.RoleStudent, "chemical"))

	updated, err := svc.UpdateProfile(context.Background(), principal(3, access.RoleStudent, "chemical"), "New Name")
	require.NoError(t, err)
	require.Equal(t, "New Name", updated.Name)
	require.Equal(t, "New Name", repo.users[3].Name)
}

func TestRootAccountIsNeverDeleted(t *testing.T) {
	svc, _ := testService(activeUser(9, access.RoleRoot, ""))

	err := svc.Delete(context.Background(), principal(9, access.RoleRoot, ""), 9)
	require.ErrorIs(t, err, ErrInvalidInput)

	err = svc.SetActive(context.Background(), principal(9, access.RoleRoot, ""), 9, false)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateValidatesDepartmentInvariant(t *testing.T) {
	svc, _ := testService(activeUser(9, access.RoleRoot, ""))
	root := principal(9, access.RoleRoot, "")

	_, err := svc.Create(context.Background(), root, CreateInput{
		Email: "s@uni.edu", Name: "Student", Password: "secret123",
		Role: "student",
	})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(context.Background(), root, CreateInput{
		Email: "a@uni.edu", Name: "Admin", Password: "secret123",
		Role: "admin", Department: "civil",
	})
	require.ErrorIs(t, err, ErrInvalidInput)

	created, err := svc.Create(context.Background(), root, CreateInput{
		Email: "s@uni.edu", Name: "Student", Password: "secret123",
		Role: "student", Department: "civil",
	})
	require.NoError(t, err)
	require.Equal(t, access.RoleStudent, created.Role)
	require.Equal(t, "civil", created.Department)
}

func TestGuestRoleIsNotAssignable(t *testing.T) {
	svc, _ := testService(
		activeUser(1, access.RoleAdmin, ""),
		activeUser(3, access.RoleStudent, "chemical"),
	)
	admin := principal(1, access.RoleAdmin, "")

	_, err := svc.Create(context.Background(), admin, CreateInput{
		Email: "visitor@uni.edu", Name: "Visitor", Password: "secret123", Role: "guest",
	})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.UpdateRole(context.Background(), admin, 3, access.RoleGuest, "")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestAdminCannotCreateAdmin(t *testing.T) {
	svc, _ := testService(activeUser(1, access.RoleAdmin, ""))

	_, err := svc.Create(context.Background(), principal(1, access.RoleAdmin, ""), CreateInput{
		Email: "other@uni.edu", Name: "Other", Password: "secret123", Role: "admin",
	})
	denied, ok := access.AsDenied(err)
	require.True(t, ok)
	require.Equal(t, access.ReasonInsufficientRole, denied.Decision.Reason)
}
