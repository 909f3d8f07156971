package users

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atheneum-portal/atheneum-portal/internal/access"
)

const userColumns = `id, email, name, role, department, password_hash, is_active, locked_until, created_at, updated_at`

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// List returns all accounts ordered by id.
func (r *PGRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, user)
	}
	return list, rows.Err()
}

// Get fetches an account by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// FindByEmail fetches an account by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// Create inserts a new account.
func (r *PGRepository) Create(ctx context.Context, params CreateParams) (User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, name, role, department, password_hash, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, now(), now())
		RETURNING `+userColumns,
		params.Email, params.Name, string(params.Role), params.Department, params.PasswordHash)
	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrEmailTaken
		}
		return User{}, err
	}
	return user, nil
}

// UpdateProfile updates self-editable fields.
func (r *PGRepository) UpdateProfile(ctx context.Context, id int64, name string) (User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users SET name = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns, id, name)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// UpdateRole changes role and department together so the department
// presence invariant holds in one statement.
func (r *PGRepository) UpdateRole(ctx context.Context, id int64, role access.Role, department string) (User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users SET role = $2, department = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns, id, string(role), department)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// SetActive toggles the active flag.
func (r *PGRepository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetLock sets or clears the locked_until timestamp.
func (r *PGRepository) SetLock(ctx context.Context, id int64, until *time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET locked_until = $2, updated_at = now() WHERE id = $1`, id, until)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an account.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FindPrincipal implements access.PrincipalStore: the per-request re-read
// of role, active flag and lock state.
func (r *PGRepository) FindPrincipal(ctx context.Context, id int64) (access.Principal, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, role, department, is_active, locked_until FROM users WHERE id = $1`, id)
	var p access.Principal
	var role string
	if err := row.Scan(&p.ID, &role, &p.Department, &p.IsActive, &p.LockedUntil); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return access.Principal{}, access.ErrPrincipalNotFound
		}
		return access.Principal{}, err
	}
	p.Role = access.Role(role)
	return p, nil
}

// RoleOf returns the role of an account; used by the course catalogue to
// check that a teaching professor really is a professor.
func (r *PGRepository) RoleOf(ctx context.Context, id int64) (access.Role, error) {
	var role string
	if err := r.pool.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, id).Scan(&role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return access.Role(role), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var user User
	var role string
	err := row.Scan(&user.ID, &user.Email, &user.Name, &role, &user.Department,
		&user.PasswordHash, &user.IsActive, &user.LockedUntil, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	user.Role = access.Role(role)
	return user, nil
}

var _ Repository = (*PGRepository)(nil)
