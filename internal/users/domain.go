// Package users manages user accounts: roles, departments, activation and
// lock state. It is also the authoritative principal store the access core
// re-reads on every request.
package users

import (
	"time"

	"github.com/atheneum-portal/atheneum-portal/internal/access"
)

// User represents a portal account.
type User struct {
	ID           int64
	Email        string
	Name         string
	Role         access.Role
	Department   string
	PasswordHash string
	IsActive     bool
	LockedUntil  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Account converts the user into the access-control resource targeted by
// management actions.
func (u User) Account() access.UserAccount {
	return access.UserAccount{ID: u.ID, Role: u.Role, Department: u.Department}
}

// Principal converts the user into the acting principal shape.
func (u User) Principal() access.Principal {
	return access.Principal{
		ID:          u.ID,
		Role:        u.Role,
		Department:  u.Department,
		IsActive:    u.IsActive,
		LockedUntil: u.LockedUntil,
	}
}
