// Package access implements the permission-resolution core of the portal:
// role policies, resource scoping and the decision engine that gates every
// protected request.
package access

import "time"

// Role enumerates the portal account roles.
type Role string

// Portal roles, ordered from most to least privileged.
const (
	RoleRoot      Role = "root"
	RoleAdmin     Role = "admin"
	RoleProfessor Role = "professor"
	RoleStudent   Role = "student"
	RoleGuest     Role = "guest"
)

// Valid reports whether r is one of the five portal roles.
func (r Role) Valid() bool {
	switch r {
	case RoleRoot, RoleAdmin, RoleProfessor, RoleStudent, RoleGuest:
		return true
	}
	return false
}

// HasDepartment reports whether accounts with this role carry a department
// affiliation. Root, admin and guest accounts have none.
func (r Role) HasDepartment() bool {
	return r == RoleProfessor || r == RoleStudent
}

// Capability is a coarse role-level permission tag, independent of any
// specific resource.
type Capability string

// Capabilities granted through the role policy table.
const (
	CapManageUsers      Capability = "manage-users"
	CapManageAllCourses Capability = "manage-all-courses"
	CapManageOwnCourses Capability = "manage-own-courses"
	CapUploadCourseFile Capability = "upload-course-file"
	CapPostForum        Capability = "post-forum"
	CapModerateForum    Capability = "moderate-forum"
	CapDeleteAny        Capability = "delete-any"
	CapViewOnly         Capability = "view-only"
	CapViewReports      Capability = "view-reports"
)

// Action enumerates the operations the decision engine understands.
type Action string

// Supported actions.
const (
	ActionRead     Action = "read"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionUpload   Action = "upload"
	ActionModerate Action = "moderate"
)

// IsWrite reports whether the action mutates state.
func (a Action) IsWrite() bool { return a != ActionRead }

// Principal is the authenticated actor for a request. Role, active flag and
// lock state are re-read from the authoritative store on every request so a
// role change or lock takes effect immediately, not at token expiry.
type Principal struct {
	ID          int64
	Role        Role
	Department  string
	IsActive    bool
	LockedUntil *time.Time
}

// GuestPrincipal returns the principal representing an anonymous visitor.
func GuestPrincipal() Principal {
	return Principal{Role: RoleGuest, IsActive: true}
}

// Locked reports whether the principal is locked at the given instant.
// A lock timestamp in the past counts as unlocked.
func (p Principal) Locked(now time.Time) bool {
	return p.LockedUntil != nil && p.LockedUntil.After(now)
}

// Reason tags a deny decision so the boundary layer can render a precise
// message without re-deriving the cause.
type Reason string

// Deny reasons.
const (
	ReasonNone             Reason = ""
	ReasonAccountLocked    Reason = "account_locked"
	ReasonAccountInactive  Reason = "account_inactive"
	ReasonInsufficientRole Reason = "insufficient_role"
	ReasonOutOfScope       Reason = "out_of_scope"
	ReasonGuestRestricted  Reason = "guest_restricted"
	ReasonSelfActionOnly   Reason = "self_action_only"
)

// Decision is the outcome of an authorization check. It is an ephemeral
// value, never persisted.
type Decision struct {
	Allow bool
	// Reason is set on deny.
	Reason Reason
	// RetryAfterMinutes accompanies ReasonAccountLocked.
	RetryAfterMinutes int
	// SoftDelete signals that a permitted delete must degrade to
	// content replacement because dependents exist.
	SoftDelete bool
}

// Allowed returns an allow decision.
func Allowed() Decision { return Decision{Allow: true} }

// Denied returns a deny decision with the given reason.
func Denied(reason Reason) Decision { return Decision{Reason: reason} }

// Err converts a deny decision into a *DeniedError, or nil when allowed.
func (d Decision) Err() error {
	if d.Allow {
		return nil
	}
	return &DeniedError{Decision: d}
}
