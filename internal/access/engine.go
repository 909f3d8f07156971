package access

import "time"

// Engine composes lifecycle state, role policy and resource scope into an
// allow/deny decision for a specific (action, resource) pair. It holds no
// mutable state and performs no I/O; concurrent use is safe.
type Engine struct {
	policy *Policy
	scopes *ScopeResolver
	cfg    Config
	now    func() time.Time
}

// NewEngine constructs an Engine with the given configuration.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		policy: NewPolicy(cfg),
		scopes: NewScopeResolver(cfg),
		cfg:    cfg,
		now:    time.Now,
	}
}

// WithClock replaces the wall clock, for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	clone := *e
	clone.now = now
	return &clone
}

// Policy exposes the role policy table for capability introspection.
func (e *Engine) Policy() *Policy { return e.policy }

// Authorize decides whether the principal may perform action on resource.
// Pass a Collection resource for collection-level actions such as
// "create course"; those are decided on role policy alone.
func (e *Engine) Authorize(p Principal, action Action, r Resource) Decision {
	if d := CheckLifecycle(p, e.now()); !d.Allow {
		return d
	}

	// The guest veto applies even where capability and scope would pass.
	if p.Role == RoleGuest && action.IsWrite() {
		if !e.guestWriteAllowed(action, r) {
			return Denied(ReasonGuestRestricted)
		}
	}

	if !e.hasActionCapability(p, action, r) {
		return Denied(ReasonInsufficientRole)
	}

	if _, collection := r.(Collection); collection || r == nil {
		return Allowed()
	}

	if !e.scopes.InScope(p, action, r) {
		return Denied(e.scopeDenyReason(p, r))
	}

	// Deleting a message that has replies degrades to soft-delete so the
	// thread stays intact. Re-deleting a tombstone is an allowed no-op.
	if action == ActionDelete {
		if msg, ok := r.(ForumMessage); ok && (msg.HasReplies || msg.IsDeleted) {
			return Decision{Allow: true, SoftDelete: true}
		}
	}

	return Allowed()
}

func (e *Engine) guestWriteAllowed(action Action, r Resource) bool {
	if !e.cfg.GuestPostEnabled || action != ActionCreate {
		return false
	}
	return r != nil && r.Kind() == KindForumMessage
}

func (e *Engine) hasActionCapability(p Principal, action Action, r Resource) bool {
	var kind Kind
	if r != nil {
		kind = r.Kind()
	}

	// Self profile updates need no management capability; ownership of
	// the account itself grants them. Role changes are refused at the
	// service layer.
	if kind == KindUserAccount && action == ActionUpdate && p.Role != RoleGuest {
		if owner, ok := r.Owner(); ok && owner == p.ID {
			return true
		}
	}

	for _, cap := range actionCapabilities(action, kind) {
		if e.policy.HasCapability(p.Role, cap) {
			return true
		}
	}
	return false
}

func (e *Engine) scopeDenyReason(p Principal, r Resource) Reason {
	if p.Role == RoleGuest {
		return ReasonGuestRestricted
	}
	if account, ok := r.(UserAccount); ok {
		switch p.Role {
		case RoleAdmin:
			// Admin-on-admin and admin-on-root are role shortfalls,
			// not scoping accidents.
			if account.Role == RoleAdmin || account.Role == RoleRoot {
				return ReasonInsufficientRole
			}
		case RoleRoot:
			return ReasonSelfActionOnly
		case RoleProfessor, RoleStudent:
			return ReasonSelfActionOnly
		}
	}
	return ReasonOutOfScope
}
