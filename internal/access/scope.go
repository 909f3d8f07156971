package access

// ScopeResolver answers whether a principal's relationship to a resource
// (ownership, teaching assignment, department, elevated role) makes the
// resource relevant to them. One rule set per resource variant.
type ScopeResolver struct {
	cfg Config
}

// NewScopeResolver constructs a ScopeResolver.
func NewScopeResolver(cfg Config) *ScopeResolver {
	return &ScopeResolver{cfg: cfg}
}

// InScope reports whether the principal may act on the resource at all.
// Ownership always wins over department scoping: a professor keeps access
// to their own course even after being reassigned to another department.
func (s *ScopeResolver) InScope(p Principal, action Action, r Resource) bool {
	switch p.Role {
	case RoleRoot:
		return s.rootScope(p, r)
	case RoleAdmin:
		return s.adminScope(p, r)
	case RoleProfessor:
		return s.memberScope(p, action, r, s.professorCourseScope)
	case RoleStudent:
		return s.memberScope(p, action, r, s.studentCourseScope)
	case RoleGuest:
		return s.guestScope(action, r)
	}
	return false
}

// rootScope: everything is in scope except another root account. The
// portal assumes a single root; cross-root modification is out of scope.
func (s *ScopeResolver) rootScope(p Principal, r Resource) bool {
	if account, ok := r.(UserAccount); ok {
		if account.Role == RoleRoot && account.ID != p.ID {
			return false
		}
	}
	return true
}

// adminScope: everything is in scope except root and other admin accounts.
// These denials are hard overrides, checked before any other rule.
func (s *ScopeResolver) adminScope(p Principal, r Resource) bool {
	if account, ok := r.(UserAccount); ok {
		if account.Role == RoleRoot {
			return false
		}
		if account.Role == RoleAdmin && account.ID != p.ID {
			return false
		}
	}
	return true
}

// memberScope covers professors and students, differing only in how a
// course relates to them (teaching assignment vs department membership).
func (s *ScopeResolver) memberScope(p Principal, action Action, r Resource, courseRule func(Principal, Course) bool) bool {
	// Ownership tie-break first.
	if owner, ok := r.Owner(); ok && owner == p.ID {
		return true
	}

	switch res := r.(type) {
	case Course:
		return courseRule(p, res)
	case Forum:
		return courseRule(p, res.Course)
	case ForumMessage:
		if action.IsWrite() && action != ActionCreate && p.Role == RoleStudent {
			// Students write only their own messages; moderation of
			// others' posts is a professor/admin affair. Creation is
			// checked against the forum's course instead, since the
			// message does not exist yet.
			return false
		}
		return courseRule(p, res.Forum.Course)
	case File:
		if res.ForumImage() {
			// Public forum images: owner-only writes were handled by
			// the ownership tie-break above.
			return !action.IsWrite()
		}
		if action.IsWrite() && p.Role == RoleStudent {
			// Course files are read-only for students, always.
			return false
		}
		if res.Course == nil {
			return false
		}
		return courseRule(p, *res.Course)
	case UserAccount:
		// Self only, and self was handled by the ownership tie-break.
		return false
	}
	return false
}

func (s *ScopeResolver) professorCourseScope(p Principal, c Course) bool {
	return c.ProfessorID == p.ID
}

func (s *ScopeResolver) studentCourseScope(p Principal, c Course) bool {
	return p.Department != "" && p.Department == c.Department
}

// guestScope: read-only everywhere, with forum visibility and public file
// flags as the only levers. The single write exception is forum posting
// when the system-wide opt-in is enabled.
func (s *ScopeResolver) guestScope(action Action, r Resource) bool {
	if action.IsWrite() {
		return action == ActionCreate && r.Kind() == KindForumMessage && s.cfg.GuestPostEnabled
	}
	switch res := r.(type) {
	case Course:
		return true
	case Forum, ForumMessage:
		return s.cfg.GuestViewEnabled
	case File:
		return res.Public
	case UserAccount:
		return false
	}
	return false
}
