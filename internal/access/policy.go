package access

import "sort"

// Config carries the global switches the core depends on. It is passed in
// explicitly so the engine stays pure and testable.
type Config struct {
	// GuestViewEnabled lets guests read course and forum content. When
	// false the gate denies every guest request, reads included.
	GuestViewEnabled bool
	// GuestPostEnabled opts guests into forum posting. Default deny.
	GuestPostEnabled bool
}

// rolePolicies is the static, total role → capability mapping. Admin holds
// the same capabilities as root; the difference between them is enforced by
// resource scoping, not by the policy table.
var rolePolicies = map[Role]map[Capability]struct{}{
	RoleRoot: capSet(
		CapManageUsers, CapManageAllCourses, CapManageOwnCourses,
		CapUploadCourseFile, CapPostForum, CapModerateForum,
		CapDeleteAny, CapViewOnly, CapViewReports,
	),
	RoleAdmin: capSet(
		CapManageUsers, CapManageAllCourses, CapManageOwnCourses,
		CapUploadCourseFile, CapPostForum, CapModerateForum,
		CapDeleteAny, CapViewOnly, CapViewReports,
	),
	RoleProfessor: capSet(
		CapManageOwnCourses, CapUploadCourseFile, CapPostForum,
		CapModerateForum, CapViewOnly,
	),
	RoleStudent: capSet(CapPostForum, CapViewOnly),
	RoleGuest:   capSet(CapViewOnly),
}

func capSet(caps ...Capability) map[Capability]struct{} {
	set := make(map[Capability]struct{}, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

// Policy resolves role capabilities, including the configured guest opt-in.
type Policy struct {
	cfg Config
}

// NewPolicy constructs a Policy with the given configuration.
func NewPolicy(cfg Config) *Policy {
	return &Policy{cfg: cfg}
}

// HasCapability reports whether the role holds the capability. Guests gain
// post-forum only when guest posting is enabled system-wide.
func (p *Policy) HasCapability(role Role, cap Capability) bool {
	if role == RoleGuest && cap == CapPostForum {
		return p.cfg.GuestPostEnabled
	}
	_, ok := rolePolicies[role][cap]
	return ok
}

// CapabilitiesOf returns the sorted capability set for a role. Used for UI
// feature-flagging; never the sole enforcement.
func (p *Policy) CapabilitiesOf(role Role) []Capability {
	set := rolePolicies[role]
	caps := make([]Capability, 0, len(set)+1)
	for c := range set {
		caps = append(caps, c)
	}
	if role == RoleGuest && p.cfg.GuestPostEnabled {
		caps = append(caps, CapPostForum)
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i] < caps[j] })
	return caps
}

// actionCapabilities maps an (action, resource kind) pair to the capability
// tags that can satisfy it. Holding any one of them passes the coarse gate;
// resource scoping still applies afterwards.
func actionCapabilities(action Action, kind Kind) []Capability {
	switch action {
	case ActionRead:
		return []Capability{CapViewOnly}
	case ActionUpload:
		return []Capability{CapUploadCourseFile}
	case ActionModerate:
		return []Capability{CapModerateForum}
	}
	switch kind {
	case KindCourse, KindForum:
		return []Capability{CapManageAllCourses, CapManageOwnCourses}
	case KindForumMessage:
		if action == ActionCreate {
			return []Capability{CapPostForum}
		}
		return []Capability{CapPostForum, CapModerateForum, CapDeleteAny}
	case KindFile:
		return []Capability{CapUploadCourseFile, CapPostForum, CapDeleteAny}
	case KindUserAccount:
		return []Capability{CapManageUsers}
	}
	return nil
}
