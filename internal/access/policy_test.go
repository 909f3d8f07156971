package access

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEveryRoleHasAPolicy(t *testing.T) {
	for _, role := range []Role{RoleRoot, RoleAdmin, RoleProfessor, RoleStudent, RoleGuest} {
		require.NotEmpty(t, rolePolicies[role], "role %s has no capability set", role)
	}
}

func TestAdminAndRootShareCapabilities(t *testing.T) {
	p := NewPolicy(Config{})
	require.Equal(t, p.CapabilitiesOf(RoleRoot), p.CapabilitiesOf(RoleAdmin),
		"the root/admin difference lives in scoping, not the policy table")
}

func TestRoleCapabilities(t *testing.T) {
	p := NewPolicy(Config{})

	require.True(t, p.HasCapability(RoleProfessor, CapManageOwnCourses))
	require.False(t, p.HasCapability(RoleProfessor, CapManageAllCourses))
	require.False(t, p.HasCapability(RoleProfessor, CapManageUsers))

	require.True(t, p.HasCapability(RoleStudent, CapPostForum))
	require.False(t, p.HasCapability(RoleStudent, CapUploadCourseFile))
	require.False(t, p.HasCapability(RoleStudent, CapModerateForum))

	require.True(t, p.HasCapability(RoleGuest, CapViewOnly))
	require.False(t, p.HasCapability(RoleGuest, CapPostForum))
}

func TestGuestPostIsAConfigOptIn(t *testing.T) {
	off := NewPolicy(Config{})
	on := NewPolicy(Config{GuestPostEnabled: true})

	require.False(t, off.HasCapability(RoleGuest, CapPostForum))
	require.True(t, on.HasCapability(RoleGuest, CapPostForum))
	require.Contains(t, on.CapabilitiesOf(RoleGuest), CapPostForum)
	require.NotContains(t, off.CapabilitiesOf(RoleGuest), CapPostForum)
}

func TestUnknownRoleHasNothing(t *testing.T) {
	p := NewPolicy(Config{})
	require.False(t, p.HasCapability(Role("janitor"), CapViewOnly))
	require.Empty(t, p.CapabilitiesOf(Role("janitor")))
}
