package domain

// Role identifies what an actor may do within ticket workflows. End-users
// always act as END_USER; staff members carry one of the staff roles.
type Role string

const (
	RoleEndUser      Role = "END_USER"
	RoleSupportStaff Role = "SUPPORT_STAFF"
	RoleTeamLead     Role = "TEAM_LEAD"
	RoleAdmin        Role = "ADMIN"
)

// StaffRoles lists the roles assignable to staff members.
func StaffRoles() []Role {
	return []Role{RoleSupportStaff, RoleTeamLead, RoleAdmin}
}

// IsStaffRole reports whether r is a valid staff role.
func IsStaffRole(r Role) bool {
	switch r {
	case RoleSupportStaff, RoleTeamLead, RoleAdmin:
		return true
	}
	return false
}
