// Package permissions maps user roles to the actions they may perform.
package permissions

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleHR       Role = "HR"
	RoleManager  Role = "MANAGER"
	RoleEmployee Role = "EMPLOYEE"
)

// Roles lists every known role.
var Roles = []Role{RoleAdmin, RoleHR, RoleManager, RoleEmployee}

type Permission string

const (
	ViewOwnTime        Permission = "view_own_time"
	ViewTeamTime       Permission = "view_team_time"
	ViewAllTime        Permission = "view_all_time"
	ApproveTime        Permission = "approve_time"
	ManageUsers        Permission = "manage_users"
	CreateInvites      Permission = "create_invites"
	ViewReports        Permission = "view_reports"
	ExportReports      Permission = "export_reports"
	ManageCompensation Permission = "manage_compensation"
)

// Permissions is the flag set granted to one role.
type Permissions struct {
	ViewOwnTime        bool `json:"view_own_time"`
	ViewTeamTime       bool `json:"view_team_time"`
	ViewAllTime        bool `json:"view_all_time"`
	ApproveTime        bool `json:"approve_time"`
	ManageUsers        bool `json:"manage_users"`
	CreateInvites      bool `json:"create_invites"`
	ViewReports        bool `json:"view_reports"`
	ExportReports      bool `json:"export_reports"`
	ManageCompensation bool `json:"manage_compensation"`
}

var table = map[Role]Permissions{
	RoleAdmin: {
		ViewOwnTime:        true,
		ViewTeamTime:       true,
		ViewAllTime:        true,
		ApproveTime:        true,
		ManageUsers:        true,
		CreateInvites:      true,
		ViewReports:        true,
		ExportReports:      true,
		ManageCompensation: true,
	},
	RoleHR: {
		ViewOwnTime:        true,
		ViewTeamTime:       true,
		ViewAllTime:        true,
		ApproveTime:        true,
		ViewReports:        true,
		ExportReports:      true,
		ManageCompensation: true,
	},
	RoleManager: {
		ViewOwnTime:  true,
		ViewTeamTime: true,
		ApproveTime:  true,
		ViewReports:  true,
	},
	RoleEmployee: {
		ViewOwnTime: true,
	},
}

// For returns the permissions of role. Unknown roles get nothing.
func For(role Role) Permissions {
	return table[role]
}

// Can reports whether role holds p.
func Can(role Role, p Permission) bool {
	perms := For(role)
	switch p {
	case ViewOwnTime:
		return perms.ViewOwnTime
	case ViewTeamTime:
		return perms.ViewTeamTime
	case ViewAllTime:
		return perms.ViewAllTime
	case ApproveTime:
		return perms.ApproveTime
	case ManageUsers:
		return perms.ManageUsers
	case CreateInvites:
		return perms.CreateInvites
	case ViewReports:
		return perms.ViewReports
	case ExportReports:
		return perms.ExportReports
	case ManageCompensation:
		return perms.ManageCompensation
	}
	return false
}

// Valid reports whether r is a known role.
func Valid(r Role) bool {
	_, ok := table[r]
	return ok
}
