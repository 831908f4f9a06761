package models

import "slices"

type Permission string

const (
	PermViewDashboard      Permission = "view_dashboard"
	PermManageTransactions Permission = "manage_transactions"
	PermManageCategories   Permission = "manage_categories"
	PermManageUsers        Permission = "manage_users"
	PermViewAnalytics      Permission = "view_analytics"
	PermViewReports        Permission = "view_reports"
	PermManageSettings     Permission = "manage_settings"
)

var rolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermViewDashboard,
		PermManageTransactions,
		PermManageCategories,
		PermManageUsers,
		PermViewAnalytics,
		PermViewReports,
		PermManageSettings,
	},
	RoleUser:     {PermViewDashboard, PermManageTransactions, PermViewAnalytics, PermViewReports},
	RoleReadonly: {PermViewDashboard, PermViewAnalytics, PermViewReports},
}

// Permissions returns a copy of the permissions granted to r.
func (r Role) Permissions() []Permission {
	return slices.Clone(rolePermissions[r])
}

func (r Role) Can(p Permission) bool {
	return slices.Contains(rolePermissions[r], p)
}
