package constants

import "metallix-backend/internal/domain"

// PermissionRoles maps each permission to the roles allowed to perform it.
var PermissionRoles = map[string][]string{
	TradeMetals:      {domain.RoleUser, domain.RoleAdmin},
	ViewOwnPayments:  {domain.RoleUser, domain.RoleAdmin},
	UpdateRates:      {domain.RoleAdmin},
	SettlePayments:   {domain.RoleAdmin},
	ViewAllPayments:  {domain.RoleAdmin},
	ViewDashboard:    {domain.RoleAdmin},
	ViewLedgerEvents: {domain.RoleAdmin},
	ManageHealth:     {domain.RoleAdmin},
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission, role string) bool {
	for _, r := range PermissionRoles[permission] {
		if r == role {
			return true
		}
	}
	return false
}

// AdminOnly reports whether only ADMIN may perform the permission.
func AdminOnly(permission string) bool {
	roles := PermissionRoles[permission]
	return len(roles) == 1 && roles[0] == domain.RoleAdmin
}
