package middleware

import (
	"metallix-backend/internal/constants"
	"metallix-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthorizePermission checks the caller's role against constants.PermissionRoles.
// No caller -> 401 "Authentication required."; admin-only permission denied ->
// 403 "Admin access required."; any other denial -> 403.
func AuthorizePermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := GetCaller(c)
		if !caller.Authenticated() {
			return response.Unauthorized(c, "Authentication required.")
		}
		if _, ok := constants.PermissionRoles[permission]; !ok {
			return response.Error(c, "Permission configuration error", fiber.StatusInternalServerError)
		}
		if !constants.AllowedRole(permission, caller.Role) {
			if constants.AdminOnly(permission) {
				return response.Error(c, "Admin access required.", fiber.StatusForbidden)
			}
			return response.Error(c, "User is Forbidden from performing this action", fiber.StatusForbidden)
		}
		return c.Next()
	}
}

// RequireAdmin is AuthorizePermission for routes gated on the ADMIN role alone.
func RequireAdmin() fiber.Handler {
	return AuthorizePermission(constants.ViewDashboard)
}
