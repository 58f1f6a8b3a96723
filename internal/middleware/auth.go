package middleware

import (
	"metallix-backend/internal/auth"
	"metallix-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const callerLocal = "caller"

// RequireAuth verifies the bearer token and loads the caller. The caller is
// stored in Locals and in the request's user context for the services.
func RequireAuth(finder auth.UserFinder, secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := auth.Authenticate(c.UserContext(), finder, secret, c.Get(fiber.HeaderAuthorization))
		if err != nil {
			var msg string
			switch err {
			case auth.ErrNoToken, auth.ErrInvalidToken, auth.ErrTokenExpired, auth.ErrUserNotFound, auth.ErrUserDeactivated:
				msg = err.Error()
			default:
				log.Error().Err(err).Str("trace_id", GetTraceID(c)).Msg("authentication failed")
				return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError)
			}
			return response.Unauthorized(c, msg)
		}
		c.Locals(callerLocal, caller)
		c.SetUserContext(auth.WithCaller(c.UserContext(), caller))
		return c.Next()
	}
}

// GetCaller returns the authenticated caller (zero Caller if none).
func GetCaller(c *fiber.Ctx) auth.Caller {
	caller, _ := c.Locals(callerLocal).(auth.Caller)
	return caller
}

// SetCaller stores caller as if RequireAuth had run. Used by tests and internal mounts.
func SetCaller(c *fiber.Ctx, caller auth.Caller) {
	c.Locals(callerLocal, caller)
	c.SetUserContext(auth.WithCaller(c.UserContext(), caller))
}
