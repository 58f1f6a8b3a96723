package middleware

import (
	"errors"

	"metallix-backend/internal/pkg/apperror"
	"metallix-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// ErrorHandler is the global error handler. Classified errors keep their status and
// message; anything else is logged and rendered as an opaque 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return response.Error(c, fe.Message, fe.Code)
	}
	var ae *apperror.Error
	if errors.As(err, &ae) && ae.Kind != apperror.KindStorage {
		return response.Error(c, ae.Message, apperror.StatusCode(err))
	}
	log.Error().Err(err).Str("trace_id", GetTraceID(c)).Str("method", c.Method()).Str("path", c.Path()).Msg("unhandled error")
	return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError)
}
