package response

import (
	"metallix-backend/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Body is the envelope of every JSON response.
type Body struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Success sends a 200 OK response.
func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(Body{Success: true, Message: message, Data: data})
}

// SuccessCreated sends a 201 Created response.
func SuccessCreated(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Body{Success: true, Message: message, Data: data})
}

// Error sends a failure response with the given status.
func Error(c *fiber.Ctx, message string, statusCode int) error {
	return c.Status(statusCode).JSON(Body{Success: false, Message: message})
}

// Unauthorized sends 401 with the same shape as other errors.
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, message, fiber.StatusUnauthorized)
}

// FromError renders a service error. Storage and unclassified errors are logged
// with their cause and answered with an opaque 500.
func FromError(c *fiber.Ctx, err error) error {
	status := apperror.StatusCode(err)
	if status == fiber.StatusInternalServerError {
		traceID, _ := c.Locals("trace_id").(string)
		log.Error().Err(err).Str("trace_id", traceID).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
	}
	return Error(c, apperror.PublicMessage(err), status)
}
