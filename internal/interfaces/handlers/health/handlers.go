package health

import (
	healthsvc "metallix-backend/internal/application/health"
	"metallix-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Handlers holds dependencies for health endpoints.
type Handlers struct {
	Rdb *redis.Client
	DB  healthsvc.DBPinger
}

// JSON GET /health: store status, runtime and request counters.
// Answers 503 when a store is unreachable.
func (h *Handlers) JSON(c *fiber.Ctx) error {
	report := healthsvc.Collect(c.UserContext(), h.Rdb, h.DB)
	status := fiber.StatusOK
	if report.Status != "ok" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{
		"service":      "metallix-api",
		"status":       report.Status,
		"runtime":      report.Runtime,
		"traffic":      report.Traffic,
		"dependencies": report.Dependencies,
	})
}

// Errors GET /health/errors (admin): recent 5xx requests.
func (h *Handlers) Errors(c *fiber.Ctx) error {
	entries, err := healthsvc.RecentErrors(c.UserContext(), h.Rdb)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "", entries)
}

// Reset POST /health/reset (admin): clears the request counters.
func (h *Handlers) Reset(c *fiber.Ctx) error {
	if h.Rdb == nil {
		return response.Error(c, "Redis is not configured", fiber.StatusServiceUnavailable)
	}
	if err := healthsvc.Reset(c.UserContext(), h.Rdb); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Stats reset successfully", nil)
}
