package admin

import (
	dashboardsvc "metallix-backend/internal/application/dashboard"
	"metallix-backend/internal/application/ledgerevents"
	"metallix-backend/internal/middleware"
	"metallix-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Dashboard *dashboardsvc.Service
	Events    *ledgerevents.Service
}

// GetDashboard GET /api/admin/dashboard.
func (h *Handlers) GetDashboard(c *fiber.Ctx) error {
	summary, err := h.Dashboard.Summarize(c.UserContext(), middleware.GetCaller(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "", summary)
}

// ListEvents GET /api/admin/ledger-events?entityType=&entityId=&limit=.
func (h *Handlers) ListEvents(c *fiber.Ctx) error {
	f := ledgerevents.Filter{
		EntityType: c.Query("entityType"),
		Limit:      c.QueryInt("limit"),
	}
	if raw := c.Query("entityId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return response.Error(c, "Invalid entityId", fiber.StatusBadRequest)
		}
		f.EntityID = &id
	}
	events, err := h.Events.List(c.UserContext(), middleware.GetCaller(c), f)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "", events)
}
