package offers

import (
	offersvc "metallix-backend/internal/application/offers"
	"metallix-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *offersvc.Service
}

// List GET /api/offers: offers running right now.
func (h *Handlers) List(c *fiber.Ctx) error {
	list, err := h.Service.ListActive(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "", list)
}
