package purchases

import (
	purchasesvc "metallix-backend/internal/application/purchases"
	"metallix-backend/internal/middleware"
	"metallix-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *purchasesvc.Service
}

// Create POST /api/purchases: body {"metalId","quantity","paymentMethod"}.
func (h *Handlers) Create(c *fiber.Ctx) error {
	var in purchasesvc.CreateInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest)
	}
	p, err := h.Service.CreatePurchase(c.UserContext(), middleware.GetCaller(c), in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Purchase created successfully", p)
}

// Mine GET /api/purchases/my-purchases.
func (h *Handlers) Mine(c *fiber.Ctx) error {
	list, err := h.Service.ListPurchases(c.UserContext(), middleware.GetCaller(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "", list)
}

// Get GET /api/purchases/:id.
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid purchase id", fiber.StatusBadRequest)
	}
	p, err := h.Service.GetPurchase(c.UserContext(), middleware.GetCaller(c), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "", p)
}

// Sell POST /api/purchases/:id/sell.
func (h *Handlers) Sell(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid purchase id", fiber.StatusBadRequest)
	}
	p, err := h.Service.SellPurchase(c.UserContext(), middleware.GetCaller(c), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Metal sold successfully", p)
}
