package payments

import (
	paymentsvc "metallix-backend/internal/application/payments"
	"metallix-backend/internal/middleware"
	"metallix-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *paymentsvc.Service
}

// Mine GET /api/payments/my-payments.
func (h *Handlers) Mine(c *fiber.Ctx) error {
	caller := middleware.GetCaller(c)
	list, err := h.Service.ListPayments(c.UserContext(), caller, paymentsvc.Filter{OwnerUserID: &caller.UserID})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "", list)
}

// All GET /api/payments (admin). Optional ?userId= narrows to one owner.
func (h *Handlers) All(c *fiber.Ctx) error {
	var f paymentsvc.Filter
	if raw := c.Query("userId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return response.Error(c, "Invalid userId", fiber.StatusBadRequest)
		}
		f.OwnerUserID = &id
	}
	list, err := h.Service.ListPayments(c.UserContext(), middleware.GetCaller(c), f)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "", list)
}

// Get GET /api/payments/:id: own payment, or any payment for admins.
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid payment id", fiber.StatusBadRequest)
	}
	p, err := h.Service.GetPayment(c.UserContext(), middleware.GetCaller(c), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "", p)
}

// UpdateStatus PUT /api/payments/:id/status (admin): body {"status","transactionId"}.
func (h *Handlers) UpdateStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid payment id", fiber.StatusBadRequest)
	}
	var in paymentsvc.UpdateStatusInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest)
	}
	p, err := h.Service.UpdateStatus(c.UserContext(), middleware.GetCaller(c), id, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Payment status updated successfully", p)
}
