package metals

import (
	"strconv"

	ratesvc "metallix-backend/internal/application/rates"
	"metallix-backend/internal/middleware"
	"metallix-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *ratesvc.Service
}

// List GET /api/metals: active metals with recent rate history.
func (h *Handlers) List(c *fiber.Ctx) error {
	limit, err := queryLimit(c)
	if err != nil {
		return response.Error(c, "historyLimit must be a positive integer", fiber.StatusBadRequest)
	}
	metals, err := h.Service.ListMetals(c.UserContext(), limit)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "", metals)
}

// History GET /api/metals/:id/history: rate history of one metal, newest first.
func (h *Handlers) History(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid metal id", fiber.StatusBadRequest)
	}
	limit, err := queryLimit(c)
	if err != nil {
		return response.Error(c, "limit must be a positive integer", fiber.StatusBadRequest)
	}
	if _, err := h.Service.CurrentRate(c.UserContext(), id); err != nil {
		return response.FromError(c, err)
	}
	history, err := h.Service.CollectHistory(c.UserContext(), id, limit)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "", history)
}

// UpdateRates PUT /api/metals/rates: body {"rates":[{"metalId","newRate"}]}.
func (h *Handlers) UpdateRates(c *fiber.Ctx) error {
	var body struct {
		Rates []ratesvc.RateUpdate `json:"rates"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest)
	}
	entries, err := h.Service.UpdateRates(c.UserContext(), middleware.GetCaller(c), body.Rates)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Rates updated successfully", entries)
}

// queryLimit reads ?historyLimit= or ?limit=; 0 means the configured default.
func queryLimit(c *fiber.Ctx) (int, error) {
	raw := c.Query("historyLimit", c.Query("limit"))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fiber.ErrBadRequest
	}
	return n, nil
}
