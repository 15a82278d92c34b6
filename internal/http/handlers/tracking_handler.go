package handlers

import (
	"github.com/gofiber/fiber/v2"

	"maplecart/internal/services"
	"maplecart/internal/validate"
)

type TrackingHandler struct {
	Order *services.OrderService
}

// Get is public: anyone with a tracking number sees status plus city and
// country only, never the full address.
func (h *TrackingHandler) Get(c *fiber.Ctx) error {
	tn, ok := validate.ID(c.Params("trackingNumber"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "tracking number not found"})
	}
	tv, err := h.Order.Track(c.Context(), tn)
	if err != nil {
		return fail(c, "tracking.get", err)
	}
	return c.JSON(tv)
}
