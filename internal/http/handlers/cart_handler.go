package handlers

import (
	"github.com/gofiber/fiber/v2"

	"maplecart/internal/services"
	"maplecart/internal/validate"
)

type CartHandler struct {
	Cart *services.CartService
}

type cartAddReq struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	sid := ensureSID(c)
	var req cartAddReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	id, ok := validate.ID(req.ProductID)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing product_id"})
	}
	if req.Qty < 1 {
		req.Qty = 1
	}
	if req.Qty > 50 {
		req.Qty = 50
	}
	if err := h.Cart.Add(sid, id, req.Qty); err != nil {
		return fail(c, "cart.add", err)
	}
	cv, err := h.Cart.View(sid)
	if err != nil {
		return fail(c, "cart.view", err)
	}
	return c.JSON(cv)
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	sid := ensureSID(c)
	id, ok := validate.ID(c.Params("productId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product id"})
	}
	if err := h.Cart.Remove(sid, id); err != nil {
		return fail(c, "cart.remove", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	sid := ensureSID(c)
	cv, err := h.Cart.View(sid)
	if err != nil {
		return fail(c, "cart.view", err)
	}
	return c.JSON(cv)
}
