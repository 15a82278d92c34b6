package handlers

import (
	"github.com/gofiber/fiber/v2"

	"maplecart/internal/services"
	"maplecart/internal/validate"
)

type WishlistHandler struct {
	Wish *services.WishlistService
}

func (h *WishlistHandler) List(c *fiber.Ctx) error {
	rows, err := h.Wish.List(ensureSID(c))
	if err != nil {
		return fail(c, "wishlist.list", err)
	}
	return c.JSON(rows)
}

func (h *WishlistHandler) Save(c *fiber.Ctx) error {
	var req struct {
		ProductID string `json:"product_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	id, ok := validate.ID(req.ProductID)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing product_id"})
	}
	if err := h.Wish.Save(ensureSID(c), id); err != nil {
		return fail(c, "wishlist.save", err)
	}
	return c.SendStatus(fiber.StatusCreated)
}

func (h *WishlistHandler) Unsave(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("productId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product id"})
	}
	if err := h.Wish.Unsave(ensureSID(c), id); err != nil {
		return fail(c, "wishlist.unsave", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
