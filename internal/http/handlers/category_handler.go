package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	applog "maplecart/internal/log"
	"maplecart/internal/services"
	"maplecart/internal/validate"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
}

func (h *CategoryHandler) List(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories()
	if err != nil {
		return fail(c, "categories.list", err)
	}
	return c.JSON(cats)
}

func (h *CategoryHandler) Products(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "category"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid category id"})
	}
	page, _ := strconv.Atoi(c.Query("page", "1"))
	prods, err := h.Catalog.ListProductsByCategory(id, page, 12)
	if err != nil {
		return fail(c, "categories.products", err)
	}
	return c.JSON(prods)
}
