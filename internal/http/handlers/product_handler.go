package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "maplecart/internal/log"
	"maplecart/internal/services"
	"maplecart/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

// List serves both browsing and search: q/category/brand are all optional.
func (h *ProductHandler) List(c *fiber.Ctx) error {
	q := strings.TrimSpace(c.Query("q"))
	if q != "" {
		var ok bool
		if q, ok = validate.Q(q); !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": "q"})
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid query"})
		}
		q = strings.ToLower(q)
	}
	page, _ := strconv.Atoi(c.Query("page", "1"))
	prods, err := h.Catalog.Search(q, c.Query("category"), c.Query("brand"), page, 12)
	if err != nil {
		return fail(c, "products.list", err)
	}
	return c.JSON(prods)
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "product"})
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
	}
	p, err := h.Catalog.GetProduct(id)
	if err != nil || p.ID == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
	}
	return c.JSON(p)
}

func (h *ProductHandler) Availability(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Query("productId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing productId"})
	}
	avail, err := h.Catalog.CheckAvailability(id)
	if err != nil {
		return fail(c, "products.availability", err)
	}
	return c.JSON(avail)
}
