package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"maplecart/internal/domain"
	applog "maplecart/internal/log"
	"maplecart/internal/repos"
	"maplecart/internal/services"
	"maplecart/internal/validate"
)

type AdminHandler struct {
	Orders *services.OrderService
	Pay    *services.PaymentService

	OrderRepo *repos.OrderRepo
	PayRepo   *repos.PaymentRepo
	Prods     *repos.ProductRepo
	Users     *repos.UserRepo
}

// GET /admin/orders
func (h *AdminHandler) OrdersPage(c *fiber.Ctx) error {
	ords, err := h.OrderRepo.ListLatest(100)
	if err != nil {
		return fail(c, "admin.orders.list", err)
	}
	return c.JSON(ords)
}

// PUT /orders/:id/status. Transition-table enforced; delivered stamps the
// delivery flags, cancelled restores stock.
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing id"})
	}
	var req struct {
		Status         string `json:"status"`
		TrackingNumber string `json:"tracking_number"`
		Carrier        string `json:"carrier"`
	}
	if err := c.BodyParser(&req); err != nil || req.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing status"})
	}

	o, err := h.Orders.ApplyStatusUpdate(c.Context(), id, domain.OrderStatus(req.Status), req.TrackingNumber, req.Carrier)
	if err != nil {
		return fail(c, "admin.orders.update", err)
	}
	applog.Audit(c, "admin.orders.update", map[string]any{"order_id": id, "status": req.Status})
	return c.JSON(o)
}

// GET /admin/payments
func (h *AdminHandler) PaymentsPage(c *fiber.Ctx) error {
	pays, err := h.PayRepo.ListLatest(100)
	if err != nil {
		return fail(c, "admin.payments.list", err)
	}
	return c.JSON(pays)
}

// POST /admin/stock
func (h *AdminHandler) UpdateStock(c *fiber.Ctx) error {
	var req struct {
		ProductID string `json:"product_id"`
		Qty       string `json:"qty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	qty, err := strconv.Atoi(req.Qty)
	pid, okID := validate.ID(req.ProductID)
	if !okID || err != nil || qty < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}
	if err := h.Prods.UpsertStock(pid, qty); err != nil {
		return fail(c, "admin.stock.save", err)
	}
	applog.Audit(c, "admin.stock.save", map[string]any{"product": pid, "qty": qty})
	return c.JSON(fiber.Map{"ok": true})
}

// GET /admin/users lists users (excluding admins).
func (h *AdminHandler) UsersPage(c *fiber.Ctx) error {
	users, err := h.Users.List()
	if err != nil {
		return fail(c, "admin.users.list", err)
	}
	out := make([]fiber.Map, 0, len(users))
	for _, u := range users {
		out = append(out, fiber.Map{"id": u.ID, "email": u.Email, "name": u.Name, "role": u.Role})
	}
	return c.JSON(out)
}

// DELETE /admin/users/:id deletes a user and related data, cancelling their
// open orders.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing id"})
	}
	if err := h.Users.DeleteUserCascade(id); err != nil {
		return fail(c, "admin.users.delete", err)
	}
	applog.Audit(c, "admin.users.delete", map[string]any{"user_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}
