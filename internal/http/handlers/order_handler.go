package handlers

import (
	"github.com/gofiber/fiber/v2"

	"maplecart/internal/domain"
	applog "maplecart/internal/log"
	"maplecart/internal/services"
	"maplecart/internal/validate"
)

type OrderHandler struct {
	Order *services.OrderService
	Auth  *services.AuthService
}

type placeOrderReq struct {
	Items         []services.PlaceItem `json:"items"`
	Email         string               `json:"email"`
	Address       domain.Address       `json:"shipping_address"`
	PaymentMethod string               `json:"payment_method"`
	FromCart      bool                 `json:"from_cart"`
}

// Place creates an order; stock is reserved in the same transaction.
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	caller := callerFrom(c, h.Auth)

	var req placeOrderReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	email, ok := validate.Email(req.Email)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "email"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid email"})
	}
	if _, ok := validate.PostalCode(req.Address.PostalCode); !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "postal_code"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid postal code"})
	}
	country, ok := validate.Country(req.Address.Country)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "country"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid country"})
	}
	req.Address.Country = country

	var (
		o   domain.Order
		err error
	)
	if req.FromCart {
		o, err = h.Order.PlaceFromCart(caller, email, req.Address, req.PaymentMethod)
	} else {
		o, err = h.Order.Place(caller, email, req.Items, req.Address, req.PaymentMethod)
	}
	if err != nil {
		return fail(c, "order.place.fail", err)
	}

	applog.Audit(c, "order.place", map[string]any{"order_id": o.ID, "total_cents": o.TotalCents})
	return c.Status(fiber.StatusCreated).JSON(o)
}

func (h *OrderHandler) Get(c *fiber.Ctx) error {
	oid, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}
	o, items, err := h.Order.Get(oid, callerFrom(c, h.Auth))
	if err != nil {
		return fail(c, "order.get", err)
	}
	return c.JSON(fiber.Map{"order": o, "items": items})
}

// Update rewrites the shipping address while the order is still pending.
func (h *OrderHandler) Update(c *fiber.Ctx) error {
	oid, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}
	var req struct {
		Address domain.Address `json:"shipping_address"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	o, err := h.Order.UpdateAddress(oid, callerFrom(c, h.Auth), req.Address)
	if err != nil {
		return fail(c, "order.update", err)
	}
	applog.Audit(c, "order.update", map[string]any{"order_id": o.ID})
	return c.JSON(o)
}

// Cancel is the only transition that restores stock.
func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	oid, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}
	o, err := h.Order.Cancel(c.Context(), oid, callerFrom(c, h.Auth))
	if err != nil {
		return fail(c, "order.cancel", err)
	}
	applog.Audit(c, "order.cancel", map[string]any{"order_id": o.ID})
	return c.JSON(o)
}

// History lists orders for the current session/user.
func (h *OrderHandler) History(c *fiber.Ctx) error {
	orders, err := h.Order.History(callerFrom(c, h.Auth))
	if err != nil {
		return fail(c, "orders.history", err)
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return c.JSON(orders)
}
