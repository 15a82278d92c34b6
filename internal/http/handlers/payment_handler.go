package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"maplecart/internal/gateway"
	applog "maplecart/internal/log"
	"maplecart/internal/services"
	"maplecart/internal/validate"
)

type PaymentHandler struct {
	Pay  *services.PaymentService
	Auth *services.AuthService
}

type initPaymentReq struct {
	OrderID string `json:"order_id"`
	Email   string `json:"email"`
}

// Initialize creates or reuses a hosted payment session for an order.
func (h *PaymentHandler) Initialize(c *fiber.Ctx) error {
	var req initPaymentReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	oid, ok := validate.ID(req.OrderID)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing order_id"})
	}
	if req.Email != "" {
		if _, ok := validate.Email(req.Email); !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid email"})
		}
	}

	res, err := h.Pay.Initialize(c.Context(), oid, callerFrom(c, h.Auth), req.Email)
	if err != nil {
		return fail(c, "payment.initialize", err)
	}
	applog.Audit(c, "payment.initialize", map[string]any{
		"order_id": oid, "reference": res.Reference, "reused": res.Reused,
	})
	return c.JSON(res)
}

// Verify is the client-driven reconciliation call after the buyer returns
// from the hosted page.
func (h *PaymentHandler) Verify(c *fiber.Ctx) error {
	ref, ok := validate.Reference(c.Params("reference"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid reference"})
	}
	p, err := h.Pay.Verify(c.Context(), ref, callerFrom(c, h.Auth))
	if err != nil {
		return fail(c, "payment.verify", err)
	}
	applog.Audit(c, "payment.verify", map[string]any{"reference": ref, "status": p.Status})
	return c.JSON(p)
}

// Webhook receives gateway notifications. The raw body is what the HMAC
// covers; nothing is processed on a signature mismatch.
func (h *PaymentHandler) Webhook(c *fiber.Ctx) error {
	body := c.Body()
	err := h.Pay.HandleWebhook(body, c.Get(gateway.SignatureHeader))
	if err != nil {
		if errors.Is(err, services.ErrBadSignature) {
			applog.Security(c, "webhook.signature.reject", nil)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid signature"})
		}
		return fail(c, "webhook.process", err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// Refund is admin-only; RequireAdmin guards the route.
func (h *PaymentHandler) Refund(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payment id"})
	}
	var req struct {
		AmountCents int64  `json:"amount_cents"`
		Reason      string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	p, err := h.Pay.Refund(c.Context(), pid, req.AmountCents, req.Reason)
	if err != nil {
		return fail(c, "payment.refund", err)
	}
	applog.Audit(c, "payment.refund", map[string]any{
		"payment_id": pid, "amount_cents": req.AmountCents, "reference": p.Reference,
	})
	return c.JSON(p)
}

// Callback renders the landing page the gateway redirects the buyer to.
func (h *PaymentHandler) Callback(c *fiber.Ctx) error {
	ref, ok := validate.Reference(c.Query("reference"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).Render("payment_result", fiber.Map{
			"Message": "Missing payment reference.",
		})
	}
	p, err := h.Pay.Verify(c.Context(), ref, callerFrom(c, h.Auth))
	if err != nil {
		applog.Error(c, "payment.callback", err, map[string]any{"reference": ref})
		return render(c, "payment_result", fiber.Map{
			"Message": "We could not confirm your payment yet. Please check your orders shortly.",
		})
	}
	msg := "Payment received. Thank you!"
	if p.Status != "success" {
		msg = "Payment " + string(p.Status) + ". You can retry from your order page."
	}
	return render(c, "payment_result", fiber.Map{"Message": msg, "Payment": p})
}
