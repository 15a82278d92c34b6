package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"maplecart/internal/gateway"
	applog "maplecart/internal/log"
	"maplecart/internal/repos"
	"maplecart/internal/services"
)

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if u := c.Locals("user"); u != nil {
		data["User"] = u
	}
	return c.Render(tmpl, data)
}

// fail maps service errors onto the HTTP status taxonomy and logs once at
// the boundary.
func fail(c *fiber.Ctx, action string, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrBadSignature):
		status = fiber.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		status = fiber.StatusForbidden
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrBadTransition),
		errors.Is(err, services.ErrDelivered),
		errors.Is(err, services.ErrAlreadyPaid),
		errors.Is(err, services.ErrNotRefundable),
		errors.Is(err, repos.ErrInsufficientStock),
		errors.Is(err, repos.ErrNotCancellable):
		status = fiber.StatusBadRequest
	case errors.Is(err, gateway.ErrGateway):
		// upstream failure surfaced with message passthrough
		status = fiber.StatusInternalServerError
	}

	if status >= 500 {
		applog.Error(c, action, err, nil)
	} else {
		applog.Security(c, action, map[string]any{"error": err.Error()})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
