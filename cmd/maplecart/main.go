package main

import (
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"maplecart/internal/cache"
	"maplecart/internal/config"
	"maplecart/internal/gateway"
	"maplecart/internal/http/handlers"
	applog "maplecart/internal/log"
	"maplecart/internal/repos"
	"maplecart/internal/services"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	// External clients built once at startup and passed down; no package
	// singletons.
	gw := gateway.NewHTTPClient(cfg.GatewayURL, cfg.GatewaySecret)
	cch := cache.New(cfg.RedisAddr)

	// Auth wiring
	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo}
	authH := &handlers.AuthHandler{Auth: authSvc}

	engine := html.New("./web/templates", ".html")

	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			// Avoid leaking internals
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Something went wrong. Please try again.",
			})
		},
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			// The gateway retries webhooks on its own schedule; never
			// throttle it.
			return c.Path() == "/api/v1/payments/webhook"
		},
	}))

	// ---------- App handlers ----------
	deps := handlers.NewDeps(db, cfg, authSvc, gw, cch)

	api := app.Group("/api/v1")

	// Catalog
	api.Get("/categories", deps.CategoryHandler.List)
	api.Get("/categories/:id/products", deps.CategoryHandler.Products)
	api.Get("/products", deps.ProductHandler.List)
	api.Get("/products/:id", deps.ProductHandler.Detail)
	api.Get("/availability", limiter.New(limiter.Config{
		Max:        15,
		Expiration: 30 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|avail"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.availability.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}), deps.ProductHandler.Availability)

	// Cart & wishlist
	api.Get("/cart", deps.CartHandler.View)
	api.Post("/cart", deps.CartHandler.Add)
	api.Delete("/cart/:productId", deps.CartHandler.Remove)
	api.Get("/wishlist", deps.WishlistHandler.List)
	api.Post("/wishlist", deps.WishlistHandler.Save)
	api.Delete("/wishlist/:productId", deps.WishlistHandler.Unsave)

	// Orders
	api.Post("/orders", deps.OrderHandler.Place)
	api.Get("/orders", deps.OrderHandler.History)
	api.Get("/orders/:id", deps.OrderHandler.Get)
	api.Put("/orders/:id", deps.OrderHandler.Update)
	api.Put("/orders/:id/cancel", deps.OrderHandler.Cancel)
	api.Put("/orders/:id/status", handlers.RequireAdmin(authSvc), deps.AdminHandler.UpdateOrderStatus)

	// Payments
	api.Post("/payments/initialize", deps.PaymentHandler.Initialize)
	api.Post("/payments/verify/:reference", deps.PaymentHandler.Verify)
	api.Post("/payments/webhook", deps.PaymentHandler.Webhook)
	api.Post("/payments/:id/refund", handlers.RequireAdmin(authSvc), deps.PaymentHandler.Refund)

	// Public tracking (redacted)
	api.Get("/tracking/:trackingNumber", deps.TrackingHandler.Get)

	// Auth (login throttled)
	api.Post("/auth/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts"})
		},
	}), authH.Login)
	api.Post("/auth/logout", authH.Logout)

	// Buyer-facing pages the gateway redirects back to
	app.Get("/payments/callback", deps.PaymentHandler.Callback)

	// Admin back-office
	admin := app.Group("/admin", handlers.RequireAdmin(authSvc))
	admin.Get("/orders", deps.AdminHandler.OrdersPage)
	admin.Get("/payments", deps.AdminHandler.PaymentsPage)
	admin.Post("/stock", deps.AdminHandler.UpdateStock)
	admin.Get("/users", deps.AdminHandler.UsersPage)
	admin.Delete("/users/:id", deps.AdminHandler.DeleteUser)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Page not found"})
	})

	// Graceful shutdown: let in-flight webhook/verify writes finish
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Println("[shutdown] draining connections")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Printf("[shutdown] listener closed: %v", err)
	}
	_ = cch.Close()
	_ = db.Close()
}
