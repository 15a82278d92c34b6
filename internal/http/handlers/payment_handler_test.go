package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"maplecart/internal/cache"
	"maplecart/internal/config"
	"maplecart/internal/domain"
	"maplecart/internal/gateway"
	"maplecart/internal/http/handlers"
	"maplecart/internal/repos"
	"maplecart/internal/services"
)

const testSecret = "whsec_test"

type fakeGateway struct{}

func (fakeGateway) Initialize(_ context.Context, req gateway.InitializeRequest) (*gateway.Session, error) {
	return &gateway.Session{
		AuthorizationURL: "https://pay.test/" + req.Reference,
		AccessCode:       "ac_test",
		Reference:        req.Reference,
	}, nil
}

func (fakeGateway) Verify(_ context.Context, reference string) (*gateway.Transaction, error) {
	return &gateway.Transaction{Reference: reference, Status: "pending"}, nil
}

func (fakeGateway) Refund(_ context.Context, reference string, _ int64, _ string) (*gateway.Refund, error) {
	return &gateway.Refund{Reference: reference, RefundReference: "rf_test", Status: "processing"}, nil
}

type webhookFixture struct {
	app      *fiber.App
	payments *repos.PaymentRepo
	orders   *repos.OrderRepo
	orderID  string
	ref      string
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Config{
		GatewaySecret:   testSecret,
		GatewayCallback: "https://shop.test/payments/callback",
		Currency:        "USD",
		PaymentWindow:   10 * time.Minute,
		ShippingCents:   500,
		TaxBasisPts:     600,
	}
	auth := &services.AuthService{Users: repos.NewUserRepo(db)}
	deps := handlers.NewDeps(db, cfg, auth, fakeGateway{}, cache.New(""))

	app := fiber.New()
	api := app.Group("/api/v1")
	api.Post("/payments/initialize", deps.PaymentHandler.Initialize)
	api.Post("/payments/webhook", deps.PaymentHandler.Webhook)
	api.Post("/payments/:id/refund", handlers.RequireAdmin(auth), deps.PaymentHandler.Refund)

	// Seed one order with an open payment session the webhook can settle.
	orderRepo := repos.NewOrderRepo(db)
	payRepo := repos.NewPaymentRepo(db)
	orderSvc := services.NewOrderService(orderRepo, repos.NewProductRepo(db), repos.NewCartRepo(db), cache.New(""), 500, 600)
	caller := services.Caller{SessionID: "sess-http"}
	o, err := orderSvc.Place(caller, "alice@maplecart.test", []services.PlaceItem{
		{ProductID: "hp-010", Qty: 1},
	}, domain.Address{
		Name: "Alice", Line1: "12 Birch Rd", City: "College Park",
		State: "MD", PostalCode: "20742", Country: "US",
	}, "card")
	if err != nil {
		t.Fatal(err)
	}
	paySvc := services.NewPaymentService(payRepo, orderRepo, fakeGateway{},
		testSecret, cfg.GatewayCallback, "USD", cfg.PaymentWindow)
	res, err := paySvc.Initialize(context.Background(), o.ID, caller, "")
	if err != nil {
		t.Fatal(err)
	}
	return &webhookFixture{app: app, payments: payRepo, orders: orderRepo, orderID: o.ID, ref: res.Reference}
}

func (fx *webhookFixture) chargeSuccessBody(t *testing.T, eventID string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"id":    eventID,
		"event": gateway.EventChargeSuccess,
		"data": map[string]any{
			"reference":  fx.ref,
			"channel":    "card",
			"card_last4": "4242",
			"fees":       150,
			"paid_at":    "2026-03-01T12:00:00Z",
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func postWebhook(t *testing.T, app *fiber.App, body []byte, signature string) int {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/v1/payments/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(gateway.SignatureHeader, signature)
	}
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestWebhookEndpointRejectsBadSignature(t *testing.T) {
	fx := newWebhookFixture(t)
	body := fx.chargeSuccessBody(t, "evt_http_1")

	if code := postWebhook(t, fx.app, body, "deadbeef"); code != fiber.StatusUnauthorized {
		t.Fatalf("tampered signature: want 401, got %d", code)
	}
	if code := postWebhook(t, fx.app, body, ""); code != fiber.StatusUnauthorized {
		t.Fatalf("missing signature: want 401, got %d", code)
	}

	p, err := fx.payments.ByReference(fx.ref)
	if err != nil {
		t.Fatal(err)
	}
	if p.Status != domain.PaymentPending {
		t.Fatalf("rejected webhook must not settle anything: %+v", p)
	}
	o, _, _ := fx.orders.Get(fx.orderID)
	if o.IsPaid {
		t.Fatalf("rejected webhook must not mark the order paid: %+v", o)
	}
}

func TestWebhookEndpointSettlesOnce(t *testing.T) {
	fx := newWebhookFixture(t)
	body := fx.chargeSuccessBody(t, "evt_http_2")
	sig := gateway.Signature(testSecret, body)

	if code := postWebhook(t, fx.app, body, sig); code != fiber.StatusOK {
		t.Fatalf("valid webhook: want 200, got %d", code)
	}
	// Redelivery acknowledges without re-applying.
	if code := postWebhook(t, fx.app, body, sig); code != fiber.StatusOK {
		t.Fatalf("redelivered webhook: want 200, got %d", code)
	}

	p, err := fx.payments.ByReference(fx.ref)
	if err != nil {
		t.Fatal(err)
	}
	if p.Status != domain.PaymentSuccess || p.CardLast4 != "4242" {
		t.Fatalf("payment not settled: %+v", p)
	}
	o, _, _ := fx.orders.Get(fx.orderID)
	if !o.IsPaid || o.Status != domain.StatusProcessing || o.PaymentStatus != "paid" {
		t.Fatalf("order not settled: %+v", o)
	}
}

func TestRefundEndpointRequiresAdmin(t *testing.T) {
	fx := newWebhookFixture(t)

	req := httptest.NewRequest("POST", "/api/v1/payments/pm-1/refund", nil)
	resp, err := fx.app.Test(req, 5000)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("no session: want 401, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest("POST", "/api/v1/payments/pm-1/refund", nil)
	req.Header.Set("Cookie", "sid=sess-nobody")
	resp, err = fx.app.Test(req, 5000)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("non-admin session: want 403, got %d", resp.StatusCode)
	}
}
