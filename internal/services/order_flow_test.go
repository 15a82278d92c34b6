package services_test

import (
	"context"
	"errors"
	"testing"

	"maplecart/internal/cache"
	"maplecart/internal/domain"
	"maplecart/internal/repos"
	"maplecart/internal/services"
)

func testAddress() domain.Address {
	return domain.Address{
		Name: "Alice", Line1: "12 Birch Rd", City: "College Park",
		State: "MD", PostalCode: "20742", Country: "US",
	}
}

func newOrderSvc(t *testing.T) (*services.OrderService, *repos.ProductRepo, *repos.OrderRepo) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	prodRepo := repos.NewProductRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	cartRepo := repos.NewCartRepo(db)
	svc := services.NewOrderService(orderRepo, prodRepo, cartRepo, cache.New(""), 500, 600)
	return svc, prodRepo, orderRepo
}

func TestPlaceDecrementsStockAtCreation(t *testing.T) {
	svc, prods, _ := newOrderSvc(t)
	caller := services.Caller{SessionID: "sess-1"}

	// 2x hp-010 (stock 10) and 1x sp-220 (stock 5)
	o, err := svc.Place(caller, "alice@maplecart.test", []services.PlaceItem{
		{ProductID: "hp-010", Qty: 2},
		{ProductID: "sp-220", Qty: 1},
	}, testAddress(), "card")
	if err != nil {
		t.Fatal(err)
	}
	if o.Status != domain.StatusPending || o.IsPaid {
		t.Fatalf("want pending/unpaid, got %s paid=%v", o.Status, o.IsPaid)
	}

	if qty, _ := prods.Stock("hp-010"); qty != 8 {
		t.Fatalf("hp-010 stock: want 8, got %d", qty)
	}
	if qty, _ := prods.Stock("sp-220"); qty != 4 {
		t.Fatalf("sp-220 stock: want 4, got %d", qty)
	}

	// Totals in minor units: 2*12999 + 24900 = 50898; tax 6% = 3053; +500 shipping
	if o.SubtotalCents != 50898 {
		t.Fatalf("subtotal: want 50898, got %d", o.SubtotalCents)
	}
	if o.TotalCents != 50898+500+3053 {
		t.Fatalf("total: want %d, got %d", 50898+500+3053, o.TotalCents)
	}
}

func TestPlaceIsAtomicOnInsufficientStock(t *testing.T) {
	svc, prods, _ := newOrderSvc(t)
	caller := services.Caller{SessionID: "sess-1"}

	// Second line exceeds stock; the first line's decrement must roll back.
	_, err := svc.Place(caller, "alice@maplecart.test", []services.PlaceItem{
		{ProductID: "hp-010", Qty: 2},
		{ProductID: "sp-220", Qty: 50},
	}, testAddress(), "card")
	if !errors.Is(err, repos.ErrInsufficientStock) {
		t.Fatalf("want ErrInsufficientStock, got %v", err)
	}

	if qty, _ := prods.Stock("hp-010"); qty != 10 {
		t.Fatalf("hp-010 stock must be untouched: want 10, got %d", qty)
	}
	if qty, _ := prods.Stock("sp-220"); qty != 5 {
		t.Fatalf("sp-220 stock must be untouched: want 5, got %d", qty)
	}
}

func TestPlaceRejectsEmptyItems(t *testing.T) {
	svc, _, _ := newOrderSvc(t)
	_, err := svc.Place(services.Caller{SessionID: "s"}, "a@b.test", nil, testAddress(), "card")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
}

func TestCancelRestoresStock(t *testing.T) {
	svc, prods, _ := newOrderSvc(t)
	caller := services.Caller{SessionID: "sess-1"}

	o, err := svc.Place(caller, "alice@maplecart.test", []services.PlaceItem{
		{ProductID: "hp-010", Qty: 3},
	}, testAddress(), "card")
	if err != nil {
		t.Fatal(err)
	}
	if qty, _ := prods.Stock("hp-010"); qty != 7 {
		t.Fatalf("want 7 after place, got %d", qty)
	}

	cancelled, err := svc.Cancel(context.Background(), o.ID, caller)
	if err != nil {
		t.Fatal(err)
	}
	if cancelled.Status != domain.StatusCancelled {
		t.Fatalf("want cancelled, got %s", cancelled.Status)
	}
	if qty, _ := prods.Stock("hp-010"); qty != 10 {
		t.Fatalf("cancel must restore stock: want 10, got %d", qty)
	}

	// Cancelling twice is rejected and must not restock again.
	if _, err := svc.Cancel(context.Background(), o.ID, caller); err == nil {
		t.Fatal("second cancel should fail")
	}
	if qty, _ := prods.Stock("hp-010"); qty != 10 {
		t.Fatalf("double cancel must not double restock: got %d", qty)
	}
}

func TestCancelRejectedWhenDelivered(t *testing.T) {
	svc, _, orderRepo := newOrderSvc(t)
	caller := services.Caller{SessionID: "sess-1"}

	o, err := svc.Place(caller, "alice@maplecart.test", []services.PlaceItem{
		{ProductID: "kt-140", Qty: 1},
	}, testAddress(), "card")
	if err != nil {
		t.Fatal(err)
	}
	if err := orderRepo.MarkDelivered(o.ID); err != nil {
		t.Fatal(err)
	}

	_, err = svc.Cancel(context.Background(), o.ID, caller)
	if !errors.Is(err, services.ErrDelivered) {
		t.Fatalf("want ErrDelivered, got %v", err)
	}
}

func TestAdminStatusTransitions(t *testing.T) {
	svc, _, _ := newOrderSvc(t)
	ctx := context.Background()
	caller := services.Caller{SessionID: "sess-1"}

	o, err := svc.Place(caller, "alice@maplecart.test", []services.PlaceItem{
		{ProductID: "kt-140", Qty: 1},
	}, testAddress(), "card")
	if err != nil {
		t.Fatal(err)
	}

	// shipped is not a legal successor of pending
	if _, err := svc.SetStatus(ctx, o.ID, domain.StatusShipped); !errors.Is(err, services.ErrBadTransition) {
		t.Fatalf("pending->shipped should be rejected, got %v", err)
	}

	if _, err := svc.SetStatus(ctx, o.ID, domain.StatusProcessing); err != nil {
		t.Fatal(err)
	}
	// Shipping without a tracking number is rejected.
	if _, err := svc.SetStatus(ctx, o.ID, domain.StatusShipped); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("shipped without tracking should be rejected, got %v", err)
	}
	if _, err := svc.SetTracking(ctx, o.ID, "TRK900001", "ups"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SetStatus(ctx, o.ID, domain.StatusShipped); err != nil {
		t.Fatal(err)
	}
	got, err := svc.SetStatus(ctx, o.ID, domain.StatusDelivered)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsDelivered || got.DeliveredAt == "" {
		t.Fatalf("delivered must stamp flags: %+v", got)
	}

	// Unknown status
	if _, err := svc.SetStatus(ctx, o.ID, "archived"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("unknown status should be rejected, got %v", err)
	}
}

func TestApplyStatusUpdateValidatesBeforeWritingTracking(t *testing.T) {
	svc, _, _ := newOrderSvc(t)
	ctx := context.Background()
	caller := services.Caller{SessionID: "sess-1"}

	o, err := svc.Place(caller, "alice@maplecart.test", []services.PlaceItem{
		{ProductID: "kt-140", Qty: 1},
	}, testAddress(), "card")
	if err != nil {
		t.Fatal(err)
	}

	// pending -> shipped is illegal; the supplied tracking number must not
	// be written on the rejected update.
	_, err = svc.ApplyStatusUpdate(ctx, o.ID, domain.StatusShipped, "TRK777777", "ups")
	if !errors.Is(err, services.ErrBadTransition) {
		t.Fatalf("want ErrBadTransition, got %v", err)
	}
	got, _, err := svc.Get(o.ID, caller)
	if err != nil {
		t.Fatal(err)
	}
	if got.TrackingNumber != "" || got.Carrier != "" {
		t.Fatalf("rejected update must leave tracking untouched: %+v", got)
	}

	if _, err := svc.ApplyStatusUpdate(ctx, o.ID, domain.StatusProcessing, "", ""); err != nil {
		t.Fatal(err)
	}
	got, err = svc.ApplyStatusUpdate(ctx, o.ID, domain.StatusShipped, "TRK777777", "ups")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.StatusShipped || got.TrackingNumber != "TRK777777" || got.Carrier != "ups" {
		t.Fatalf("combined update should apply both: %+v", got)
	}
}

func TestOwnershipChecks(t *testing.T) {
	svc, _, _ := newOrderSvc(t)
	owner := services.Caller{SessionID: "sess-owner"}

	o, err := svc.Place(owner, "alice@maplecart.test", []services.PlaceItem{
		{ProductID: "kt-140", Qty: 1},
	}, testAddress(), "card")
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := svc.Get(o.ID, services.Caller{SessionID: "someone-else"}); !errors.Is(err, services.ErrForbidden) {
		t.Fatalf("stranger must be denied, got %v", err)
	}
	if _, _, err := svc.Get(o.ID, owner); err != nil {
		t.Fatalf("owner must see the order: %v", err)
	}
	admin := services.Caller{SessionID: "sess-admin", User: &domain.User{ID: "u-admin", Role: "ADMIN"}}
	if _, _, err := svc.Get(o.ID, admin); err != nil {
		t.Fatalf("admin must see the order: %v", err)
	}
}

func TestTrackingRedaction(t *testing.T) {
	svc, _, orderRepo := newOrderSvc(t)
	ctx := context.Background()
	caller := services.Caller{SessionID: "sess-1"}

	o, err := svc.Place(caller, "alice@maplecart.test", []services.PlaceItem{
		{ProductID: "kt-140", Qty: 1},
	}, testAddress(), "card")
	if err != nil {
		t.Fatal(err)
	}
	if err := orderRepo.SetTracking(o.ID, "TRK123456", "ups"); err != nil {
		t.Fatal(err)
	}

	tv, err := svc.Track(ctx, "TRK123456")
	if err != nil {
		t.Fatal(err)
	}
	if tv.City != "College Park" || tv.Country != "US" {
		t.Fatalf("tracking view should carry city/country: %+v", tv)
	}
	if tv.Carrier != "ups" || tv.TrackingNumber != "TRK123456" {
		t.Fatalf("bad tracking view: %+v", tv)
	}

	if _, err := svc.Track(ctx, "NOPE"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("unknown tracking number: want ErrNotFound, got %v", err)
	}
}
