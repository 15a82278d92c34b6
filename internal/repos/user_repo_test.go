package repos_test

import (
	"testing"

	"maplecart/internal/domain"
	"maplecart/internal/repos"
)

func TestDeleteUserCascadeRestocksOpenOrders(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	users := repos.NewUserRepo(db)
	orders := repos.NewOrderRepo(db)
	prods := repos.NewProductRepo(db)

	if err := users.BindSession("sess-del", "u-alice"); err != nil {
		t.Fatal(err)
	}

	o := domain.Order{
		ID:            "ord-del-1",
		SessionID:     "sess-del",
		CustomerEmail: "alice@maplecart.test",
		Address: domain.Address{
			Name: "Alice", Line1: "12 Birch Rd", City: "College Park",
			PostalCode: "20742", Country: "US",
		},
		PaymentMethod: "card",
		SubtotalCents: 3 * 12999,
		TotalCents:    3 * 12999,
		Status:        domain.StatusPending,
		PaymentStatus: "unpaid",
	}
	items := []domain.OrderItem{{ProductID: "hp-010", Title: "Studio Headphones", Qty: 3, PriceCents: 12999}}
	if err := orders.Create(&o, items); err != nil {
		t.Fatal(err)
	}
	if qty, _ := prods.Stock("hp-010"); qty != 7 {
		t.Fatalf("want 7 after place, got %d", qty)
	}

	if err := users.DeleteUserCascade("u-alice"); err != nil {
		t.Fatal(err)
	}

	// The open order is cancelled and its stock comes back.
	got, _, err := orders.Get(o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.StatusCancelled {
		t.Fatalf("want cancelled, got %s", got.Status)
	}
	if qty, _ := prods.Stock("hp-010"); qty != 10 {
		t.Fatalf("cascade must restore stock: want 10, got %d", qty)
	}

	// User and session rows are gone; the order stays for audit.
	if _, err := users.ByID("u-alice"); err == nil {
		t.Fatal("user row should be deleted")
	}
	if _, err := users.SessionUser("sess-del"); err == nil {
		t.Fatal("session should be deleted")
	}
}

func TestDeleteUserCascadeLeavesDeliveredOrdersAlone(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	users := repos.NewUserRepo(db)
	orders := repos.NewOrderRepo(db)
	prods := repos.NewProductRepo(db)

	if err := users.BindSession("sess-del2", "u-bob"); err != nil {
		t.Fatal(err)
	}
	o := domain.Order{
		ID: "ord-del-2", SessionID: "sess-del2", CustomerEmail: "bob@maplecart.test",
		Address: domain.Address{
			Name: "Bob", Line1: "9 Oak Ave", City: "Laurel",
			PostalCode: "20707", Country: "US",
		},
		PaymentMethod: "card", SubtotalCents: 3499, TotalCents: 3499,
		Status: domain.StatusPending, PaymentStatus: "unpaid",
	}
	if err := orders.Create(&o, []domain.OrderItem{{ProductID: "kt-140", Title: "Cast Iron Skillet 10in", Qty: 1, PriceCents: 3499}}); err != nil {
		t.Fatal(err)
	}
	if err := orders.MarkDelivered(o.ID); err != nil {
		t.Fatal(err)
	}

	if err := users.DeleteUserCascade("u-bob"); err != nil {
		t.Fatal(err)
	}

	got, _, err := orders.Get(o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.StatusDelivered {
		t.Fatalf("delivered order must keep its status, got %s", got.Status)
	}
	if qty, _ := prods.Stock("kt-140"); qty != 23 {
		t.Fatalf("delivered order must not restock: want 23, got %d", qty)
	}
}
