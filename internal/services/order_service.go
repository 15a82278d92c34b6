package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"maplecart/internal/cache"
	"maplecart/internal/domain"
	"maplecart/internal/repos"

	"github.com/google/uuid"
)

// Caller identifies who is asking: the anonymous session and, when logged
// in, the user. Ownership checks accept either.
type Caller struct {
	SessionID string
	User      *domain.User
}

func (c Caller) owns(o *domain.Order) bool {
	if c.SessionID != "" && c.SessionID == o.SessionID {
		return true
	}
	if c.User != nil && c.User.ID != "" && c.User.ID == o.UserID {
		return true
	}
	return c.User.IsAdmin()
}

type PlaceItem struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type OrderService struct {
	Orders *repos.OrderRepo
	Prods  *repos.ProductRepo
	Carts  *repos.CartRepo
	Cache  *cache.Cache

	ShippingCents int64
	TaxBasisPts   int64
}

func NewOrderService(orders *repos.OrderRepo, prods *repos.ProductRepo, carts *repos.CartRepo, c *cache.Cache, shippingCents, taxBasisPts int64) *OrderService {
	return &OrderService{Orders: orders, Prods: prods, Carts: carts, Cache: c,
		ShippingCents: shippingCents, TaxBasisPts: taxBasisPts}
}

// Place creates an order from explicit items. Prices are snapshotted
// server-side from the catalog; stock is taken in the same transaction that
// inserts the order, so a failed line leaves nothing decremented.
func (s *OrderService) Place(caller Caller, email string, items []PlaceItem, addr domain.Address, method string) (domain.Order, error) {
	if len(items) == 0 {
		return domain.Order{}, fmt.Errorf("%w: empty item list", ErrValidation)
	}
	if addr.Line1 == "" || addr.City == "" || addr.PostalCode == "" || addr.Country == "" {
		return domain.Order{}, fmt.Errorf("%w: incomplete shipping address", ErrValidation)
	}
	if method == "" {
		method = "card"
	}

	var lines []domain.OrderItem
	var subtotal int64
	for _, it := range items {
		if it.Qty < 1 {
			return domain.Order{}, fmt.Errorf("%w: qty must be >= 1", ErrValidation)
		}
		p, err := s.Prods.Get(it.ProductID)
		if err != nil {
			if err == sql.ErrNoRows {
				return domain.Order{}, fmt.Errorf("%w: product %s", ErrNotFound, it.ProductID)
			}
			return domain.Order{}, err
		}
		if !p.Active {
			return domain.Order{}, fmt.Errorf("%w: product %s unavailable", ErrValidation, it.ProductID)
		}
		lines = append(lines, domain.OrderItem{
			ProductID:  p.ID,
			Title:      p.Title,
			Qty:        it.Qty,
			PriceCents: p.PriceCents,
		})
		subtotal += p.PriceCents * int64(it.Qty)
	}

	tax := subtotal * s.TaxBasisPts / 10000
	o := domain.Order{
		ID:            uuid.NewString(),
		SessionID:     caller.SessionID,
		CustomerEmail: email,
		Address:       addr,
		PaymentMethod: method,
		SubtotalCents: subtotal,
		ShippingCents: s.ShippingCents,
		TaxCents:      tax,
		TotalCents:    subtotal + s.ShippingCents + tax,
		Status:        domain.StatusPending,
		PaymentStatus: "unpaid",
	}

	if err := s.Orders.Create(&o, lines); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

// PlaceFromCart places the order from the session cart and clears it.
func (s *OrderService) PlaceFromCart(caller Caller, email string, addr domain.Address, method string) (domain.Order, error) {
	cartID, err := s.Carts.EnsureCart(caller.SessionID)
	if err != nil {
		return domain.Order{}, err
	}
	cartItems, err := s.Carts.Items(cartID)
	if err != nil {
		return domain.Order{}, err
	}
	items := make([]PlaceItem, 0, len(cartItems))
	for _, ci := range cartItems {
		items = append(items, PlaceItem{ProductID: ci.ProductID, Qty: ci.Qty})
	}
	o, err := s.Place(caller, email, items, addr, method)
	if err != nil {
		return domain.Order{}, err
	}
	_ = s.Carts.Clear(cartID)
	return o, nil
}

func (s *OrderService) Get(orderID string, caller Caller) (domain.Order, []domain.OrderItem, error) {
	o, items, err := s.Orders.Get(orderID)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Order{}, nil, ErrNotFound
		}
		return domain.Order{}, nil, err
	}
	if !caller.owns(&o) {
		return domain.Order{}, nil, ErrForbidden
	}
	return o, items, nil
}

func (s *OrderService) History(caller Caller) ([]domain.Order, error) {
	if caller.User != nil {
		if orders, err := s.Orders.ListByUser(caller.User.ID); err != nil {
			return nil, err
		} else if len(orders) > 0 {
			return orders, nil
		}
	}
	if caller.SessionID == "" {
		return nil, nil
	}
	return s.Orders.ListBySession(caller.SessionID)
}

// UpdateAddress rewrites the shipping address; only allowed while the order
// is still pending and unpaid.
func (s *OrderService) UpdateAddress(orderID string, caller Caller, addr domain.Address) (domain.Order, error) {
	o, _, err := s.Get(orderID, caller)
	if err != nil {
		return domain.Order{}, err
	}
	if o.IsPaid || o.Status != domain.StatusPending {
		return domain.Order{}, fmt.Errorf("%w: address is locked after payment", ErrValidation)
	}
	if addr.Line1 == "" || addr.City == "" || addr.PostalCode == "" || addr.Country == "" {
		return domain.Order{}, fmt.Errorf("%w: incomplete shipping address", ErrValidation)
	}
	if err := s.Orders.UpdateAddress(orderID, addr); err != nil {
		return domain.Order{}, err
	}
	o.Address = addr
	return o, nil
}

// SetStatus is the admin transition path, gated by the transition table.
// Cancellation routes through Cancel so stock comes back; delivered also
// stamps the delivery flags.
func (s *OrderService) SetStatus(ctx context.Context, orderID string, to domain.OrderStatus) (domain.Order, error) {
	if !domain.ValidStatus(to) {
		return domain.Order{}, fmt.Errorf("%w: unknown status %q", ErrValidation, to)
	}
	o, _, err := s.Orders.Get(orderID)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Order{}, ErrNotFound
		}
		return domain.Order{}, err
	}
	if !domain.CanTransition(o.Status, to) {
		return domain.Order{}, fmt.Errorf("%w: %s -> %s", ErrBadTransition, o.Status, to)
	}
	if to == domain.StatusShipped && o.TrackingNumber == "" {
		return domain.Order{}, fmt.Errorf("%w: tracking number required before shipping", ErrValidation)
	}

	switch to {
	case domain.StatusCancelled:
		if err := s.Orders.Cancel(orderID); err != nil {
			return domain.Order{}, err
		}
	case domain.StatusDelivered:
		if err := s.Orders.MarkDelivered(orderID); err != nil {
			return domain.Order{}, err
		}
	default:
		if err := s.Orders.SetStatus(orderID, to); err != nil {
			return domain.Order{}, err
		}
	}

	s.invalidateTracking(ctx, o.TrackingNumber)
	o, _, err = s.Orders.Get(orderID)
	return o, err
}

// ApplyStatusUpdate handles the admin's combined request: optional tracking
// info plus the new status. The transition is validated before tracking is
// written, so a rejected update leaves nothing behind.
func (s *OrderService) ApplyStatusUpdate(ctx context.Context, orderID string, to domain.OrderStatus, trackingNumber, carrier string) (domain.Order, error) {
	if !domain.ValidStatus(to) {
		return domain.Order{}, fmt.Errorf("%w: unknown status %q", ErrValidation, to)
	}
	o, _, err := s.Orders.Get(orderID)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Order{}, ErrNotFound
		}
		return domain.Order{}, err
	}
	if !domain.CanTransition(o.Status, to) {
		return domain.Order{}, fmt.Errorf("%w: %s -> %s", ErrBadTransition, o.Status, to)
	}
	if trackingNumber != "" {
		if _, err := s.SetTracking(ctx, orderID, trackingNumber, carrier); err != nil {
			return domain.Order{}, err
		}
	}
	return s.SetStatus(ctx, orderID, to)
}

func (s *OrderService) SetTracking(ctx context.Context, orderID, trackingNumber, carrier string) (domain.Order, error) {
	o, _, err := s.Orders.Get(orderID)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Order{}, ErrNotFound
		}
		return domain.Order{}, err
	}
	if err := s.Orders.SetTracking(orderID, trackingNumber, carrier); err != nil {
		return domain.Order{}, err
	}
	s.invalidateTracking(ctx, o.TrackingNumber)
	o, _, err = s.Orders.Get(orderID)
	return o, err
}

// Cancel releases the order's stock and marks it cancelled. This is the ONLY
// path that restores stock: a failed or abandoned payment keeps the
// reservation so the buyer can retry payment without losing their items.
// Delivered orders are never cancellable.
func (s *OrderService) Cancel(ctx context.Context, orderID string, caller Caller) (domain.Order, error) {
	o, _, err := s.Get(orderID, caller)
	if err != nil {
		return domain.Order{}, err
	}
	if o.IsDelivered {
		return domain.Order{}, ErrDelivered
	}
	// Owners can back out before fulfillment starts; later stages need admin.
	if !caller.User.IsAdmin() {
		switch o.Status {
		case domain.StatusPending, domain.StatusConfirmed, domain.StatusProcessing:
		default:
			return domain.Order{}, fmt.Errorf("%w: order already %s", ErrValidation, o.Status)
		}
	}
	if err := s.Orders.Cancel(orderID); err != nil {
		if errors.Is(err, repos.ErrNotCancellable) {
			return domain.Order{}, fmt.Errorf("%w: order is %s", ErrValidation, o.Status)
		}
		return domain.Order{}, err
	}
	s.invalidateTracking(ctx, o.TrackingNumber)
	o, _, err = s.Orders.Get(orderID)
	return o, err
}

// TrackingView is the public shape: address redacted to city/country.
type TrackingView struct {
	TrackingNumber string             `json:"tracking_number"`
	Carrier        string             `json:"carrier"`
	Status         domain.OrderStatus `json:"status"`
	City           string             `json:"city"`
	Country        string             `json:"country"`
	IsDelivered    bool               `json:"is_delivered"`
	DeliveredAt    string             `json:"delivered_at,omitempty"`
}

const trackingTTL = 60 * time.Second

// Track serves the public tracking endpoint through the short-TTL cache.
func (s *OrderService) Track(ctx context.Context, trackingNumber string) (TrackingView, error) {
	key := "tracking:" + trackingNumber
	var tv TrackingView
	if s.Cache.GetJSON(ctx, key, &tv) {
		return tv, nil
	}

	o, err := s.Orders.GetByTracking(trackingNumber)
	if err != nil {
		if err == sql.ErrNoRows {
			return TrackingView{}, ErrNotFound
		}
		return TrackingView{}, err
	}
	tv = TrackingView{
		TrackingNumber: o.TrackingNumber,
		Carrier:        o.Carrier,
		Status:         o.Status,
		City:           o.Address.City,
		Country:        o.Address.Country,
		IsDelivered:    o.IsDelivered,
		DeliveredAt:    o.DeliveredAt,
	}
	s.Cache.SetJSON(ctx, key, tv, trackingTTL)
	return tv, nil
}

func (s *OrderService) invalidateTracking(ctx context.Context, trackingNumber string) {
	if trackingNumber != "" {
		s.Cache.Delete(ctx, "tracking:"+trackingNumber)
	}
}
