package repos

import (
	"errors"
	"fmt"

	"maplecart/internal/domain"

	"github.com/jmoiron/sqlx"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNotCancellable    = errors.New("order cannot be cancelled")
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

// orderRow is the flat scan target; Order nests Address so sqlx can't scan it
// directly.
type orderRow struct {
	domain.Address
	ID            string             `db:"id"`
	SessionID     string             `db:"session_id"`
	UserID        string             `db:"user_id"`
	CustomerEmail string             `db:"customer_email"`
	PaymentMethod string             `db:"payment_method"`
	SubtotalCents int64              `db:"subtotal_cents"`
	ShippingCents int64              `db:"shipping_cents"`
	TaxCents      int64              `db:"tax_cents"`
	TotalCents    int64              `db:"total_cents"`
	Status        domain.OrderStatus `db:"status"`
	PaymentStatus string             `db:"payment_status"`
	IsPaid        bool               `db:"is_paid"`
	PaidAt        string             `db:"paid_at"`
	IsDelivered   bool               `db:"is_delivered"`
	DeliveredAt   string             `db:"delivered_at"`
	Tracking      string             `db:"tracking_number"`
	Carrier       string             `db:"carrier"`
	CreatedAt     string             `db:"created_at"`
	UpdatedAt     string             `db:"updated_at"`
}

func (r orderRow) toOrder() domain.Order {
	return domain.Order{
		ID: r.ID, SessionID: r.SessionID, UserID: r.UserID,
		CustomerEmail: r.CustomerEmail, Address: r.Address,
		PaymentMethod: r.PaymentMethod,
		SubtotalCents: r.SubtotalCents, ShippingCents: r.ShippingCents,
		TaxCents: r.TaxCents, TotalCents: r.TotalCents,
		Status: r.Status, PaymentStatus: r.PaymentStatus,
		IsPaid: r.IsPaid, PaidAt: r.PaidAt,
		IsDelivered: r.IsDelivered, DeliveredAt: r.DeliveredAt,
		TrackingNumber: r.Tracking, Carrier: r.Carrier,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

const orderCols = `
  o.id, o.session_id, COALESCE(s.user_id,'') AS user_id, o.customer_email,
  o.ship_name, o.ship_line1, o.ship_line2, o.ship_city, o.ship_state,
  o.ship_postal, o.ship_country, o.ship_phone, o.payment_method,
  o.subtotal_cents, o.shipping_cents, o.tax_cents, o.total_cents,
  o.status, o.payment_status, o.is_paid, COALESCE(o.paid_at,'') AS paid_at,
  o.is_delivered, COALESCE(o.delivered_at,'') AS delivered_at,
  o.tracking_number, o.carrier, o.created_at, COALESCE(o.updated_at,'') AS updated_at`

// Create persists the order, its items, and the stock decrement in a single
// transaction: either every line's stock is taken and the order exists, or
// nothing changed. The guarded UPDATE fails a line when stock is short.
func (r *OrderRepo) Create(o *domain.Order, items []domain.OrderItem) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, it := range items {
		res, err := tx.Exec(`
			UPDATE products
			SET count_in_stock = count_in_stock - ?,
			    in_stock = CASE WHEN count_in_stock - ? > 0 THEN 1 ELSE 0 END,
			    updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND active = 1 AND count_in_stock >= ?
		`, it.Qty, it.Qty, it.ProductID, it.Qty)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", ErrInsufficientStock, it.ProductID)
		}
	}

	if _, err := tx.Exec(`
	  INSERT INTO orders
	    (id, session_id, customer_email,
	     ship_name, ship_line1, ship_line2, ship_city, ship_state, ship_postal, ship_country, ship_phone,
	     payment_method, subtotal_cents, shipping_cents, tax_cents, total_cents,
	     status, payment_status, created_at)
	  VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP)
	`, o.ID, o.SessionID, o.CustomerEmail,
		o.Address.Name, o.Address.Line1, o.Address.Line2, o.Address.City, o.Address.State,
		o.Address.PostalCode, o.Address.Country, o.Address.Phone,
		o.PaymentMethod, o.SubtotalCents, o.ShippingCents, o.TaxCents, o.TotalCents,
		o.Status, o.PaymentStatus); err != nil {
		return err
	}

	for _, it := range items {
		if _, err := tx.Exec(`
		  INSERT INTO order_items(order_id, product_id, title, qty, price_cents)
		  VALUES(?,?,?,?,?)
		`, o.ID, it.ProductID, it.Title, it.Qty, it.PriceCents); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *OrderRepo) Get(orderID string) (domain.Order, []domain.OrderItem, error) {
	var row orderRow
	if err := r.db.Get(&row, `
		SELECT `+orderCols+`
		FROM orders o
		LEFT JOIN sessions s ON s.id = o.session_id
		WHERE o.id = ?
	`, orderID); err != nil {
		return domain.Order{}, nil, err
	}

	items, err := r.items(orderID)
	if err != nil {
		return domain.Order{}, nil, err
	}
	return row.toOrder(), items, nil
}

func (r *OrderRepo) GetByTracking(trackingNumber string) (domain.Order, error) {
	var row orderRow
	err := r.db.Get(&row, `
		SELECT `+orderCols+`
		FROM orders o
		LEFT JOIN sessions s ON s.id = o.session_id
		WHERE o.tracking_number = ? AND o.tracking_number != ''
	`, trackingNumber)
	if err != nil {
		return domain.Order{}, err
	}
	return row.toOrder(), nil
}

func (r *OrderRepo) items(orderID string) ([]domain.OrderItem, error) {
	var items []domain.OrderItem
	err := r.db.Select(&items, `
		SELECT order_id, product_id, title, qty, price_cents
		FROM order_items
		WHERE order_id = ?
		ORDER BY title
	`, orderID)
	return items, err
}

func (r *OrderRepo) ListLatest(limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.list(`
		SELECT `+orderCols+` FROM orders o
		LEFT JOIN sessions s ON s.id = o.session_id
		ORDER BY datetime(o.created_at) DESC LIMIT ?`, limit)
}

// ListByUser returns orders for a given user via session linkage.
func (r *OrderRepo) ListByUser(userID string) ([]domain.Order, error) {
	return r.list(`
		SELECT `+orderCols+` FROM orders o
		JOIN sessions s ON s.id = o.session_id
		WHERE s.user_id = ?
		ORDER BY datetime(o.created_at) DESC`, userID)
}

// ListBySession returns orders tied to a session id (anon or pre-login).
func (r *OrderRepo) ListBySession(sessionID string) ([]domain.Order, error) {
	return r.list(`
		SELECT `+orderCols+` FROM orders o
		LEFT JOIN sessions s ON s.id = o.session_id
		WHERE o.session_id = ?
		ORDER BY datetime(o.created_at) DESC`, sessionID)
}

func (r *OrderRepo) list(query string, args ...any) ([]domain.Order, error) {
	var rows []orderRow
	if err := r.db.Select(&rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toOrder())
	}
	return out, nil
}

func (r *OrderRepo) SetStatus(id string, status domain.OrderStatus) error {
	_, err := r.db.Exec(`UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, status, id)
	return err
}

func (r *OrderRepo) MarkDelivered(id string) error {
	_, err := r.db.Exec(`
		UPDATE orders
		SET status = ?, is_delivered = 1, delivered_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, domain.StatusDelivered, id)
	return err
}

func (r *OrderRepo) SetTracking(id, trackingNumber, carrier string) error {
	_, err := r.db.Exec(`
		UPDATE orders SET tracking_number = ?, carrier = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, trackingNumber, carrier, id)
	return err
}

// UpdateAddress rewrites the shipping address; the service layer gates this
// to unpaid pending orders.
func (r *OrderRepo) UpdateAddress(id string, a domain.Address) error {
	_, err := r.db.Exec(`
		UPDATE orders
		SET ship_name=?, ship_line1=?, ship_line2=?, ship_city=?, ship_state=?,
		    ship_postal=?, ship_country=?, ship_phone=?, updated_at=CURRENT_TIMESTAMP
		WHERE id = ?
	`, a.Name, a.Line1, a.Line2, a.City, a.State, a.PostalCode, a.Country, a.Phone, id)
	return err
}

// Cancel flips the order to cancelled and restores stock for every line, all
// in one transaction. The guarded UPDATE on orders is what makes concurrent
// cancel/deliver races safe: only one writer sees RowsAffected=1.
func (r *OrderRepo) Cancel(orderID string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
		UPDATE orders
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND is_delivered = 0 AND status NOT IN (?, ?)
	`, domain.StatusCancelled, orderID, domain.StatusCancelled, domain.StatusRefunded)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotCancellable
	}

	type line struct {
		ProductID string `db:"product_id"`
		Qty       int    `db:"qty"`
	}
	var lines []line
	if err := tx.Select(&lines, `SELECT product_id, qty FROM order_items WHERE order_id = ?`, orderID); err != nil {
		return err
	}
	for _, l := range lines {
		if _, err := tx.Exec(`
			UPDATE products
			SET count_in_stock = count_in_stock + ?, in_stock = 1, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, l.Qty, l.ProductID); err != nil {
			return err
		}
	}

	return tx.Commit()
}
