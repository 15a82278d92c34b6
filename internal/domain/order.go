package domain

// Address is the shipping address captured on an order.
type Address struct {
	Name       string `db:"ship_name" json:"name"`
	Line1      string `db:"ship_line1" json:"line1"`
	Line2      string `db:"ship_line2" json:"line2,omitempty"`
	City       string `db:"ship_city" json:"city"`
	State      string `db:"ship_state" json:"state,omitempty"`
	PostalCode string `db:"ship_postal" json:"postal_code"`
	Country    string `db:"ship_country" json:"country"`
	Phone      string `db:"ship_phone" json:"phone,omitempty"`
}

type Order struct {
	ID            string `db:"id" json:"id"`
	SessionID     string `db:"session_id" json:"-"`
	UserID        string `db:"user_id" json:"user_id,omitempty"`
	CustomerEmail string `db:"customer_email" json:"customer_email"`

	Address Address `json:"shipping_address"`

	PaymentMethod string `db:"payment_method" json:"payment_method"`

	// All amounts are minor currency units.
	SubtotalCents int64 `db:"subtotal_cents" json:"subtotal_cents"`
	ShippingCents int64 `db:"shipping_cents" json:"shipping_cents"`
	TaxCents      int64 `db:"tax_cents" json:"tax_cents"`
	TotalCents    int64 `db:"total_cents" json:"total_cents"`

	Status        OrderStatus `db:"status" json:"status"`
	PaymentStatus string      `db:"payment_status" json:"payment_status"` // unpaid|paid|failed|refunded
	IsPaid        bool        `db:"is_paid" json:"is_paid"`
	PaidAt        string      `db:"paid_at" json:"paid_at,omitempty"`
	IsDelivered   bool        `db:"is_delivered" json:"is_delivered"`
	DeliveredAt   string      `db:"delivered_at" json:"delivered_at,omitempty"`

	TrackingNumber string `db:"tracking_number" json:"tracking_number,omitempty"`
	Carrier        string `db:"carrier" json:"carrier,omitempty"`

	CreatedAt string `db:"created_at" json:"created_at"`
	UpdatedAt string `db:"updated_at" json:"updated_at,omitempty"`
}

// OrderItem is a line item with the price snapshotted at purchase time.
type OrderItem struct {
	OrderID    string `db:"order_id" json:"-"`
	ProductID  string `db:"product_id" json:"product_id"`
	Title      string `db:"title" json:"title"`
	Qty        int    `db:"qty" json:"qty"`
	PriceCents int64  `db:"price_cents" json:"price_cents"`
}
