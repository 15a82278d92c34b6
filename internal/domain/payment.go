package domain

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentSuccess    PaymentStatus = "success"
	PaymentFailed     PaymentStatus = "failed"
	PaymentAbandoned  PaymentStatus = "abandoned"
)

// Terminal reports whether a payment can no longer change outcome.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentSuccess || s == PaymentFailed || s == PaymentAbandoned
}

type RefundStatus string

const (
	RefundNone       RefundStatus = ""
	RefundProcessing RefundStatus = "processing"
	RefundSuccess    RefundStatus = "success"
	RefundFailed     RefundStatus = "failed"
)

// Payment is one attempt to pay for an order through the hosted gateway.
// Amounts are minor currency units, matching the order they belong to.
type Payment struct {
	ID      string `db:"id" json:"id"`
	OrderID string `db:"order_id" json:"order_id"`

	Reference   string `db:"reference" json:"reference"`
	AmountCents int64  `db:"amount_cents" json:"amount_cents"`
	Currency    string `db:"currency" json:"currency"`

	Status PaymentStatus `db:"status" json:"status"`

	AccessCode       string `db:"access_code" json:"access_code,omitempty"`
	AuthorizationURL string `db:"authorization_url" json:"authorization_url,omitempty"`
	Channel          string `db:"channel" json:"channel,omitempty"`
	CardLast4        string `db:"card_last4" json:"card_last4,omitempty"`
	FeeCents         int64  `db:"fee_cents" json:"fee_cents,omitempty"`
	FailureReason    string `db:"failure_reason" json:"failure_reason,omitempty"`

	RefundStatus    RefundStatus `db:"refund_status" json:"refund_status,omitempty"`
	RefundReference string       `db:"refund_reference" json:"refund_reference,omitempty"`
	RefundReason    string       `db:"refund_reason" json:"refund_reason,omitempty"`

	PaidAt    string `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt string `db:"created_at" json:"created_at"`
	UpdatedAt string `db:"updated_at" json:"updated_at,omitempty"`
}

// CanBeRefunded gates the admin refund flow: only a captured payment that is
// not already being (or been) refunded qualifies.
func (p *Payment) CanBeRefunded() bool {
	return p.Status == PaymentSuccess &&
		p.RefundStatus != RefundProcessing &&
		p.RefundStatus != RefundSuccess
}

// WebhookEvent is one row in the processed-event ledger, keyed by the
// gateway's event id so redelivered webhooks short-circuit.
type WebhookEvent struct {
	EventID    string `db:"event_id"`
	EventType  string `db:"event_type"`
	Reference  string `db:"reference"`
	ReceivedAt string `db:"received_at"`
}
