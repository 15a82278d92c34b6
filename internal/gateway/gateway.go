// Package gateway wraps the third-party hosted payment API: session
// initialization, transaction verification, refunds, and webhook signature
// checks. Amounts are minor currency units everywhere.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// SignatureHeader carries the HMAC of the raw webhook body.
const SignatureHeader = "X-Gateway-Signature"

// Webhook event types the reconciler dispatches on. Transfer events arrive
// too but are ignored.
const (
	EventChargeSuccess   = "charge.success"
	EventChargeFailed    = "charge.failed"
	EventRefundProcessed = "refund.processed"
)

var ErrGateway = errors.New("gateway error")

type InitializeRequest struct {
	Email       string         `json:"email"`
	AmountCents int64          `json:"amount"`
	Reference   string         `json:"reference"`
	CallbackURL string         `json:"callback_url"`
	Currency    string         `json:"currency"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Session is a hosted payment page the buyer is redirected to.
type Session struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// Transaction is the gateway's view of one payment attempt.
type Transaction struct {
	Reference   string    `json:"reference"`
	Status      string    `json:"status"` // success | failed | abandoned | pending
	AmountCents int64     `json:"amount"`
	Currency    string    `json:"currency"`
	Channel     string    `json:"channel"`
	CardLast4   string    `json:"card_last4"`
	FeeCents    int64     `json:"fees"`
	PaidAt      time.Time `json:"paid_at"`
	Reason      string    `json:"gateway_response"`
}

type Refund struct {
	Reference       string `json:"reference"`
	RefundReference string `json:"refund_reference"`
	AmountCents     int64  `json:"amount"`
	Status          string `json:"status"` // processing | processed | failed
}

// Client is the adapter surface the payment service depends on; tests swap
// in a fake.
type Client interface {
	Initialize(ctx context.Context, req InitializeRequest) (*Session, error)
	Verify(ctx context.Context, reference string) (*Transaction, error)
	Refund(ctx context.Context, reference string, amountCents int64, reason string) (*Refund, error)
}

// Event is a parsed webhook notification.
type Event struct {
	ID   string    `json:"id"`
	Type string    `json:"event"`
	Data EventData `json:"data"`
}

type EventData struct {
	Reference       string    `json:"reference"`
	AmountCents     int64     `json:"amount"`
	Channel         string    `json:"channel"`
	CardLast4       string    `json:"card_last4"`
	FeeCents        int64     `json:"fees"`
	PaidAt          time.Time `json:"paid_at"`
	Reason          string    `json:"gateway_response"`
	RefundReference string    `json:"refund_reference"`
}

func ParseEvent(body []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return Event{}, err
	}
	if ev.ID == "" || ev.Type == "" {
		return Event{}, errors.New("webhook event missing id or type")
	}
	return ev, nil
}
