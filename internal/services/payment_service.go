package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"maplecart/internal/domain"
	"maplecart/internal/gateway"
	"maplecart/internal/repos"

	"github.com/google/uuid"
)

type PaymentService struct {
	Payments *repos.PaymentRepo
	Orders   *repos.OrderRepo
	Gateway  gateway.Client

	Secret      string
	CallbackURL string
	Currency    string
	Window      time.Duration // how long a pending session stays reusable
}

func NewPaymentService(payments *repos.PaymentRepo, orders *repos.OrderRepo, gw gateway.Client, secret, callbackURL, currency string, window time.Duration) *PaymentService {
	if window <= 0 {
		window = 10 * time.Minute
	}
	return &PaymentService{Payments: payments, Orders: orders, Gateway: gw,
		Secret: secret, CallbackURL: callbackURL, Currency: currency, Window: window}
}

type InitResult struct {
	Payment          domain.Payment `json:"payment"`
	AuthorizationURL string         `json:"authorization_url"`
	AccessCode       string         `json:"access_code"`
	Reference        string         `json:"reference"`
	Reused           bool           `json:"reused"`
}

// Initialize creates (or reuses) a hosted payment session for an order. An
// open payment younger than the window is returned unchanged so a buyer who
// reloads checkout lands on the same session; a stale one is marked
// abandoned and replaced.
func (s *PaymentService) Initialize(ctx context.Context, orderID string, caller Caller, emailOverride string) (InitResult, error) {
	o, _, err := s.Orders.Get(orderID)
	if err != nil {
		if err == sql.ErrNoRows {
			return InitResult{}, ErrNotFound
		}
		return InitResult{}, err
	}
	if !caller.owns(&o) {
		return InitResult{}, ErrForbidden
	}
	if o.IsPaid {
		return InitResult{}, ErrAlreadyPaid
	}
	if o.Status == domain.StatusCancelled || o.Status == domain.StatusRefunded {
		return InitResult{}, fmt.Errorf("%w: order is %s", ErrValidation, o.Status)
	}

	if open, err := s.Payments.OpenForOrder(orderID); err == nil {
		created, perr := time.Parse(time.RFC3339, normalizeTS(open.CreatedAt))
		if perr == nil && time.Since(created) < s.Window {
			return InitResult{
				Payment:          open,
				AuthorizationURL: open.AuthorizationURL,
				AccessCode:       open.AccessCode,
				Reference:        open.Reference,
				Reused:           true,
			}, nil
		}
		if err := s.Payments.MarkAbandoned(open.ID); err != nil {
			return InitResult{}, err
		}
	} else if err != sql.ErrNoRows {
		return InitResult{}, err
	}

	email := o.CustomerEmail
	if emailOverride != "" {
		email = emailOverride
	}

	reference := "pay-" + uuid.NewString()
	sess, err := s.Gateway.Initialize(ctx, gateway.InitializeRequest{
		Email:       email,
		AmountCents: o.TotalCents,
		Reference:   reference,
		CallbackURL: s.CallbackURL,
		Currency:    s.Currency,
		Metadata:    map[string]any{"order_id": o.ID},
	})
	if err != nil {
		// Order and any prior payment rows stay as they were; the buyer
		// simply re-requests initialization.
		return InitResult{}, err
	}

	p := domain.Payment{
		ID:               uuid.NewString(),
		OrderID:          o.ID,
		Reference:        sess.Reference,
		AmountCents:      o.TotalCents,
		Currency:         s.Currency,
		Status:           domain.PaymentPending,
		AccessCode:       sess.AccessCode,
		AuthorizationURL: sess.AuthorizationURL,
	}
	if err := s.Payments.Create(&p); err != nil {
		return InitResult{}, err
	}

	return InitResult{
		Payment:          p,
		AuthorizationURL: sess.AuthorizationURL,
		AccessCode:       sess.AccessCode,
		Reference:        sess.Reference,
	}, nil
}

// Verify is the client-driven reconciliation path: fetch the transaction
// from the gateway by reference and apply the outcome. Repeating it against
// an already-settled payment is a no-op re-confirmation.
func (s *PaymentService) Verify(ctx context.Context, reference string, caller Caller) (domain.Payment, error) {
	p, err := s.Payments.ByReference(reference)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Payment{}, ErrNotFound
		}
		return domain.Payment{}, err
	}
	o, _, err := s.Orders.Get(p.OrderID)
	if err != nil {
		return domain.Payment{}, err
	}
	if !caller.owns(&o) {
		return domain.Payment{}, ErrForbidden
	}

	tx, err := s.Gateway.Verify(ctx, reference)
	if err != nil {
		return domain.Payment{}, err
	}

	switch tx.Status {
	case "success":
		if _, err := s.Payments.MarkSuccess(reference, tx.Channel, tx.CardLast4, tx.FeeCents, paidAtOrNow(tx.PaidAt)); err != nil {
			return domain.Payment{}, err
		}
	case "failed", "abandoned":
		if _, err := s.Payments.MarkFailed(reference, tx.Reason); err != nil {
			return domain.Payment{}, err
		}
	default:
		// still pending at the gateway; nothing to apply
	}

	return s.Payments.ByReference(reference)
}

// HandleWebhook is the server-driven reconciliation path. Signature first:
// nothing is read or written before the HMAC over the raw body checks out.
// The event-id ledger then makes redelivery a no-op, and the status-guarded
// updates catch whatever races past it.
func (s *PaymentService) HandleWebhook(body []byte, signatureHeader string) error {
	if !gateway.ValidSignature(s.Secret, body, signatureHeader) {
		return ErrBadSignature
	}

	ev, err := gateway.ParseEvent(body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	// Transfer and other uninteresting events are acknowledged untouched.
	switch ev.Type {
	case gateway.EventChargeSuccess, gateway.EventChargeFailed, gateway.EventRefundProcessed:
	default:
		return nil
	}

	fresh, err := s.Payments.RecordWebhookEvent(ev.ID, ev.Type, ev.Data.Reference)
	if err != nil {
		return err
	}
	if !fresh {
		return nil // redelivery
	}

	switch ev.Type {
	case gateway.EventChargeSuccess:
		_, err = s.Payments.MarkSuccess(ev.Data.Reference, ev.Data.Channel, ev.Data.CardLast4,
			ev.Data.FeeCents, paidAtOrNow(ev.Data.PaidAt))
	case gateway.EventChargeFailed:
		_, err = s.Payments.MarkFailed(ev.Data.Reference, ev.Data.Reason)
	case gateway.EventRefundProcessed:
		_, err = s.Payments.MarkRefunded(ev.Data.Reference)
	}
	return err
}

// Refund asks the gateway to return funds; the refund.processed webhook
// finalizes it.
func (s *PaymentService) Refund(ctx context.Context, paymentID string, amountCents int64, reason string) (domain.Payment, error) {
	p, err := s.Payments.ByID(paymentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Payment{}, ErrNotFound
		}
		return domain.Payment{}, err
	}
	if !p.CanBeRefunded() {
		return domain.Payment{}, fmt.Errorf("%w: status=%s refund=%s", ErrNotRefundable, p.Status, p.RefundStatus)
	}
	if amountCents < 0 || amountCents > p.AmountCents {
		return domain.Payment{}, fmt.Errorf("%w: refund amount out of range", ErrValidation)
	}

	ref, err := s.Gateway.Refund(ctx, p.Reference, amountCents, reason)
	if err != nil {
		return domain.Payment{}, err
	}
	if err := s.Payments.MarkRefundProcessing(p.ID, ref.RefundReference, reason); err != nil {
		return domain.Payment{}, err
	}
	return s.Payments.ByID(paymentID)
}

func paidAtOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

// normalizeTS copes with sqlite's CURRENT_TIMESTAMP ("2006-01-02 15:04:05")
// alongside RFC3339 values.
func normalizeTS(s string) string {
	if strings.Contains(s, " ") && !strings.Contains(s, "T") {
		return strings.Replace(s, " ", "T", 1) + "Z"
	}
	return s
}
