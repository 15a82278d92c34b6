package repos

import (
	"time"

	"maplecart/internal/domain"

	"github.com/jmoiron/sqlx"
)

type PaymentRepo struct{ db *sqlx.DB }

func NewPaymentRepo(db *sqlx.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentCols = `
  id, order_id, reference, amount_cents, currency, status,
  access_code, authorization_url, channel, card_last4, fee_cents,
  failure_reason, refund_status, refund_reference, refund_reason,
  COALESCE(paid_at,'') AS paid_at, created_at, COALESCE(updated_at,'') AS updated_at`

func (r *PaymentRepo) Create(p *domain.Payment) error {
	_, err := r.db.Exec(`
	  INSERT INTO payments
	    (id, order_id, reference, amount_cents, currency, status,
	     access_code, authorization_url, created_at)
	  VALUES (?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP)
	`, p.ID, p.OrderID, p.Reference, p.AmountCents, p.Currency, p.Status,
		p.AccessCode, p.AuthorizationURL)
	return err
}

func (r *PaymentRepo) ByID(id string) (domain.Payment, error) {
	var p domain.Payment
	err := r.db.Get(&p, `SELECT `+paymentCols+` FROM payments WHERE id = ?`, id)
	return p, err
}

func (r *PaymentRepo) ByReference(reference string) (domain.Payment, error) {
	var p domain.Payment
	err := r.db.Get(&p, `SELECT `+paymentCols+` FROM payments WHERE reference = ?`, reference)
	return p, err
}

// OpenForOrder returns the newest non-terminal payment for an order, if any.
func (r *PaymentRepo) OpenForOrder(orderID string) (domain.Payment, error) {
	var p domain.Payment
	err := r.db.Get(&p, `
		SELECT `+paymentCols+` FROM payments
		WHERE order_id = ? AND status IN (?, ?)
		ORDER BY datetime(created_at) DESC
		LIMIT 1
	`, orderID, domain.PaymentPending, domain.PaymentProcessing)
	return p, err
}

func (r *PaymentRepo) MarkAbandoned(id string) error {
	_, err := r.db.Exec(`
		UPDATE payments SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status IN (?, ?)
	`, domain.PaymentAbandoned, id, domain.PaymentPending, domain.PaymentProcessing)
	return err
}

// MarkSuccess transitions the payment to success and cascades the paid flags
// to the order inside one transaction. The status guard makes it idempotent:
// a redelivered webhook or a racing verify call finds no row to update and
// reports applied=false without touching the order again.
func (r *PaymentRepo) MarkSuccess(reference, channel, cardLast4 string, feeCents int64, paidAt time.Time) (bool, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	when := paidAt.UTC().Format(time.RFC3339)
	res, err := tx.Exec(`
		UPDATE payments
		SET status = ?, channel = ?, card_last4 = ?, fee_cents = ?,
		    paid_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE reference = ? AND status IN (?, ?)
	`, domain.PaymentSuccess, channel, cardLast4, feeCents, when,
		reference, domain.PaymentPending, domain.PaymentProcessing)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return false, nil // already terminal; nothing to apply
	}

	if _, err := tx.Exec(`
		UPDATE orders
		SET is_paid = 1, paid_at = ?, payment_status = 'paid',
		    status = CASE WHEN status IN (?, ?) THEN ? ELSE status END,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = (SELECT order_id FROM payments WHERE reference = ?)
	`, when, domain.StatusPending, domain.StatusConfirmed, domain.StatusProcessing, reference); err != nil {
		return false, err
	}

	return true, tx.Commit()
}

// MarkFailed records a failed attempt. The order keeps its status and its
// stock; only the payment flag flips, so the buyer can re-initialize.
func (r *PaymentRepo) MarkFailed(reference, reason string) (bool, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
		UPDATE payments
		SET status = ?, failure_reason = ?, updated_at = CURRENT_TIMESTAMP
		WHERE reference = ? AND status IN (?, ?)
	`, domain.PaymentFailed, reason, reference, domain.PaymentPending, domain.PaymentProcessing)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return false, nil
	}

	if _, err := tx.Exec(`
		UPDATE orders SET payment_status = 'failed', updated_at = CURRENT_TIMESTAMP
		WHERE id = (SELECT order_id FROM payments WHERE reference = ?) AND is_paid = 0
	`, reference); err != nil {
		return false, err
	}

	return true, tx.Commit()
}

func (r *PaymentRepo) MarkRefundProcessing(id, refundReference, reason string) error {
	_, err := r.db.Exec(`
		UPDATE payments
		SET refund_status = ?, refund_reference = ?, refund_reason = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, domain.RefundProcessing, refundReference, reason, id)
	return err
}

// MarkRefunded finalizes a refund on the gateway's refund.processed event.
func (r *PaymentRepo) MarkRefunded(reference string) (bool, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
		UPDATE payments
		SET refund_status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE reference = ? AND status = ? AND refund_status != ?
	`, domain.RefundSuccess, reference, domain.PaymentSuccess, domain.RefundSuccess)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return false, nil
	}

	if _, err := tx.Exec(`
		UPDATE orders
		SET payment_status = 'refunded',
		    status = CASE WHEN status IN (?, ?, ?) THEN ? ELSE status END,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = (SELECT order_id FROM payments WHERE reference = ?)
	`, domain.StatusCancelled, domain.StatusReturned, domain.StatusProcessing,
		domain.StatusRefunded, reference); err != nil {
		return false, err
	}

	return true, tx.Commit()
}

// RecordWebhookEvent inserts into the processed-event ledger. fresh=false
// means this gateway event id was seen before (redelivery).
func (r *PaymentRepo) RecordWebhookEvent(eventID, eventType, reference string) (bool, error) {
	res, err := r.db.Exec(`
		INSERT INTO webhook_events(event_id, event_type, reference)
		VALUES (?,?,?)
		ON CONFLICT(event_id) DO NOTHING
	`, eventID, eventType, reference)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *PaymentRepo) ListLatest(limit int) ([]domain.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []domain.Payment
	err := r.db.Select(&out, `
		SELECT `+paymentCols+` FROM payments
		ORDER BY datetime(created_at) DESC
		LIMIT ?
	`, limit)
	return out, err
}
