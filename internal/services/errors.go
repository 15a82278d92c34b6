package services

import "errors"

// Sentinel errors handlers map onto HTTP statuses.
var (
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrValidation    = errors.New("invalid input")
	ErrBadTransition = errors.New("illegal status transition")
	ErrDelivered     = errors.New("order already delivered")
	ErrAlreadyPaid   = errors.New("order already paid")
	ErrNotRefundable = errors.New("payment not refundable")
	ErrBadSignature  = errors.New("invalid webhook signature")
)
