package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")

	// Payments
	ErrUnknownOffer         = errors.New("unknown subscription offer")
	ErrSignatureMismatch    = errors.New("payment signature mismatch")
	ErrMissingCredentials   = errors.New("payment credentials missing")
	ErrNotificationDelivery = errors.New("notification delivery failed")
)
