package adapter

import (
	"context"

	"telegram-subscription-shop/internal/domain/model"
)

// PaymentLink is the outcome of signing a purchase intent.
type PaymentLink struct {
	URL   string
	Order model.PurchaseOrder
}

// PaymentGateway is the hex port for redirect-style gateways that sign
// outbound links and push signed result notifications back.
type PaymentGateway interface {
	Name() string

	// CreatePaymentLink signs a purchase of the given offer. It performs no network I/O.
	CreatePaymentLink(ctx context.Context, subscriptionID, customerID, displayName string) (PaymentLink, error)
	// VerifyResult checks a result notification and returns the accepted invoice id.
	VerifyResult(res model.PaymentResult) (invoiceID string, err error)
	// Acknowledge is the response body the gateway expects for an accepted notification.
	Acknowledge(invoiceID string) string
}
