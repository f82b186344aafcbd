package model

import (
	"sort"
	"strings"
)

// Robokassa custom parameter names. The gateway echoes every Shp_* field back
// on the result callback; casing and prefix are part of the wire contract.
const (
	ShpPrefix           = "Shp_"
	ShpSubscriptionType = "Shp_subscriptionType"
	ShpUserID           = "Shp_userId"
	ShpUserName         = "Shp_userName"
)

// CustomParams holds Shp_* key/value pairs.
type CustomParams map[string]string

// NewOrderParams builds the custom parameters attached to every purchase.
// The display name is only included when present.
func NewOrderParams(subscriptionID, customerID, displayName string) CustomParams {
	p := CustomParams{
		ShpSubscriptionType: subscriptionID,
		ShpUserID:           customerID,
	}
	if displayName = strings.TrimSpace(displayName); displayName != "" {
		p[ShpUserName] = displayName
	}
	return p
}

// Sorted returns the non-empty params as "key=value" strings in lexicographic order.
func (p CustomParams) Sorted() []string {
	out := make([]string, 0, len(p))
	for k, v := range p {
		if v == "" {
			continue
		}
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

func (p CustomParams) SubscriptionID() string { return p[ShpSubscriptionType] }
func (p CustomParams) UserID() string         { return p[ShpUserID] }
func (p CustomParams) UserName() string       { return p[ShpUserName] }

// PurchaseOrder is the ephemeral purchase intent encoded into a signed link.
// It is never stored; the gateway's ledger is its only persistence.
type PurchaseOrder struct {
	InvoiceID string
	Amount    int64
	Offer     SubscriptionOffer
	Params    CustomParams
}

// PaymentResult is the gateway's server-to-server notification.
// OutSum and InvoiceID are kept as raw strings: the signature covers them byte-for-byte.
type PaymentResult struct {
	OutSum    string
	InvoiceID string
	Signature string
	Params    CustomParams
}
