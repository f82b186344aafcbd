// File: internal/infra/adapters/payment/robokassa_gateway.go
package payment

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"telegram-subscription-shop/internal/domain"
	"telegram-subscription-shop/internal/domain/model"
	"telegram-subscription-shop/internal/domain/ports/adapter"
	"telegram-subscription-shop/internal/domain/ports/repository"
	"telegram-subscription-shop/internal/infra/clock"
)

var _ adapter.PaymentGateway = (*RobokassaGateway)(nil)

const (
	DefaultRobokassaURL = "https://auth.robokassa.ru/Merchant/Index.aspx"
	defaultCulture      = "ru"
	ackPrefix           = "OK"
)

// OfferCatalog is the part of the catalog the gateway needs.
type OfferCatalog interface {
	Lookup(id string) (model.SubscriptionOffer, error)
}

// RobokassaOptions are the merchant account settings.
// Password2 falls back to Password1 when empty.
type RobokassaOptions struct {
	MerchantLogin string
	Password1     string
	Password2     string
	TestMode      bool
	BaseURL       string
	Culture       string
}

// RobokassaGateway signs redirect links with Password1 (lowercase MD5) and
// verifies result callbacks signed with Password2 (uppercase MD5).
type RobokassaGateway struct {
	login     string
	password1 string
	password2 string
	testMode  bool
	baseURL   string
	culture   string

	catalog OfferCatalog
	seq     repository.InvoiceSequence
	clock   clock.Clock
}

func NewRobokassaGateway(opts RobokassaOptions, catalog OfferCatalog, seq repository.InvoiceSequence, clk clock.Clock) (*RobokassaGateway, error) {
	if strings.TrimSpace(opts.MerchantLogin) == "" || opts.Password1 == "" {
		return nil, fmt.Errorf("robokassa: merchant login and password1 are required: %w", domain.ErrMissingCredentials)
	}
	if catalog == nil {
		return nil, fmt.Errorf("robokassa: catalog is nil: %w", domain.ErrInvalidArgument)
	}
	if seq == nil {
		seq = NewMonotonicSequence()
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	if opts.Password2 == "" {
		opts.Password2 = opts.Password1
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultRobokassaURL
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("robokassa: invalid base url: %w", err)
	}
	if opts.Culture == "" {
		opts.Culture = defaultCulture
	}
	return &RobokassaGateway{
		login:     opts.MerchantLogin,
		password1: opts.Password1,
		password2: opts.Password2,
		testMode:  opts.TestMode,
		baseURL:   opts.BaseURL,
		culture:   opts.Culture,
		catalog:   catalog,
		seq:       seq,
		clock:     clk,
	}, nil
}

func (g *RobokassaGateway) Name() string { return "robokassa" }

// CreatePaymentLink resolves the offer, allocates an invoice id and returns the signed redirect URL.
func (g *RobokassaGateway) CreatePaymentLink(ctx context.Context, subscriptionID, customerID, displayName string) (adapter.PaymentLink, error) {
	offer, err := g.catalog.Lookup(subscriptionID)
	if err != nil {
		return adapter.PaymentLink{}, err
	}
	if strings.TrimSpace(customerID) == "" {
		return adapter.PaymentLink{}, fmt.Errorf("robokassa: customer id is required: %w", domain.ErrInvalidArgument)
	}
	inv, err := g.seq.Next(ctx, g.clock.Now())
	if err != nil {
		return adapter.PaymentLink{}, fmt.Errorf("robokassa: next invoice id: %w", err)
	}

	order := model.PurchaseOrder{
		InvoiceID: strconv.FormatInt(inv, 10),
		Amount:    offer.Price,
		Offer:     offer,
		Params:    model.NewOrderParams(offer.ID, customerID, displayName),
	}
	return adapter.PaymentLink{URL: g.signedURL(order), Order: order}, nil
}

func (g *RobokassaGateway) signedURL(order model.PurchaseOrder) string {
	outSum := strconv.FormatInt(order.Amount, 10)
	signature := md5Hex(LinkSignatureInput(g.login, outSum, order.InvoiceID, g.password1, order.Params))

	q := url.Values{}
	q.Set("MerchantLogin", g.login)
	q.Set("OutSum", outSum)
	q.Set("InvId", order.InvoiceID)
	q.Set("Description", order.Offer.Label())
	q.Set("SignatureValue", signature)
	q.Set("IsTest", g.isTest())
	q.Set("Culture", g.culture)
	for k, v := range order.Params {
		q.Set(k, v)
	}
	return g.baseURL + "?" + q.Encode()
}

func (g *RobokassaGateway) isTest() string {
	if g.testMode {
		return "1"
	}
	return "0"
}

// VerifyResult recomputes the result signature with Password2 and compares it
// case-insensitively with the claimed one. It keeps no state between calls.
func (g *RobokassaGateway) VerifyResult(res model.PaymentResult) (string, error) {
	if res.OutSum == "" || res.InvoiceID == "" || res.Signature == "" {
		return "", fmt.Errorf("robokassa: OutSum, InvId and SignatureValue are required: %w", domain.ErrInvalidArgument)
	}
	expected := strings.ToUpper(md5Hex(ResultSignatureInput(res.OutSum, res.InvoiceID, g.password2, res.Params)))
	got := strings.ToUpper(strings.TrimSpace(res.Signature))
	if subtle.ConstantTimeCompare([]byte(expected), []byte(got)) != 1 {
		return "", &SignatureError{InvoiceID: res.InvoiceID, Expected: expected, Got: res.Signature}
	}
	return res.InvoiceID, nil
}

// Acknowledge returns the body Robokassa requires to stop redelivering a result.
func (g *RobokassaGateway) Acknowledge(invoiceID string) string {
	return ackPrefix + invoiceID
}
