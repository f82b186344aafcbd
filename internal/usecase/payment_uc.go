package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"telegram-subscription-shop/internal/domain"
	"telegram-subscription-shop/internal/domain/model"
	"telegram-subscription-shop/internal/domain/ports/adapter"
	"telegram-subscription-shop/internal/infra/adapters/payment"
	"telegram-subscription-shop/internal/infra/logging"
	"telegram-subscription-shop/internal/infra/metrics"
	"telegram-subscription-shop/internal/infra/worker"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

const notifyTimeout = 15 * time.Second

type PaymentUseCase interface {
	// StartPurchase signs a link for the offer and tells the manager about the new order.
	StartPurchase(ctx context.Context, subscriptionID string, customerID int64, userName string) (adapter.PaymentLink, error)
	// ConfirmResult verifies a result callback and returns the acknowledgment body.
	ConfirmResult(ctx context.Context, res model.PaymentResult) (string, error)
	// HandleSuccessRedirect notifies the customer after the browser success redirect.
	HandleSuccessRedirect(ctx context.Context, params model.CustomParams)
	// HandleFailRedirect notifies the customer and the manager after the browser fail redirect.
	HandleFailRedirect(ctx context.Context, invoiceID string, params model.CustomParams)
}

// PriceCatalog is used to cross-check confirmed amounts.
type PriceCatalog interface {
	Lookup(id string) (model.SubscriptionOffer, error)
	Currency() string
}

// TaskSubmitter runs notification tasks off the request path.
type TaskSubmitter interface {
	Submit(task worker.Task) error
}

type paymentUC struct {
	gateway adapter.PaymentGateway
	catalog PriceCatalog
	notify  NotificationUseCase
	tasks   TaskSubmitter
	log     *zerolog.Logger
	// dev keeps customer identities readable in logs
	dev bool
}

func NewPaymentUseCase(gateway adapter.PaymentGateway, catalog PriceCatalog, notify NotificationUseCase, tasks TaskSubmitter, logger *zerolog.Logger, dev bool) *paymentUC {
	return &paymentUC{gateway: gateway, catalog: catalog, notify: notify, tasks: tasks, log: logger, dev: dev}
}

func (u *paymentUC) StartPurchase(ctx context.Context, subscriptionID string, customerID int64, userName string) (adapter.PaymentLink, error) {
	log := logging.With(ctx, u.log)
	link, err := u.gateway.CreatePaymentLink(ctx, subscriptionID, strconv.FormatInt(customerID, 10), userName)
	if err != nil {
		return adapter.PaymentLink{}, fmt.Errorf("create payment link: %w", err)
	}
	metrics.IncPaymentLink(string(link.Order.Offer.Category))
	log.Info().
		Str("inv_id", link.Order.InvoiceID).
		Str("offer", link.Order.Offer.ID).
		Int64("amount", link.Order.Amount).
		Str("user_id", logging.Redact(strconv.FormatInt(customerID, 10), u.dev)).
		Str("user_name", logging.Redact(userName, u.dev)).
		Msg("payment link created")

	order := link.Order
	u.async(ctx, KindManagerNewOrder, func(ctx context.Context) error {
		return u.notify.NotifyNewOrder(ctx, order)
	})
	return link, nil
}

func (u *paymentUC) ConfirmResult(ctx context.Context, res model.PaymentResult) (string, error) {
	start := time.Now()
	ctx = logging.WithInvID(ctx, res.InvoiceID)
	log := logging.With(ctx, u.log)
	defer logging.TraceDuration(log, "PaymentUC.ConfirmResult")()

	inv, err := u.gateway.VerifyResult(res)
	if err != nil {
		var sigErr *payment.SignatureError
		switch {
		case errors.As(err, &sigErr):
			metrics.ObserveResult("fail", "signature_mismatch", time.Since(start).Seconds())
			log.Warn().Str("expected", sigErr.Expected).Str("got", sigErr.Got).Msg("invalid result signature")
		case errors.Is(err, domain.ErrInvalidArgument):
			metrics.ObserveResult("fail", "bad_request", time.Since(start).Seconds())
			log.Warn().Err(err).Msg("malformed result notification")
		default:
			metrics.ObserveResult("fail", "error", time.Since(start).Seconds())
			log.Error().Err(err).Msg("result verification failed")
		}
		return "", err
	}

	u.recordRevenue(log, res)
	log.Info().
		Str("out_sum", res.OutSum).
		Str("offer", res.Params.SubscriptionID()).
		Str("user_id", logging.Redact(res.Params.UserID(), u.dev)).
		Msg("payment confirmed")

	ev := PaymentEvent{InvoiceID: inv, OutSum: res.OutSum, Params: res.Params}
	u.async(ctx, KindManagerPaymentSuccess, func(ctx context.Context) error {
		return u.notify.NotifyManagerPaymentSuccess(ctx, ev)
	})
	metrics.ObserveResult("ok", "", time.Since(start).Seconds())
	return u.gateway.Acknowledge(inv), nil
}

// recordRevenue feeds the revenue counter and flags amounts that differ from the catalog.
// It never affects the acknowledgment.
func (u *paymentUC) recordRevenue(log *zerolog.Logger, res model.PaymentResult) {
	amount, err := decimal.NewFromString(res.OutSum)
	if err != nil {
		log.Warn().Err(err).Str("out_sum", res.OutSum).Msg("unparseable OutSum")
		return
	}
	metrics.AddPaymentRevenue(u.catalog.Currency(), amount.InexactFloat64())

	id := res.Params.SubscriptionID()
	if id == "" {
		return
	}
	offer, err := u.catalog.Lookup(id)
	if err != nil {
		log.Warn().Str("offer", id).Msg("confirmed payment for an offer not in the catalog")
		return
	}
	if !amount.Equal(decimal.NewFromInt(offer.Price)) {
		log.Warn().
			Str("offer", id).
			Str("out_sum", amount.String()).
			Int64("catalog_price", offer.Price).
			Msg("confirmed amount differs from catalog price")
	}
}

func (u *paymentUC) HandleSuccessRedirect(ctx context.Context, params model.CustomParams) {
	u.async(ctx, KindCustomerSuccess, func(ctx context.Context) error {
		return u.notify.NotifyCustomerPaymentSuccess(ctx, params)
	})
}

func (u *paymentUC) HandleFailRedirect(ctx context.Context, invoiceID string, params model.CustomParams) {
	u.async(ctx, KindCustomerFail, func(ctx context.Context) error {
		return u.notify.NotifyCustomerPaymentFailed(ctx, params)
	})
	ev := PaymentEvent{InvoiceID: invoiceID, Params: params}
	u.async(ctx, KindManagerPaymentFailed, func(ctx context.Context) error {
		return u.notify.NotifyManagerPaymentFailed(ctx, ev)
	})
}

// async queues fn on the worker pool with the request's trace fields
// but not its deadline, since the HTTP reply is sent before delivery.
func (u *paymentUC) async(ctx context.Context, kind string, fn func(ctx context.Context) error) {
	traceID := logging.TraceID(ctx)
	task := func(pctx context.Context) error {
		tctx, cancel := context.WithTimeout(pctx, notifyTimeout)
		defer cancel()
		if traceID != "" {
			tctx = logging.WithTraceID(tctx, traceID)
		}
		if err := fn(tctx); err != nil {
			logging.With(tctx, u.log).Warn().Err(err).Str("kind", kind).Msg("notification failed")
		}
		return nil
	}
	if err := u.tasks.Submit(task); err != nil {
		metrics.IncDM(kind, "dropped")
		logging.With(ctx, u.log).Warn().Err(err).Str("kind", kind).Msg("notification not queued")
	}
}
