package usecase

import (
	"context"
	"fmt"
	"html"
	"strconv"

	"telegram-subscription-shop/internal/domain"
	"telegram-subscription-shop/internal/domain/model"
	"telegram-subscription-shop/internal/domain/ports/adapter"
	"telegram-subscription-shop/internal/infra/i18n"
	"telegram-subscription-shop/internal/infra/logging"
	"telegram-subscription-shop/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ NotificationUseCase = (*notificationUC)(nil)

// Notification kinds, used as the metrics label.
const (
	KindManagerNewOrder       = "manager_new_order"
	KindManagerPaymentSuccess = "manager_payment_success"
	KindManagerPaymentFailed  = "manager_payment_failed"
	KindCustomerSuccess       = "customer_success"
	KindCustomerFail          = "customer_fail"
)

// OfferLabeler renders a human label for an offer id, falling back to the id.
type OfferLabeler interface {
	Label(id string) string
}

// PaymentEvent is what we know about a payment when telling someone about it.
type PaymentEvent struct {
	InvoiceID string
	OutSum    string
	Params    model.CustomParams
}

type NotificationUseCase interface {
	NotifyNewOrder(ctx context.Context, order model.PurchaseOrder) error
	NotifyManagerPaymentSuccess(ctx context.Context, ev PaymentEvent) error
	NotifyManagerPaymentFailed(ctx context.Context, ev PaymentEvent) error
	NotifyCustomerPaymentSuccess(ctx context.Context, params model.CustomParams) error
	NotifyCustomerPaymentFailed(ctx context.Context, params model.CustomParams) error
}

type notificationUC struct {
	bot           adapter.TelegramBotAdapter
	labels        OfferLabeler
	tr            *i18n.Translator
	managerChatID int64
	log           *zerolog.Logger
}

// NewNotificationUseCase wires the notifier. A zero managerChatID disables manager messages.
func NewNotificationUseCase(bot adapter.TelegramBotAdapter, labels OfferLabeler, tr *i18n.Translator, managerChatID int64, logger *zerolog.Logger) *notificationUC {
	return &notificationUC{bot: bot, labels: labels, tr: tr, managerChatID: managerChatID, log: logger}
}

func (n *notificationUC) NotifyNewOrder(ctx context.Context, order model.PurchaseOrder) error {
	text := n.tr.T("manager_new_order",
		n.userRef(order.Params),
		html.EscapeString(order.Offer.Label()),
		strconv.FormatInt(order.Amount, 10),
		html.EscapeString(order.InvoiceID),
	)
	return n.toManager(ctx, KindManagerNewOrder, text)
}

func (n *notificationUC) NotifyManagerPaymentSuccess(ctx context.Context, ev PaymentEvent) error {
	text := n.tr.T("manager_payment_success",
		n.userRef(ev.Params),
		n.offerLabel(ev.Params),
		html.EscapeString(ev.OutSum),
		html.EscapeString(ev.InvoiceID),
	)
	return n.toManager(ctx, KindManagerPaymentSuccess, text)
}

func (n *notificationUC) NotifyManagerPaymentFailed(ctx context.Context, ev PaymentEvent) error {
	inv := ev.InvoiceID
	if inv == "" {
		inv = n.tr.T("not_specified")
	}
	text := n.tr.T("manager_payment_failed",
		n.userRef(ev.Params),
		n.offerLabel(ev.Params),
		html.EscapeString(inv),
	)
	return n.toManager(ctx, KindManagerPaymentFailed, text)
}

func (n *notificationUC) NotifyCustomerPaymentSuccess(ctx context.Context, params model.CustomParams) error {
	return n.toCustomer(ctx, KindCustomerSuccess, params, n.tr.T("customer_payment_success", n.offerLabel(params)))
}

func (n *notificationUC) NotifyCustomerPaymentFailed(ctx context.Context, params model.CustomParams) error {
	return n.toCustomer(ctx, KindCustomerFail, params, n.tr.T("customer_payment_failed", n.offerLabel(params)))
}

func (n *notificationUC) toManager(ctx context.Context, kind, text string) error {
	log := logging.With(ctx, n.log)
	if n.managerChatID == 0 {
		metrics.IncDM(kind, "skipped")
		log.Debug().Str("kind", kind).Msg("manager chat id not configured; notification skipped")
		return nil
	}
	return n.deliver(ctx, kind, n.managerChatID, text)
}

func (n *notificationUC) toCustomer(ctx context.Context, kind string, params model.CustomParams, text string) error {
	log := logging.With(ctx, n.log)
	raw := params.UserID()
	if raw == "" {
		metrics.IncDM(kind, "skipped")
		log.Debug().Str("kind", kind).Msg("no customer id on redirect; notification skipped")
		return nil
	}
	chatID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		metrics.IncDM(kind, "skipped")
		return fmt.Errorf("customer id %q: %w", raw, domain.ErrInvalidArgument)
	}
	return n.deliver(ctx, kind, chatID, text)
}

func (n *notificationUC) deliver(ctx context.Context, kind string, chatID int64, text string) error {
	if err := n.bot.SendMessage(ctx, chatID, text); err != nil {
		metrics.IncDM(kind, "error")
		return fmt.Errorf("%w: %s to %d: %v", domain.ErrNotificationDelivery, kind, chatID, err)
	}
	metrics.IncDM(kind, "sent")
	return nil
}

// userRef shows @username when known, the numeric id otherwise.
func (n *notificationUC) userRef(p model.CustomParams) string {
	if name := p.UserName(); name != "" {
		return "@" + html.EscapeString(name)
	}
	if id := p.UserID(); id != "" {
		return html.EscapeString(id)
	}
	return n.tr.T("not_specified")
}

func (n *notificationUC) offerLabel(p model.CustomParams) string {
	id := p.SubscriptionID()
	if id == "" {
		return n.tr.T("not_specified")
	}
	return html.EscapeString(n.labels.Label(id))
}
