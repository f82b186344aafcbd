package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-subscription-shop/internal/application"
	"telegram-subscription-shop/internal/infra/logging"
	"telegram-subscription-shop/internal/infra/metrics"
)

type cbHandler func(ctx context.Context, query *tgbotapi.CallbackQuery, chatID int64) error
type prefixCB struct {
	Prefix string
	Fn     cbHandler
}

// Exact-match callbacks
func (r *RealTelegramBotAdapter) cbRoutes() map[string]cbHandler {
	return map[string]cbHandler{
		application.CallbackMenu:    r.menuCBRoute,
		application.CallbackAdobe:   r.menuCBRoute,
		application.CallbackStable:  r.menuCBRoute,
		application.CallbackChatGPT: r.menuCBRoute,
		application.CallbackGoogle:  r.menuCBRoute,
	}
}

// Prefix-match callbacks
func (r *RealTelegramBotAdapter) cbPrefixRoutes() []prefixCB {
	return []prefixCB{
		{Prefix: application.BuyPrefix, Fn: r.buyPrefixCBRoute},
	}
}

func (r *RealTelegramBotAdapter) menuCBRoute(ctx context.Context, q *tgbotapi.CallbackQuery, chatID int64) error {
	return r.respond(ctx, chatID, application.MenuRequest{Message: q.Data, UserID: q.From.ID, UserName: q.From.UserName})
}

func (r *RealTelegramBotAdapter) buyPrefixCBRoute(ctx context.Context, q *tgbotapi.CallbackQuery, chatID int64) error {
	if !r.allow(ctx, q.From.ID, chatID, "buy") {
		return nil
	}
	return r.respond(ctx, chatID, application.MenuRequest{Message: q.Data, UserID: q.From.ID, UserName: q.From.UserName})
}

// handleQuery acknowledges the callback so the client stops its spinner, then routes it.
func (r *RealTelegramBotAdapter) handleQuery(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	defer func() {
		if _, err := r.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
			r.log.Debug().Err(err).Msg("callback ack failed")
		}
	}()
	if query.From == nil {
		return nil
	}
	ctx = logging.WithTgID(ctx, query.From.ID)

	chatID := query.From.ID
	if query.Message != nil && query.Message.Chat != nil {
		chatID = query.Message.Chat.ID
	}
	data := strings.TrimSpace(query.Data)

	if handler, ok := r.cbRoutes()[data]; ok {
		metrics.IncTelegramUpdate("callback", data)
		return handler(ctx, query, chatID)
	}
	for _, route := range r.cbPrefixRoutes() {
		if strings.HasPrefix(data, route.Prefix) {
			metrics.IncTelegramUpdate("callback", strings.TrimSuffix(route.Prefix, "_"))
			return route.Fn(ctx, query, chatID)
		}
	}

	// stale keyboards from older bot versions
	metrics.IncTelegramUpdate("callback", "unknown")
	logging.With(ctx, r.log).Debug().Str("data", data).Msg("unknown callback data")
	return r.menuCBRoute(ctx, query, chatID)
}
