package application

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"telegram-subscription-shop/internal/domain"
	"telegram-subscription-shop/internal/domain/model"
	"telegram-subscription-shop/internal/domain/ports/adapter"
	"telegram-subscription-shop/internal/infra/i18n"
)

// BotFacade turns a user message or button press into the next menu screen.
// The Telegram adapter only renders what it returns.
type BotFacade struct {
	PayUC      PaymentUseCaseIface
	GreetUC    GreetingUseCaseIface
	Catalog    OfferCatalogIface
	tr         *i18n.Translator
	supportURL string
	photoURL   string
}

func NewBotFacade(payUC PaymentUseCaseIface, greetUC GreetingUseCaseIface, catalog OfferCatalogIface, tr *i18n.Translator, supportURL, welcomePhoto string) *BotFacade {
	return &BotFacade{
		PayUC:      payUC,
		GreetUC:    greetUC,
		Catalog:    catalog,
		tr:         tr,
		supportURL: supportURL,
		photoURL:   welcomePhoto,
	}
}

// Respond matches the trimmed, lower-cased message against the menu.
// Unrecognized input and unknown offers get the default screen, never an error.
func (b *BotFacade) Respond(ctx context.Context, req MenuRequest) (MenuResponse, error) {
	msg := normalize(req.Message)

	switch {
	case msg == "/start" || msg == "start" || msg == CallbackMenu || msg == "в меню":
		return b.welcome(), nil
	case msg == "/help":
		return MenuResponse{Action: ActionHelp, Text: b.tr.T("help"), Keyboard: b.mainKeyboard()}, nil
	case msg == "/hello":
		return b.hello(ctx)
	case strings.HasPrefix(msg, BuyPrefix):
		// offer ids are case-sensitive; take the id from the original text
		return b.purchase(ctx, req, strings.TrimSpace(req.Message)[len(BuyPrefix):])
	case msg == CallbackStable || msg == "стабильный" || msg == "стабильный вариант":
		return b.category(model.CategoryStable), nil
	case msg == CallbackChatGPT:
		return b.category(model.CategoryChatGPT), nil
	case msg == CallbackGoogle:
		return b.category(model.CategoryGoogle), nil
	case msg == CallbackAdobe || msg == "adobe creative cloud" || strings.Contains(msg, "adobe"):
		return MenuResponse{
			Action: ActionSubscriptionTypes,
			Text:   b.tr.T("subscription_types"),
			Keyboard: [][]adapter.InlineButton{
				{{Text: b.tr.T("btn_stable"), Data: CallbackStable}},
				{b.menuButton()},
			},
		}, nil
	}
	return b.fallback(), nil
}

// PurchaseFailedText is shown when a link could not be produced.
func (b *BotFacade) PurchaseFailedText() string { return b.tr.T("purchase_failed") }

func (b *BotFacade) welcome() MenuResponse {
	return MenuResponse{
		Action:   ActionWelcome,
		Text:     b.tr.T("welcome"),
		Keyboard: b.mainKeyboard(),
		PhotoURL: b.photoURL,
	}
}

func (b *BotFacade) fallback() MenuResponse {
	return MenuResponse{Action: ActionDefault, Text: b.tr.T("unknown_command"), Keyboard: b.mainKeyboard()}
}

func (b *BotFacade) hello(ctx context.Context) (MenuResponse, error) {
	text := b.tr.T("hello_fallback")
	if b.GreetUC != nil {
		g, err := b.GreetUC.Latest(ctx)
		switch {
		case err == nil:
			text = g.Message
		case !errors.Is(err, domain.ErrNotFound):
			return MenuResponse{}, fmt.Errorf("latest greeting: %w", err)
		}
	}
	return MenuResponse{Action: ActionHello, Text: text}, nil
}

func (b *BotFacade) category(cat model.Category) MenuResponse {
	offers := b.Catalog.ByCategory(cat)
	named := mixedDescriptions(offers)

	var rows [][]adapter.InlineButton
	var row []adapter.InlineButton
	for _, o := range offers {
		label := b.tr.T("offer_button", o.Period, o.Price)
		if named {
			label = b.tr.T("offer_button_named", o.Description, o.Period, o.Price)
		}
		row = append(row, adapter.InlineButton{Text: label, Data: BuyPrefix + o.ID})
		// two prices per row unless the labels carry product names
		if named || len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, []adapter.InlineButton{b.menuButton()})

	return MenuResponse{Action: ActionCategory, Text: b.tr.T(categoryText[cat]), Keyboard: rows}
}

func (b *BotFacade) purchase(ctx context.Context, req MenuRequest, offerID string) (MenuResponse, error) {
	link, err := b.PayUC.StartPurchase(ctx, offerID, req.UserID, req.UserName)
	if errors.Is(err, domain.ErrUnknownOffer) {
		return b.fallback(), nil
	}
	if err != nil {
		return MenuResponse{}, err
	}

	order := link.Order
	return MenuResponse{
		Action: ActionPaymentLink,
		Text:   b.tr.T("payment_link", html.EscapeString(order.Offer.Description), html.EscapeString(order.Offer.Period), order.Amount),
		Keyboard: [][]adapter.InlineButton{
			{{Text: b.tr.T("btn_pay"), URL: link.URL}},
			{{Text: b.tr.T("btn_back"), Data: string(order.Offer.Category)}},
			{b.menuButton()},
		},
		Order: &order,
	}, nil
}

func (b *BotFacade) mainKeyboard() [][]adapter.InlineButton {
	return [][]adapter.InlineButton{
		{{Text: b.tr.T("btn_adobe"), Data: CallbackAdobe}},
		{{Text: b.tr.T("btn_chatgpt"), Data: CallbackChatGPT}},
		{{Text: b.tr.T("btn_google"), Data: CallbackGoogle}},
		{{Text: b.tr.T("btn_support"), URL: b.supportURL}},
	}
}

func (b *BotFacade) menuButton() adapter.InlineButton {
	return adapter.InlineButton{Text: b.tr.T("btn_menu"), Data: CallbackMenu}
}

// normalize lower-cases and trims msg, dropping a "@botname" suffix from commands.
func normalize(msg string) string {
	msg = strings.ToLower(strings.TrimSpace(msg))
	if strings.HasPrefix(msg, "/") {
		if i := strings.IndexByte(msg, '@'); i > 0 {
			msg = msg[:i]
		}
	}
	return msg
}

func mixedDescriptions(offers []model.SubscriptionOffer) bool {
	for i := 1; i < len(offers); i++ {
		if offers[i].Description != offers[0].Description {
			return true
		}
	}
	return false
}
