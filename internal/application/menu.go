package application

import (
	"telegram-subscription-shop/internal/domain/model"
	"telegram-subscription-shop/internal/domain/ports/adapter"
)

// Action names what kind of screen a MenuResponse renders.
type Action string

const (
	ActionWelcome           Action = "welcome"
	ActionSubscriptionTypes Action = "subscription_types"
	ActionCategory          Action = "category"
	ActionPaymentLink       Action = "payment_link"
	ActionHelp              Action = "help"
	ActionHello             Action = "hello"
	ActionDefault           Action = "default"
)

// Callback payloads understood by Respond.
const (
	CallbackMenu    = "menu"
	CallbackAdobe   = "adobe_cc"
	CallbackStable  = "stable"
	CallbackChatGPT = "chatgpt"
	CallbackGoogle  = "google"
	BuyPrefix       = "buy_"
)

type MenuRequest struct {
	// Message is the text typed by the user or the callback data of a pressed button.
	Message  string
	UserID   int64
	UserName string
}

type MenuResponse struct {
	Action   Action
	Text     string
	Keyboard [][]adapter.InlineButton
	// PhotoURL, when set, is sent as a photo with Text as its caption.
	PhotoURL string
	// Order is set for ActionPaymentLink.
	Order *model.PurchaseOrder
}

// categoryText maps offer categories to their intro text key.
var categoryText = map[model.Category]string{
	model.CategoryStable:  "stable_info",
	model.CategoryChatGPT: "chatgpt_info",
	model.CategoryGoogle:  "google_info",
}
