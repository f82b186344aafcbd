package model

import (
	"strings"

	"telegram-subscription-shop/internal/domain"
)

// Category groups offers for menu navigation only; it never affects pricing or signing.
type Category string

const (
	CategoryStable  Category = "stable"
	CategoryChatGPT Category = "chatgpt"
	CategoryGoogle  Category = "google"
)

// SubscriptionOffer is a purchasable SKU with a fixed price in whole rubles.
type SubscriptionOffer struct {
	ID          string   `yaml:"id" json:"id"`
	Price       int64    `yaml:"price" json:"price"`
	Description string   `yaml:"description" json:"description"`
	Period      string   `yaml:"period" json:"period"`
	Category    Category `yaml:"category" json:"category"`
}

// Label is the human-facing name, e.g. "ChatGPT Plus - 1 месяц".
func (o SubscriptionOffer) Label() string {
	if o.Period == "" {
		return o.Description
	}
	return o.Description + " - " + o.Period
}

// NewSubscriptionOffer validates and constructs an offer.
func NewSubscriptionOffer(id string, price int64, description, period string, category Category) (*SubscriptionOffer, error) {
	id = strings.TrimSpace(id)
	if id == "" || price <= 0 || strings.TrimSpace(description) == "" || category == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &SubscriptionOffer{
		ID:          id,
		Price:       price,
		Description: description,
		Period:      period,
		Category:    category,
	}, nil
}
