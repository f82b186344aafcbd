package application

import (
	"context"

	"telegram-subscription-shop/internal/domain/model"
	"telegram-subscription-shop/internal/domain/ports/adapter"
)

// ---- small interfaces to decouple the facade from concrete usecase structs ----

type PaymentUseCaseIface interface {
	StartPurchase(ctx context.Context, subscriptionID string, customerID int64, userName string) (adapter.PaymentLink, error)
}

type GreetingUseCaseIface interface {
	Latest(ctx context.Context) (*model.Greeting, error)
}

type OfferCatalogIface interface {
	ByCategory(cat model.Category) []model.SubscriptionOffer
}
