package repository

import (
	"context"

	"telegram-subscription-shop/internal/domain/model"
)

type GreetingRepository interface {
	List(ctx context.Context) ([]*model.Greeting, error)
	Create(ctx context.Context, g *model.Greeting) error
}
