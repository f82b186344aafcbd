package usecase

import (
	"context"
	"fmt"

	"telegram-subscription-shop/internal/domain"
	"telegram-subscription-shop/internal/domain/model"
	"telegram-subscription-shop/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ GreetingUseCase = (*greetingUC)(nil)

// DefaultGreeting is stored when the greeting table is empty at startup.
const DefaultGreeting = "Привет, мир!"

type GreetingUseCase interface {
	List(ctx context.Context) ([]*model.Greeting, error)
	Create(ctx context.Context, message string) (*model.Greeting, error)
	// EnsureSeed stores message only when no greeting exists yet.
	EnsureSeed(ctx context.Context, message string) error
	// Latest returns the most recently stored greeting.
	Latest(ctx context.Context) (*model.Greeting, error)
}

type greetingUC struct {
	repo repository.GreetingRepository
	log  *zerolog.Logger
}

func NewGreetingUseCase(repo repository.GreetingRepository, logger *zerolog.Logger) *greetingUC {
	return &greetingUC{repo: repo, log: logger}
}

func (u *greetingUC) List(ctx context.Context) ([]*model.Greeting, error) {
	return u.repo.List(ctx)
}

func (u *greetingUC) Create(ctx context.Context, message string) (*model.Greeting, error) {
	g, err := model.NewGreeting(message)
	if err != nil {
		return nil, err
	}
	if err := u.repo.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("store greeting: %w", err)
	}
	return g, nil
}

func (u *greetingUC) EnsureSeed(ctx context.Context, message string) error {
	existing, err := u.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("list greetings: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	if _, err := u.Create(ctx, message); err != nil {
		return err
	}
	u.log.Info().Str("message", message).Msg("seeded default greeting")
	return nil
}

func (u *greetingUC) Latest(ctx context.Context) (*model.Greeting, error) {
	list, err := u.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, domain.ErrNotFound
	}
	return list[len(list)-1], nil
}
