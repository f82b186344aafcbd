package memory

import (
	"context"
	"sync"

	"telegram-subscription-shop/internal/domain/model"
	"telegram-subscription-shop/internal/domain/ports/repository"
	"telegram-subscription-shop/internal/infra/clock"
)

var _ repository.GreetingRepository = (*GreetingRepo)(nil)

// GreetingRepo keeps greetings in process memory. Used in dev mode.
type GreetingRepo struct {
	mu     sync.RWMutex
	clk    clock.Clock
	nextID int64
	items  []model.Greeting
}

func NewGreetingRepo(clk clock.Clock) *GreetingRepo {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &GreetingRepo{clk: clk}
}

func (r *GreetingRepo) List(ctx context.Context) ([]*model.Greeting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Greeting, 0, len(r.items))
	for i := range r.items {
		g := r.items[i]
		out = append(out, &g)
	}
	return out, nil
}

func (r *GreetingRepo) Create(ctx context.Context, g *model.Greeting) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	g.ID = r.nextID
	g.CreatedAt = r.clk.Now()
	r.items = append(r.items, *g)
	return nil
}
