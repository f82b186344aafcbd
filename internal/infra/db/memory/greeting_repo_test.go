//go:build !integration

package memory

import (
	"context"
	"testing"
	"time"

	"telegram-subscription-shop/internal/domain/model"
	"telegram-subscription-shop/internal/infra/clock"
)

func TestGreetingRepo(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	repo := NewGreetingRepo(clock.NewFixed(now))
	ctx := context.Background()

	g, _ := model.NewGreeting("Привет, мир!")
	if err := repo.Create(ctx, g); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if g.ID != 1 || !g.CreatedAt.Equal(now) {
		t.Errorf("expected id 1 at fixed time, but got: %+v", g)
	}

	list, _ := repo.List(ctx)
	if len(list) != 1 || list[0].Message != "Привет, мир!" {
		t.Fatalf("unexpected list: %+v", list)
	}

	list[0].Message = "mutated"
	again, _ := repo.List(ctx)
	if again[0].Message != "Привет, мир!" {
		t.Error("expected List to return copies")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := repo.Create(cancelled, &model.Greeting{Message: "x"}); err == nil {
		t.Error("expected error on cancelled context")
	}
}
