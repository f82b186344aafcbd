package payment

import (
	"context"
	"sync"
	"time"

	"telegram-subscription-shop/internal/domain/ports/repository"
)

var _ repository.InvoiceSequence = (*MonotonicSequence)(nil)

// MonotonicSequence derives invoice ids from Unix seconds and bumps past the
// last issued id, so two purchases in the same second never collide within a process.
type MonotonicSequence struct {
	mu   sync.Mutex
	last int64
}

func NewMonotonicSequence() *MonotonicSequence {
	return &MonotonicSequence{}
}

func (s *MonotonicSequence) Next(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := now.Unix()
	if id <= s.last {
		id = s.last + 1
	}
	s.last = id
	return id, nil
}
