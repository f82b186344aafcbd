package model

import (
	"strings"
	"time"

	"telegram-subscription-shop/internal/domain"
)

// Greeting is a short text served by /hello and GET /api/greetings.
type Greeting struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewGreeting(message string) (*Greeting, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Greeting{Message: message, CreatedAt: time.Now()}, nil
}
