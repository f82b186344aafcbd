// File: internal/infra/redis/invoice_sequence.go
package redis

import (
	"context"
	"fmt"
	"time"

	"telegram-subscription-shop/internal/domain/ports/repository"

	"github.com/go-redis/redis/v8"
)

var _ repository.InvoiceSequence = (*InvoiceSequence)(nil)

const invoiceSeqKey = "robokassa:inv_id"

// Returns max(stored+1, floor) and stores it atomically.
var luaNextInvoice = redis.NewScript(`
local cur = tonumber(redis.call("GET", KEYS[1]) or "0")
local floor = tonumber(ARGV[1])
local nxt = cur + 1
if nxt < floor then
	nxt = floor
end
redis.call("SET", KEYS[1], nxt)
return nxt`)

// InvoiceSequence shares the invoice counter between bot instances so that
// ids stay unique when several replicas sign links in the same second.
type InvoiceSequence struct {
	cli *redis.Client
	key string
}

func NewInvoiceSequence(c *Client) *InvoiceSequence {
	return &InvoiceSequence{cli: c.cli, key: invoiceSeqKey}
}

func (s *InvoiceSequence) Next(ctx context.Context, now time.Time) (int64, error) {
	id, err := luaNextInvoice.Run(ctx, s.cli, []string{s.key}, now.Unix()).Int64()
	if err != nil {
		return 0, fmt.Errorf("next invoice id: %w", err)
	}
	return id, nil
}
