package repository

import (
	"context"
	"time"
)

// InvoiceSequence hands out gateway invoice ids. Ids are strictly increasing
// and never lower than the Unix second of `now`.
type InvoiceSequence interface {
	Next(ctx context.Context, now time.Time) (int64, error)
}
