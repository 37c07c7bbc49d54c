package venue

import (
	"context"
	"time"

	"arbbot-go/internal/book"
)

// BookSource exposes order-book snapshots for a pair. Both venue roles
// implement it; cmd/spreadcheck compares books across the two.
type BookSource interface {
	OrderBook(ctx context.Context, pair string) (book.Snapshot, error)
}

// MakerClient is the contract for the low-fee venue where resting limit
// orders capture the spread. Placement and cancellation acknowledgements are
// asynchronous from fills: a fill for an order can arrive on the status
// stream before the placement call returns.
type MakerClient interface {
	BookSource
	PlaceOrder(ctx context.Context, req OrderRequest) (string, error)
	CancelOrder(ctx context.Context, orderID string) error
	OrderStatus(ctx context.Context, orderID string) (OrderStatusUpdate, error)
	// StreamOrderStatus pushes at-least-once status updates onto out until
	// the context is cancelled. In-order delivery is only guaranteed per
	// order, not across orders.
	StreamOrderStatus(ctx context.Context, out chan<- OrderStatusUpdate) error
}

// HedgeClient is the contract for the venue where filled maker exposure is
// offset with immediate taker orders. Returns the venue-reported fill price.
type HedgeClient interface {
	PlaceMarketOrder(ctx context.Context, side Side, size float64) (float64, error)
}

// Clock abstracts time for timestamps and UTC day-boundary resets.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// RealClock returns a Clock backed by the system time in UTC.
func RealClock() Clock { return realClock{} }
