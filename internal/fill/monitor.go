// Package fill reconciles venue order-status updates into deduplicated,
// per-order-ordered fill events.
package fill

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"arbbot-go/internal/venue"
)

// ErrStaleUpdate marks an update whose cumulative filled size is below the
// watermark already observed for that order. Stale updates are discarded:
// filled size never decreases.
var ErrStaleUpdate = errors.New("stale order status update")

// Event is one fill delta, append-only. FillID is synthesized from the order
// id and the cumulative-filled-size watermark, so re-ingesting a duplicated
// status push maps to the same id and is dropped.
type Event struct {
	FillID  string     `json:"fill_id"`
	OrderID string     `json:"order_id"`
	Side    venue.Side `json:"side"`
	Price   float64    `json:"price"`
	Qty     float64    `json:"qty"`
	Ts      time.Time  `json:"ts"`
}

// fillID derives the idempotency key for a cumulative watermark.
func fillID(orderID string, cum float64) string {
	return fmt.Sprintf("%s@%s", orderID, strconv.FormatFloat(cum, 'f', -1, 64))
}

// Monitor tracks a cumulative-filled-size watermark per order and converts
// status updates into fill deltas. Watermarks are independent across orders:
// both sides of the book can fill concurrently without coupling.
type Monitor struct {
	mu         sync.Mutex
	watermarks map[string]float64
}

// NewMonitor creates an empty monitor.
func NewMonitor() *Monitor {
	return &Monitor{watermarks: make(map[string]float64)}
}

// Ingest folds one status update into the per-order watermark. A positive
// delta yields exactly one Event; a repeat of an already-seen cumulative size
// yields none; a regression yields ErrStaleUpdate and is discarded.
func (m *Monitor) Ingest(u venue.OrderStatusUpdate) ([]Event, error) {
	if u.OrderID == "" {
		return nil, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	last := m.watermarks[u.OrderID]
	switch {
	case u.FilledSize < last:
		return nil, ErrStaleUpdate
	case u.FilledSize == last:
		return nil, nil
	}

	m.watermarks[u.OrderID] = u.FilledSize
	ev := Event{
		FillID:  fillID(u.OrderID, u.FilledSize),
		OrderID: u.OrderID,
		Side:    u.Side,
		Price:   u.Price,
		Qty:     u.FilledSize - last,
		Ts:      u.Ts,
	}
	return []Event{ev}, nil
}

// Watermark reports the cumulative filled size observed for an order.
// Watermarks are kept for the life of the monitor, even after the order
// leaves the book: delivery is at-least-once, and dropping the watermark
// would turn a late duplicate push into a fresh fill.
func (m *Monitor) Watermark(orderID string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.watermarks[orderID]
}
