package venue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"arbbot-go/internal/book"
)

// SimMaker is an in-process maker venue used for offline runs and tests.
// It serves a deterministic drifting book and fills resting orders a fixed
// number of status ticks after placement.
type SimMaker struct {
	mu        sync.Mutex
	venue     string
	mid       float64
	spread    float64
	depth     float64
	drift     float64
	fillTicks int
	fillStep  float64
	seq       int
	orders    map[string]*simOrder
	clock     Clock
}

type simOrder struct {
	req    OrderRequest
	id     string
	filled float64
	ticks  int
	status OrderStatus
}

// SimMakerOption configures SimMaker construction.
type SimMakerOption func(*SimMaker)

// WithSimDrift sets the per-snapshot mid price drift.
func WithSimDrift(d float64) SimMakerOption {
	return func(m *SimMaker) { m.drift = d }
}

// WithSimFills configures how quickly resting orders fill: after ticks status
// ticks an order starts filling in steps of step*size per tick.
func WithSimFills(ticks int, step float64) SimMakerOption {
	return func(m *SimMaker) {
		if ticks >= 0 {
			m.fillTicks = ticks
		}
		if step > 0 {
			m.fillStep = step
		}
	}
}

// WithSimClock overrides the clock used for snapshot and update timestamps.
func WithSimClock(c Clock) SimMakerOption {
	return func(m *SimMaker) {
		if c != nil {
			m.clock = c
		}
	}
}

// NewSimMaker builds a simulated maker venue around a starting mid price and
// absolute spread.
func NewSimMaker(mid, spread float64, opts ...SimMakerOption) *SimMaker {
	m := &SimMaker{
		venue:     "sim-maker",
		mid:       mid,
		spread:    spread,
		depth:     100,
		fillTicks: 3,
		fillStep:  0.5,
		orders:    make(map[string]*simOrder),
		clock:     RealClock(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OrderBook returns the current simulated book and advances the mid by the
// configured drift.
func (m *SimMaker) OrderBook(_ context.Context, pair string) (book.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := book.Snapshot{
		Venue: m.venue,
		Pair:  pair,
		Bids: []book.Level{
			{Price: m.mid - m.spread/2, Size: m.depth},
			{Price: m.mid - m.spread, Size: m.depth * 2},
		},
		Asks: []book.Level{
			{Price: m.mid + m.spread/2, Size: m.depth},
			{Price: m.mid + m.spread, Size: m.depth * 2},
		},
		Ts: m.clock.Now(),
	}
	m.mid += m.drift
	return snap, nil
}

// PlaceOrder records a resting order and returns its venue-assigned id.
func (m *SimMaker) PlaceOrder(_ context.Context, req OrderRequest) (string, error) {
	if req.Size <= 0 || req.Price <= 0 {
		return "", ErrPlacementRejected
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	id := fmt.Sprintf("sim-%d", m.seq)
	m.orders[id] = &simOrder{req: req, id: id, status: StatusOpen}
	return id, nil
}

// CancelOrder removes a resting order. Cancelling a filled order fails with
// ErrCancelRejected, mirroring the race a real venue exposes.
func (m *SimMaker) CancelOrder(_ context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	if o.status == StatusFilled {
		return ErrCancelRejected
	}
	o.status = StatusCancelled
	return nil
}

// OrderStatus reports the current order state, advancing the fill simulation
// one tick.
func (m *SimMaker) OrderStatus(_ context.Context, orderID string) (OrderStatusUpdate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return OrderStatusUpdate{}, ErrOrderNotFound
	}
	m.advance(o)
	return m.update(o), nil
}

// StreamOrderStatus pushes one update per live order on a fixed cadence until
// the context ends.
func (m *SimMaker) StreamOrderStatus(ctx context.Context, out chan<- OrderStatusUpdate) error {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, u := range m.tickAll() {
				select {
				case out <- u:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}

func (m *SimMaker) tickAll() []OrderStatusUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	updates := make([]OrderStatusUpdate, 0, len(m.orders))
	for _, o := range m.orders {
		if o.status == StatusCancelled || o.status == StatusRejected {
			continue
		}
		m.advance(o)
		updates = append(updates, m.update(o))
	}
	return updates
}

// advance moves an open order toward filled once its tick delay elapses.
// Caller holds the lock.
func (m *SimMaker) advance(o *simOrder) {
	if o.status == StatusFilled || o.status == StatusCancelled || o.status == StatusRejected {
		return
	}
	o.ticks++
	if o.ticks <= m.fillTicks {
		return
	}
	o.filled += o.req.Size * m.fillStep
	if o.filled >= o.req.Size {
		o.filled = o.req.Size
		o.status = StatusFilled
	} else {
		o.status = StatusPartFilled
	}
}

func (m *SimMaker) update(o *simOrder) OrderStatusUpdate {
	return OrderStatusUpdate{
		OrderID:    o.id,
		Status:     o.status,
		Side:       o.req.Side,
		Price:      o.req.Price,
		Size:       o.req.Size,
		FilledSize: o.filled,
		Ts:         m.clock.Now(),
	}
}

// SimHedge is an in-process hedge venue that fills market orders at the
// current mid plus a fixed slippage, optionally failing the first few calls
// to exercise retry paths.
type SimHedge struct {
	mu          sync.Mutex
	venue       string
	mid         float64
	spread      float64
	slippageBps float64
	failFirst   int
	calls       int
	clock       Clock
}

// NewSimHedge builds a simulated hedge venue.
func NewSimHedge(mid, spread, slippageBps float64) *SimHedge {
	return &SimHedge{
		venue:       "sim-hedge",
		mid:         mid,
		spread:      spread,
		slippageBps: slippageBps,
		clock:       RealClock(),
	}
}

// FailFirst makes the next n market orders return an error before recovering.
func (h *SimHedge) FailFirst(n int) {
	h.mu.Lock()
	h.failFirst = n
	h.calls = 0
	h.mu.Unlock()
}

// SetMid moves the simulated hedge venue price.
func (h *SimHedge) SetMid(mid float64) {
	h.mu.Lock()
	h.mid = mid
	h.mu.Unlock()
}

// OrderBook returns the hedge venue's current two-level book.
func (h *SimHedge) OrderBook(_ context.Context, pair string) (book.Snapshot, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return book.Snapshot{
		Venue: h.venue,
		Pair:  pair,
		Bids:  []book.Level{{Price: h.mid - h.spread/2, Size: 500}},
		Asks:  []book.Level{{Price: h.mid + h.spread/2, Size: 500}},
		Ts:    h.clock.Now(),
	}, nil
}

// PlaceMarketOrder crosses the simulated spread and reports the fill price.
func (h *SimHedge) PlaceMarketOrder(_ context.Context, side Side, size float64) (float64, error) {
	if size <= 0 {
		return 0, fmt.Errorf("invalid market order size %.8f", size)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	if h.calls <= h.failFirst {
		return 0, fmt.Errorf("sim hedge venue unavailable (call %d)", h.calls)
	}
	slip := h.mid * h.slippageBps / 10000
	if side == Buy {
		return h.mid + h.spread/2 + slip, nil
	}
	return h.mid - h.spread/2 - slip, nil
}
