package order

import (
	"math"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"arbbot-go/internal/pricing"
	"arbbot-go/internal/venue"
)

// Actions is the outcome of one reconcile pass: cancels to issue and
// placements to send. Cancelled orders are already marked PENDING_CANCEL;
// placements are already tracked as PENDING_PLACE under their client id.
type Actions struct {
	Cancels []MakerOrder
	Places  []venue.OrderRequest
}

// Manager owns at most one resting bid and one resting ask for a single
// pair. All decisions flow through Reconcile plus the ack/status handlers;
// callers perform the venue I/O.
type Manager struct {
	mu        sync.Mutex
	log       zerolog.Logger
	threshold float64
	bid       *MakerOrder
	ask       *MakerOrder
}

// NewManager builds a manager with the fractional price-update threshold
// that gates order replacement.
func NewManager(threshold float64, log zerolog.Logger) *Manager {
	if threshold <= 0 {
		threshold = 0.001
	}
	return &Manager{threshold: threshold, log: log}
}

// Reconcile compares the current quote against resting orders and returns
// the venue operations needed to converge. A side with an outstanding
// PENDING_PLACE or PENDING_CANCEL is left untouched until its ack arrives;
// a resting order is replaced only when its price drifts beyond the
// threshold. Replacement is cancel-first: the fresh placement happens on a
// later pass once the cancel is confirmed.
func (m *Manager) Reconcile(q pricing.Quote) Actions {
	m.mu.Lock()
	defer m.mu.Unlock()

	var actions Actions
	m.reconcileSide(&m.bid, venue.Buy, q.Bid, q.Size, &actions)
	m.reconcileSide(&m.ask, venue.Sell, q.Ask, q.Size, &actions)
	return actions
}

func (m *Manager) reconcileSide(slot **MakerOrder, side venue.Side, target, size float64, actions *Actions) {
	o := *slot
	if o == nil {
		req := venue.OrderRequest{
			ClientID: uuid.NewString(),
			Side:     side,
			Price:    target,
			Size:     size,
		}
		*slot = &MakerOrder{
			ClientID: req.ClientID,
			Side:     side,
			Price:    target,
			Size:     size,
			State:    StatePendingPlace,
		}
		actions.Places = append(actions.Places, req)
		return
	}

	switch o.State {
	case StatePendingPlace, StatePendingCancel:
		// Ack outstanding: never stack a second operation on this side.
		return
	case StateOpen, StatePartFilled:
		if o.Price <= 0 {
			return
		}
		drift := math.Abs(target-o.Price) / o.Price
		if drift > m.threshold {
			o.State = StatePendingCancel
			o.Version++
			actions.Cancels = append(actions.Cancels, *o)
			m.log.Info().
				Str("side", string(side)).
				Float64("resting", o.Price).
				Float64("target", target).
				Msg("replacing drifted order")
		}
	}
}

// CancelAll marks every resting order PENDING_CANCEL and returns them for
// the shutdown sweep.
func (m *Manager) CancelAll() []MakerOrder {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []MakerOrder
	for _, o := range []*MakerOrder{m.bid, m.ask} {
		if o == nil || o.State.Terminal() || o.State == StatePendingCancel {
			continue
		}
		if o.ID == "" {
			// Placement never acknowledged; nothing to cancel yet.
			continue
		}
		o.State = StatePendingCancel
		o.Version++
		out = append(out, *o)
	}
	return out
}

// MarkPlaced records the venue-assigned id for an acknowledged placement.
func (m *Manager) MarkPlaced(clientID, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o := m.byClient(clientID)
	if o == nil {
		return ErrUnknownOrder
	}
	o.ID = orderID
	if o.State == StatePendingPlace {
		o.State = StateOpen
	}
	o.Version++
	return nil
}

// MarkPlaceRejected frees the side after a refused placement. No retry this
// cycle: the next reconcile re-evaluates with a fresh quote.
func (m *Manager) MarkPlaceRejected(clientID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o := m.byClient(clientID)
	if o == nil {
		return ErrUnknownOrder
	}
	o.State = StateRejected
	o.Version++
	m.clear(o)
	return nil
}

// MarkCancelled frees the side after a confirmed cancel.
func (m *Manager) MarkCancelled(orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o := m.byID(orderID)
	if o == nil {
		return ErrUnknownOrder
	}
	o.State = StateCancelled
	o.Version++
	m.clear(o)
	return nil
}

// MarkCancelRejected keeps the order tracked after a refused cancel. The
// usual cause is a fill racing the cancel; the caller must re-query status
// and route any fill through ApplyStatus.
func (m *Manager) MarkCancelRejected(orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if o := m.byID(orderID); o == nil {
		return ErrUnknownOrder
	}
	return nil
}

// ApplyStatus folds a venue status update into the tracked order. Cumulative
// fill never decreases; terminal states free the side. The returned snapshot
// reflects the post-update order.
func (m *Manager) ApplyStatus(u venue.OrderStatusUpdate) (MakerOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o := m.byID(u.OrderID)
	if o == nil {
		return MakerOrder{}, ErrUnknownOrder
	}

	if u.FilledSize > o.Filled {
		o.Filled = u.FilledSize
	}

	switch u.Status {
	case venue.StatusOpen:
		if o.State == StatePendingPlace {
			o.State = StateOpen
		}
	case venue.StatusPartFilled:
		if o.State == StateOpen || o.State == StatePendingPlace {
			o.State = StatePartFilled
		}
		// A PENDING_CANCEL order keeps its state; the fill still counted.
	case venue.StatusFilled:
		o.State = StateFilled
	case venue.StatusCancelled:
		o.State = StateCancelled
	case venue.StatusRejected:
		o.State = StateRejected
	}
	o.Version++

	snap := *o
	if o.State.Terminal() {
		m.clear(o)
	}
	return snap, nil
}

// Open returns snapshots of the currently tracked orders.
func (m *Manager) Open() []MakerOrder {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []MakerOrder
	for _, o := range []*MakerOrder{m.bid, m.ask} {
		if o != nil {
			out = append(out, *o)
		}
	}
	return out
}

// RestingIDs returns the venue ids of orders believed to still be on the
// book, for the shutdown cancel sweep.
func (m *Manager) RestingIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []string
	for _, o := range []*MakerOrder{m.bid, m.ask} {
		if o != nil && o.ID != "" && !o.State.Terminal() {
			out = append(out, o.ID)
		}
	}
	return out
}

// byClient and byID are lookup helpers; caller holds the lock.
func (m *Manager) byClient(clientID string) *MakerOrder {
	for _, o := range []*MakerOrder{m.bid, m.ask} {
		if o != nil && o.ClientID == clientID {
			return o
		}
	}
	return nil
}

func (m *Manager) byID(orderID string) *MakerOrder {
	for _, o := range []*MakerOrder{m.bid, m.ask} {
		if o != nil && o.ID == orderID {
			return o
		}
	}
	return nil
}

func (m *Manager) clear(o *MakerOrder) {
	if m.bid == o {
		m.bid = nil
	}
	if m.ask == o {
		m.ask = nil
	}
}
