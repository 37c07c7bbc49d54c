// Package order owns resting maker-order state and the replace/cancel/place
// decisions that keep quotes aligned with pricing targets.
package order

import (
	"errors"

	"arbbot-go/internal/venue"
)

// ErrUnknownOrder is returned for updates that match no tracked order.
var ErrUnknownOrder = errors.New("order not tracked")

// State tracks the lifecycle of a maker order. Placement and cancellation
// acks are asynchronous, so orders pass through pending states before the
// venue confirms they exist or are gone.
type State int

const (
	// StatePendingPlace means the placement request is in flight.
	StatePendingPlace State = iota
	// StateOpen means the venue acknowledged the resting order.
	StateOpen
	// StatePartFilled means some quantity filled; cumulative fill only grows.
	StatePartFilled
	// StatePendingCancel means a cancel request is in flight. The order can
	// still fill until the venue confirms.
	StatePendingCancel
	// StateFilled is terminal: the full size executed.
	StateFilled
	// StateCancelled is terminal: the venue confirmed the cancel.
	StateCancelled
	// StateRejected is terminal: the venue refused the placement.
	StateRejected
)

// String renders the state for logs.
func (s State) String() string {
	switch s {
	case StatePendingPlace:
		return "PENDING_PLACE"
	case StateOpen:
		return "OPEN"
	case StatePartFilled:
		return "PARTIALLY_FILLED"
	case StatePendingCancel:
		return "PENDING_CANCEL"
	case StateFilled:
		return "FILLED"
	case StateCancelled:
		return "CANCELLED"
	case StateRejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether the order has left the book for good.
func (s State) Terminal() bool {
	switch s {
	case StateFilled, StateCancelled, StateRejected:
		return true
	default:
		return false
	}
}

// MakerOrder is the manager's view of one resting order. ID stays empty
// until the venue acknowledges the placement; ClientID identifies the order
// before that. Filled is cumulative and never decreases. Version bumps on
// every transition for optimistic-concurrency readers.
type MakerOrder struct {
	ID       string
	ClientID string
	Side     venue.Side
	Price    float64
	Size     float64
	Filled   float64
	State    State
	Version  uint64
}
