// Package hedge converts maker fill events into taker orders on the hedge
// venue, exactly once per fill, with bounded retry.
package hedge

import (
	"errors"
	"time"

	"arbbot-go/internal/venue"
)

// ErrUnhedgedExposure marks filled maker inventory that could not be offset
// within the retry budget. It must surface to the risk layer, never be
// dropped.
var ErrUnhedgedExposure = errors.New("unhedged exposure")

// IntentState tracks a hedge through dispatch.
type IntentState string

const (
	// StatePending means the intent exists but has not been sent.
	StatePending IntentState = "PENDING"
	// StateSubmitted means dispatch is in flight.
	StateSubmitted IntentState = "SUBMITTED"
	// StateConfirmed means the hedge venue reported a fill.
	StateConfirmed IntentState = "CONFIRMED"
	// StateFailed means the retry budget is exhausted.
	StateFailed IntentState = "FAILED"
)

// Intent is derived 1:1 from a fill event. FillID doubles as the idempotency
// key; Side is the opposite of the maker fill; MakerPrice is kept for
// realized-spread accounting once the hedge confirms.
type Intent struct {
	FillID     string      `json:"fill_id"`
	OrderID    string      `json:"order_id"`
	ClientID   string      `json:"client_id"`
	Side       venue.Side  `json:"side"`
	Qty        float64     `json:"qty"`
	MakerPrice float64     `json:"maker_price"`
	FillPrice  float64     `json:"fill_price"`
	State      IntentState `json:"state"`
	Attempts   int         `json:"attempts"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Result reports the terminal outcome of one intent's dispatch. Err is
// ErrUnhedgedExposure (possibly wrapped) when the intent failed.
type Result struct {
	Intent Intent
	Err    error
}
