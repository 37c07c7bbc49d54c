// Package book models venue order-book snapshots consumed by the pricing layer.
package book

import (
	"errors"
	"time"
)

// ErrInvalidSnapshot marks a book that cannot be quoted against: an empty
// side, or a crossed/locked book where best bid >= best ask.
var ErrInvalidSnapshot = errors.New("invalid order book snapshot")

// Level is a single price level.
type Level struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// Snapshot is an immutable view of one venue's order book for one pair.
// Bids are sorted descending by price, asks ascending.
type Snapshot struct {
	Venue string    `json:"venue"`
	Pair  string    `json:"pair"`
	Bids  []Level   `json:"bids"`
	Asks  []Level   `json:"asks"`
	Ts    time.Time `json:"ts"`
}

// BestBid returns the top bid level.
func (s Snapshot) BestBid() (Level, bool) {
	if len(s.Bids) == 0 {
		return Level{}, false
	}
	return s.Bids[0], true
}

// BestAsk returns the top ask level.
func (s Snapshot) BestAsk() (Level, bool) {
	if len(s.Asks) == 0 {
		return Level{}, false
	}
	return s.Asks[0], true
}

// Mid returns the midpoint between the best bid and best ask.
func (s Snapshot) Mid() (float64, bool) {
	bid, okBid := s.BestBid()
	ask, okAsk := s.BestAsk()
	if !okBid || !okAsk {
		return 0, false
	}
	return (bid.Price + ask.Price) / 2, true
}

// Validate reports whether the snapshot is usable for quoting.
func (s Snapshot) Validate() error {
	bid, okBid := s.BestBid()
	ask, okAsk := s.BestAsk()
	if !okBid || !okAsk {
		return ErrInvalidSnapshot
	}
	if bid.Price <= 0 || ask.Price <= 0 {
		return ErrInvalidSnapshot
	}
	if bid.Price >= ask.Price {
		return ErrInvalidSnapshot
	}
	return nil
}

// SpreadPct returns (ask-bid)/mid, the relative width of the touch.
func (s Snapshot) SpreadPct() (float64, bool) {
	bid, okBid := s.BestBid()
	ask, okAsk := s.BestAsk()
	if !okBid || !okAsk {
		return 0, false
	}
	mid := (bid.Price + ask.Price) / 2
	if mid <= 0 {
		return 0, false
	}
	return (ask.Price - bid.Price) / mid, true
}
