// Package venue defines the order vocabulary shared across the engine and the
// collaborator contracts implemented by exchange connectors.
package venue

import (
	"errors"
	"time"
)

var (
	// ErrPlacementRejected indicates the venue refused a new order.
	ErrPlacementRejected = errors.New("order placement rejected")
	// ErrCancelRejected indicates the venue refused a cancel request,
	// typically because the order already filled.
	ErrCancelRejected = errors.New("order cancel rejected")
	// ErrOrderNotFound indicates the venue does not know the order id.
	ErrOrderNotFound = errors.New("order not found")
)

// Side enumerates order directions.
type Side string

const (
	// Buy indicates a long order.
	Buy Side = "BUY"
	// Sell indicates a short order.
	Sell Side = "SELL"
)

// Opposite returns the hedging direction for a filled order.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// OrderStatus enumerates the venue-reported lifecycle of a resting order.
type OrderStatus string

const (
	StatusOpen       OrderStatus = "OPEN"
	StatusPartFilled OrderStatus = "PARTIALLY_FILLED"
	StatusFilled     OrderStatus = "FILLED"
	StatusCancelled  OrderStatus = "CANCELLED"
	StatusRejected   OrderStatus = "REJECTED"
)

// OrderStatusUpdate is one venue push (or poll result) for a single order.
// FilledSize is cumulative; duplicates and re-deliveries must be tolerated
// downstream. Per-order updates arrive in order, cross-order ordering is not
// guaranteed.
type OrderStatusUpdate struct {
	OrderID    string      `json:"order_id"`
	Status     OrderStatus `json:"status"`
	Side       Side        `json:"side"`
	Price      float64     `json:"price"`
	Size       float64     `json:"size"`
	FilledSize float64     `json:"filled_size"`
	Ts         time.Time   `json:"ts"`
}

// OrderRequest describes a maker limit order placement.
type OrderRequest struct {
	ClientID string
	Side     Side
	Price    float64
	Size     float64
}
