// Package pricing computes target maker quotes from order-book snapshots.
package pricing

import (
	"fmt"
	"strings"

	"arbbot-go/internal/book"
)

// ErrInvalidSnapshot aliases the book validation sentinel; callers skip the
// quoting cycle when they see it instead of resting orders against a broken
// book.
var ErrInvalidSnapshot = book.ErrInvalidSnapshot

// Mode selects the quoting strategy. Strategies are a closed set of pure
// functions, not a runtime registry.
type Mode int

const (
	// ModeBestBidAsk quotes at the current touch on both sides.
	ModeBestBidAsk Mode = iota
	// ModeMidPriceOffset quotes symmetrically around the mid price.
	ModeMidPriceOffset
)

// String returns the config spelling of the mode.
func (m Mode) String() string {
	switch m {
	case ModeMidPriceOffset:
		return "mid_price_offset"
	default:
		return "best_bid_ask"
	}
}

// ParseMode maps a config string onto a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "best_bid_ask":
		return ModeBestBidAsk, nil
	case "mid_price_offset":
		return ModeMidPriceOffset, nil
	default:
		return ModeBestBidAsk, fmt.Errorf("unknown pricing mode %q", s)
	}
}

// Params carries the tunable knobs shared by the quoting strategies.
type Params struct {
	// MidOffset is the fractional distance from mid used by
	// ModeMidPriceOffset, e.g. 0.0001 for one basis point.
	MidOffset float64
	// OrderSize is the size quoted on each side.
	OrderSize float64
}

// Quote is a target bid/ask pair derived from one snapshot.
type Quote struct {
	Bid  float64
	Ask  float64
	Size float64
}

// ComputeQuote derives the target quote for a snapshot. Pure: no I/O, no
// state. Fails with ErrInvalidSnapshot for unusable books and callers must
// skip the cycle.
func ComputeQuote(snap book.Snapshot, mode Mode, params Params) (Quote, error) {
	if err := snap.Validate(); err != nil {
		return Quote{}, err
	}
	if params.OrderSize <= 0 {
		return Quote{}, fmt.Errorf("order size must be positive, got %.8f", params.OrderSize)
	}

	bestBid, _ := snap.BestBid()
	bestAsk, _ := snap.BestAsk()

	switch mode {
	case ModeMidPriceOffset:
		mid := (bestBid.Price + bestAsk.Price) / 2
		offset := params.MidOffset
		if offset <= 0 {
			offset = 0.0001
		}
		return Quote{
			Bid:  mid * (1 - offset),
			Ask:  mid * (1 + offset),
			Size: params.OrderSize,
		}, nil
	default:
		return Quote{
			Bid:  bestBid.Price,
			Ask:  bestAsk.Price,
			Size: params.OrderSize,
		}, nil
	}
}
