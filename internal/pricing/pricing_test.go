package pricing

import (
	"errors"
	"math"
	"testing"
	"time"

	"arbbot-go/internal/book"
)

func snap(bid, ask float64) book.Snapshot {
	return book.Snapshot{
		Venue: "sim",
		Pair:  "BRETT-USD",
		Bids:  []book.Level{{Price: bid, Size: 100}},
		Asks:  []book.Level{{Price: ask, Size: 100}},
		Ts:    time.Now(),
	}
}

func TestBestBidAskQuotesTheTouch(t *testing.T) {
	cases := []struct{ bid, ask float64 }{
		{1.000, 1.020},
		{0.5213, 0.5214},
		{42000, 42001.5},
	}
	for _, c := range cases {
		q, err := ComputeQuote(snap(c.bid, c.ask), ModeBestBidAsk, Params{OrderSize: 1})
		if err != nil {
			t.Fatalf("ComputeQuote returned error: %v", err)
		}
		if q.Bid != c.bid || q.Ask != c.ask {
			t.Fatalf("expected quote %.4f/%.4f, got %.4f/%.4f", c.bid, c.ask, q.Bid, q.Ask)
		}
		if q.Bid >= q.Ask {
			t.Fatalf("quote invariant violated: bid %.4f >= ask %.4f", q.Bid, q.Ask)
		}
		if q.Size != 1 {
			t.Fatalf("expected size 1, got %.4f", q.Size)
		}
	}
}

func TestMidPriceOffsetIsSymmetric(t *testing.T) {
	for _, offset := range []float64{0.0001, 0.001, 0.01} {
		q, err := ComputeQuote(snap(1.000, 1.020), ModeMidPriceOffset, Params{MidOffset: offset, OrderSize: 2})
		if err != nil {
			t.Fatalf("ComputeQuote returned error: %v", err)
		}
		mid := 1.010
		below := mid - q.Bid
		above := q.Ask - mid
		if math.Abs(below-above) > 1e-12 {
			t.Fatalf("offset %.4f: bid/ask not equidistant from mid (%.10f vs %.10f)", offset, below, above)
		}
		if q.Bid >= q.Ask {
			t.Fatalf("offset %.4f: bid %.6f >= ask %.6f", offset, q.Bid, q.Ask)
		}
	}
}

func TestComputeQuoteRejectsUnusableBooks(t *testing.T) {
	crossed := snap(1.03, 1.02)
	if _, err := ComputeQuote(crossed, ModeBestBidAsk, Params{OrderSize: 1}); !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("expected ErrInvalidSnapshot for crossed book, got %v", err)
	}

	empty := book.Snapshot{Asks: []book.Level{{Price: 1.02, Size: 1}}}
	if _, err := ComputeQuote(empty, ModeMidPriceOffset, Params{MidOffset: 0.001, OrderSize: 1}); !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("expected ErrInvalidSnapshot for one-sided book, got %v", err)
	}
}

func TestComputeQuoteRejectsNonPositiveSize(t *testing.T) {
	if _, err := ComputeQuote(snap(1.00, 1.02), ModeBestBidAsk, Params{}); err == nil {
		t.Fatalf("expected error for zero order size")
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("best_bid_ask"); err != nil || m != ModeBestBidAsk {
		t.Fatalf("expected ModeBestBidAsk, got %v err=%v", m, err)
	}
	if m, err := ParseMode(" MID_PRICE_OFFSET "); err != nil || m != ModeMidPriceOffset {
		t.Fatalf("expected ModeMidPriceOffset, got %v err=%v", m, err)
	}
	if m, err := ParseMode(""); err != nil || m != ModeBestBidAsk {
		t.Fatalf("expected default mode for empty string, got %v err=%v", m, err)
	}
	if _, err := ParseMode("vwap"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}
