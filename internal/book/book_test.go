package book

import (
	"errors"
	"testing"
	"time"
)

func snap(bids, asks []Level) Snapshot {
	return Snapshot{Venue: "sim", Pair: "BRETT-USD", Bids: bids, Asks: asks, Ts: time.Now()}
}

func TestValidateHealthyBook(t *testing.T) {
	s := snap([]Level{{Price: 1.000, Size: 100}}, []Level{{Price: 1.020, Size: 100}})
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
}

func TestValidateRejectsEmptySides(t *testing.T) {
	cases := []Snapshot{
		snap(nil, []Level{{Price: 1.02, Size: 1}}),
		snap([]Level{{Price: 1.00, Size: 1}}, nil),
		snap(nil, nil),
	}
	for i, s := range cases {
		if err := s.Validate(); !errors.Is(err, ErrInvalidSnapshot) {
			t.Fatalf("case %d: expected ErrInvalidSnapshot, got %v", i, err)
		}
	}
}

func TestValidateRejectsCrossedAndLockedBooks(t *testing.T) {
	crossed := snap([]Level{{Price: 1.03, Size: 1}}, []Level{{Price: 1.02, Size: 1}})
	if err := crossed.Validate(); !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("expected ErrInvalidSnapshot for crossed book, got %v", err)
	}
	locked := snap([]Level{{Price: 1.02, Size: 1}}, []Level{{Price: 1.02, Size: 1}})
	if err := locked.Validate(); !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("expected ErrInvalidSnapshot for locked book, got %v", err)
	}
}

func TestMidAndSpreadPct(t *testing.T) {
	s := snap([]Level{{Price: 1.000, Size: 100}}, []Level{{Price: 1.020, Size: 100}})
	mid, ok := s.Mid()
	if !ok || mid != 1.010 {
		t.Fatalf("expected mid 1.010, got %.4f ok=%v", mid, ok)
	}
	pct, ok := s.SpreadPct()
	if !ok {
		t.Fatalf("expected spread pct")
	}
	want := 0.020 / 1.010
	if diff := pct - want; diff > 1e-12 || diff < -1e-12 {
		t.Fatalf("expected spread pct %.8f, got %.8f", want, pct)
	}
}
