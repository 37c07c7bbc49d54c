package fill

import (
	"errors"
	"testing"
	"time"

	"arbbot-go/internal/venue"
)

func update(orderID string, cum float64) venue.OrderStatusUpdate {
	return venue.OrderStatusUpdate{
		OrderID:    orderID,
		Status:     venue.StatusPartFilled,
		Side:       venue.Buy,
		Price:      1.000,
		Size:       100,
		FilledSize: cum,
		Ts:         time.Now(),
	}
}

func TestIngestEmitsDelta(t *testing.T) {
	m := NewMonitor()
	events, err := m.Ingest(update("o-1", 40))
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	ev := events[0]
	if ev.Qty != 40 || ev.OrderID != "o-1" || ev.Side != venue.Buy {
		t.Fatalf("unexpected event: %+v", ev)
	}

	events, err = m.Ingest(update("o-1", 100))
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}
	if len(events) != 1 || events[0].Qty != 60 {
		t.Fatalf("expected delta 60, got %+v", events)
	}
}

func TestIngestDuplicatePushIsIdempotent(t *testing.T) {
	m := NewMonitor()
	u := update("o-1", 50)

	first, err := m.Ingest(u)
	if err != nil || len(first) != 1 {
		t.Fatalf("expected one event, got %v err=%v", first, err)
	}
	second, err := m.Ingest(u)
	if err != nil {
		t.Fatalf("Ingest returned error on duplicate: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("expected no event on duplicate push, got %+v", second)
	}
}

func TestIngestDuplicateSynthesizesSameFillID(t *testing.T) {
	a := NewMonitor()
	b := NewMonitor()
	u := update("o-1", 50)
	evA, _ := a.Ingest(u)
	evB, _ := b.Ingest(u)
	if evA[0].FillID != evB[0].FillID {
		t.Fatalf("expected deterministic fill id, got %q vs %q", evA[0].FillID, evB[0].FillID)
	}
}

func TestIngestDiscardsStaleUpdate(t *testing.T) {
	m := NewMonitor()
	if _, err := m.Ingest(update("o-1", 80)); err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}
	events, err := m.Ingest(update("o-1", 30))
	if !errors.Is(err, ErrStaleUpdate) {
		t.Fatalf("expected ErrStaleUpdate, got %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events from stale update")
	}
	if m.Watermark("o-1") != 80 {
		t.Fatalf("expected watermark to hold at 80, got %.2f", m.Watermark("o-1"))
	}
}

func TestWatermarksAreIndependentAcrossOrders(t *testing.T) {
	m := NewMonitor()
	if _, err := m.Ingest(update("bid-1", 70)); err != nil {
		t.Fatalf("Ingest bid: %v", err)
	}
	askUpdate := update("ask-1", 20)
	askUpdate.Side = venue.Sell
	events, err := m.Ingest(askUpdate)
	if err != nil {
		t.Fatalf("Ingest ask: %v", err)
	}
	if len(events) != 1 || events[0].Qty != 20 || events[0].Side != venue.Sell {
		t.Fatalf("expected independent ask fill, got %+v", events)
	}
	if m.Watermark("bid-1") != 70 || m.Watermark("ask-1") != 20 {
		t.Fatalf("watermarks coupled: bid=%.0f ask=%.0f", m.Watermark("bid-1"), m.Watermark("ask-1"))
	}
}

func TestIngestIgnoresEmptyOrderID(t *testing.T) {
	m := NewMonitor()
	events, err := m.Ingest(venue.OrderStatusUpdate{FilledSize: 10})
	if err != nil || len(events) != 0 {
		t.Fatalf("expected no-op for empty order id, got %v err=%v", events, err)
	}
}
