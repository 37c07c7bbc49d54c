package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"arbbot-go/internal/hedge"
	"arbbot-go/internal/venue"
)

func TestSaveLoadClearRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer store.Close()

	now := time.Now().UTC().Truncate(time.Millisecond)
	intents := []hedge.Intent{
		{FillID: "o-1@50", OrderID: "o-1", Side: venue.Sell, Qty: 50, MakerPrice: 1.000, State: hedge.StatePending, UpdatedAt: now},
		{FillID: "o-2@10", OrderID: "o-2", Side: venue.Buy, Qty: 10, MakerPrice: 1.020, State: hedge.StateFailed, Attempts: 3, UpdatedAt: now.Add(time.Second)},
	}
	if err := store.SavePending(context.Background(), intents); err != nil {
		t.Fatalf("SavePending returned error: %v", err)
	}

	loaded, err := store.LoadPending(context.Background())
	if err != nil {
		t.Fatalf("LoadPending returned error: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 intents, got %d", len(loaded))
	}
	if loaded[0].FillID != "o-1@50" || loaded[0].Qty != 50 || loaded[0].Side != venue.Sell {
		t.Fatalf("unexpected first intent: %+v", loaded[0])
	}
	if loaded[1].State != hedge.StateFailed || loaded[1].Attempts != 3 {
		t.Fatalf("unexpected second intent: %+v", loaded[1])
	}

	if err := store.Clear(context.Background(), "o-1@50"); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	loaded, err = store.LoadPending(context.Background())
	if err != nil {
		t.Fatalf("LoadPending returned error: %v", err)
	}
	if len(loaded) != 1 || loaded[0].FillID != "o-2@10" {
		t.Fatalf("expected only o-2@10 left, got %+v", loaded)
	}
}

func TestSavePendingUpsertsByFillID(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer store.Close()

	in := hedge.Intent{FillID: "o-1@50", State: hedge.StatePending, Qty: 50, UpdatedAt: time.Now()}
	if err := store.SavePending(context.Background(), []hedge.Intent{in}); err != nil {
		t.Fatalf("SavePending returned error: %v", err)
	}
	in.State = hedge.StateFailed
	in.Attempts = 2
	if err := store.SavePending(context.Background(), []hedge.Intent{in}); err != nil {
		t.Fatalf("SavePending upsert returned error: %v", err)
	}

	loaded, err := store.LoadPending(context.Background())
	if err != nil {
		t.Fatalf("LoadPending returned error: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected single row after upsert, got %d", len(loaded))
	}
	if loaded[0].State != hedge.StateFailed || loaded[0].Attempts != 2 {
		t.Fatalf("expected updated payload, got %+v", loaded[0])
	}
}

func TestReopenKeepsJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	in := hedge.Intent{FillID: "o-1@50", State: hedge.StatePending, UpdatedAt: time.Now()}
	if err := store.SavePending(context.Background(), []hedge.Intent{in}); err != nil {
		t.Fatalf("SavePending returned error: %v", err)
	}
	store.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	defer reopened.Close()
	loaded, err := reopened.LoadPending(context.Background())
	if err != nil {
		t.Fatalf("LoadPending returned error: %v", err)
	}
	if len(loaded) != 1 || loaded[0].FillID != "o-1@50" {
		t.Fatalf("expected journaled intent to survive reopen, got %+v", loaded)
	}
}
