package fill

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"arbbot-go/internal/venue"
)

func TestJSONLRecorderWritesEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fills", "out.jsonl")
	rec, err := NewJSONLRecorder(path)
	if err != nil {
		t.Fatalf("NewJSONLRecorder returned error: %v", err)
	}

	rec.Record(Event{FillID: "o-1@40", OrderID: "o-1", Side: venue.Buy, Price: 1.0, Qty: 40, Ts: time.Now()})
	rec.Record(Event{FillID: "o-1@100", OrderID: "o-1", Side: venue.Buy, Price: 1.0, Qty: 60, Ts: time.Now()})
	if err := rec.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("second Close returned error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open recorded file: %v", err)
	}
	defer f.Close()

	var got []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		got = append(got, ev)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 recorded events, got %d", len(got))
	}
	if got[0].FillID != "o-1@40" || got[1].Qty != 60 {
		t.Fatalf("unexpected events: %+v", got)
	}
}

func TestLogSnapshotAndReset(t *testing.T) {
	l := NewLog(4)
	l.Record(Event{FillID: "a"})
	l.Record(Event{FillID: "b"})

	snap := l.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 events, got %d", len(snap))
	}
	snap[0].FillID = "mutated"
	if l.Snapshot()[0].FillID != "a" {
		t.Fatalf("snapshot must be a copy")
	}

	l.Reset()
	if len(l.Snapshot()) != 0 {
		t.Fatalf("expected empty log after reset")
	}
}
