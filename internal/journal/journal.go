// Package journal persists unfinished hedge intents across restarts so a
// shutdown mid-hedge never loses track of exposure.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/glebarez/go-sqlite"

	"arbbot-go/internal/hedge"
)

// Store is a SQLite-backed intent journal.
type Store struct {
	db *sql.DB
}

// Open creates or opens the journal database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS hedge_intents (
			fill_id TEXT PRIMARY KEY,
			state TEXT NOT NULL,
			payload BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create hedge_intents table: %w", err)
	}

	return &Store{db: db}, nil
}

// SavePending upserts every unfinished intent.
func (s *Store) SavePending(ctx context.Context, intents []hedge.Intent) error {
	for _, in := range intents {
		if in.FillID == "" {
			continue
		}
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal intent %s: %w", in.FillID, err)
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO hedge_intents (fill_id, state, payload, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(fill_id) DO UPDATE SET state=excluded.state, payload=excluded.payload, updated_at=excluded.updated_at`,
			in.FillID, string(in.State), payload, in.UpdatedAt.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("upsert intent %s: %w", in.FillID, err)
		}
	}
	return nil
}

// LoadPending returns every journaled intent, oldest first.
func (s *Store) LoadPending(ctx context.Context) ([]hedge.Intent, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT payload FROM hedge_intents ORDER BY updated_at ASC")
	if err != nil {
		return nil, fmt.Errorf("query intents: %w", err)
	}
	defer rows.Close()

	var out []hedge.Intent
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan intent: %w", err)
		}
		var in hedge.Intent
		if err := json.Unmarshal(payload, &in); err != nil {
			return nil, fmt.Errorf("decode intent: %w", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// Clear removes an intent once its hedge confirmed.
func (s *Store) Clear(ctx context.Context, fillID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM hedge_intents WHERE fill_id = ?", fillID)
	return err
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
