package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"chart_go/internal/chart"

	_ "github.com/glebarez/go-sqlite"
)

// ViewportStore persists viewport entries in SQLite, local to the client
// device. Eviction and TTL policy live in the chart layer; this store only
// round-trips the ordered entry list.
type ViewportStore struct {
	db *sql.DB
}

// NewViewportStore opens (or creates) the viewport database.
func NewViewportStore(dbPath string) (*ViewportStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	// pos preserves newest-first ordering across round trips.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS viewports (
			pos INTEGER PRIMARY KEY,
			key TEXT NOT NULL,
			payload TEXT NOT NULL,
			saved_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create viewports table: %w", err)
	}

	return &ViewportStore{db: db}, nil
}

// Load returns all stored entries, newest first. A row whose payload does
// not parse is skipped: a corrupted entry is a cache miss, never an error.
func (s *ViewportStore) Load(ctx context.Context) ([]chart.ViewportEntry, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT payload FROM viewports ORDER BY pos ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query viewports: %w", err)
	}
	defer rows.Close()

	var entries []chart.ViewportEntry
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan viewport row: %w", err)
		}

		var e chart.ViewportEntry
		if err := json.Unmarshal(payload, &e); err != nil {
			slog.Warn("Skipping corrupted viewport entry", slog.Any("error", err))
			continue
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return entries, nil
}

// Save replaces the stored set with entries, preserving their order.
func (s *ViewportStore) Save(ctx context.Context, entries []chart.ViewportEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM viewports"); err != nil {
		return fmt.Errorf("failed to clear viewports: %w", err)
	}

	for i, e := range entries {
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to marshal viewport entry: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO viewports (pos, key, payload, saved_at) VALUES (?, ?, ?, ?)",
			i, e.Key, payload, e.SavedAtUnix,
		)
		if err != nil {
			return fmt.Errorf("failed to insert viewport entry: %w", err)
		}
	}

	return tx.Commit()
}

// Close closes the database connection.
func (s *ViewportStore) Close() error {
	return s.db.Close()
}
