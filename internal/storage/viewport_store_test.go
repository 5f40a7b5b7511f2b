package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"chart_go/internal/chart"
)

func newTestStore(t *testing.T) *ViewportStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "viewports.db")
	store, err := NewViewportStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestViewportStore_SaveAndLoad(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entries := []chart.ViewportEntry{
		{Key: "BTCUSDT:5m", From: 10, To: 90, RightOffset: 3, BarSpacing: 8, SavedAtUnix: 2000},
		{Key: "ETHUSDT:1m", From: 0, To: 50, RightOffset: 0, BarSpacing: 6, SavedAtUnix: 1000},
	}

	if err := store.Save(ctx, entries); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(loaded) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(loaded))
	}
	// Order must survive the round trip: newest first.
	if loaded[0].Key != "BTCUSDT:5m" || loaded[1].Key != "ETHUSDT:1m" {
		t.Errorf("Order not preserved: %+v", loaded)
	}
	if loaded[0].From != 10 || loaded[0].To != 90 || loaded[0].BarSpacing != 8 {
		t.Errorf("Entry fields mismatch: %+v", loaded[0])
	}
}

func TestViewportStore_SaveReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := []chart.ViewportEntry{{Key: "A:1m", SavedAtUnix: 1}}
	second := []chart.ViewportEntry{{Key: "B:1m", SavedAtUnix: 2}}

	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Key != "B:1m" {
		t.Fatalf("Expected replaced set with B:1m only, got %+v", loaded)
	}
}

func TestViewportStore_CorruptedEntrySkipped(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, []chart.ViewportEntry{{Key: "A:1m", SavedAtUnix: 1}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Corrupt a payload directly; the load must degrade to a miss for
	// that row, not an error.
	if _, err := store.db.Exec(`INSERT INTO viewports (pos, key, payload, saved_at) VALUES (1, 'X', 'not-json', 5)`); err != nil {
		t.Fatalf("Failed to inject corrupt row: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Key != "A:1m" {
		t.Fatalf("Expected corrupt row skipped, got %+v", loaded)
	}
}

func TestViewportStore_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "viewports.db")
	ctx := context.Background()

	store, err := NewViewportStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if err := store.Save(ctx, []chart.ViewportEntry{{Key: "A:1m", SavedAtUnix: 7}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	store.Close()

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("DB file missing: %v", err)
	}

	reopened, err := NewViewportStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()

	loaded, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].SavedAtUnix != 7 {
		t.Fatalf("Durability broken: %+v", loaded)
	}
}
