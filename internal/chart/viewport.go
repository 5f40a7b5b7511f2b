package chart

import (
	"context"
	"log/slog"
	"time"
)

// ViewportEntry is one persisted visible window for an instrument+timeframe
// key. Entries are never mutated in place; a persist replaces the entry for
// its key.
type ViewportEntry struct {
	Key         string  `json:"key"`
	From        float64 `json:"from"`
	To          float64 `json:"to"`
	RightOffset float64 `json:"right_offset"`
	BarSpacing  float64 `json:"bar_spacing"`
	SavedAtUnix int64   `json:"saved_at"`
}

// ViewportStore is the durable backing for viewport entries. Eviction and
// TTL filtering live in the keeper; the store only round-trips the list.
type ViewportStore interface {
	Load(ctx context.Context) ([]ViewportEntry, error)
	Save(ctx context.Context, entries []ViewportEntry) error
}

// ViewportKeeper persists and restores the visible window per key, bounded
// to cfg.ViewportMax entries with cfg.ViewportTTL expiry, and coalesces
// rapid pan/zoom events into one debounced write.
type ViewportKeeper struct {
	surface RenderSurface
	store   ViewportStore
	sched   Scheduler
	cfg     Config
	now     func() time.Time

	restoredKey string
	pendingGen  int
	cancelPend  func()
}

// NewViewportKeeper wires the keeper to a surface and store.
func NewViewportKeeper(surface RenderSurface, store ViewportStore, sched Scheduler, cfg Config) *ViewportKeeper {
	return &ViewportKeeper{
		surface: surface,
		store:   store,
		sched:   sched,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Restore applies the stored viewport for key if a live entry exists.
// It reports whether a restore occurred; on a miss the caller auto-fits.
func (k *ViewportKeeper) Restore(key string) bool {
	entries, err := k.store.Load(context.Background())
	if err != nil {
		slog.Warn("Viewport load failed, treating as miss", slog.Any("error", err))
		return false
	}

	for _, e := range k.active(entries) {
		if e.Key != key {
			continue
		}
		spacing := clamp(e.BarSpacing, k.cfg.MinBarSpacing, k.cfg.MaxBarSpacing)
		k.surface.SetRightOffset(e.RightOffset)
		k.surface.SetBarSpacing(spacing)
		k.surface.SetVisibleRange(LogicalRange{From: e.From, To: e.To})
		return true
	}
	return false
}

// RestoreOrFit runs the restore-or-fit decision once per key. Repeated full
// replaces for the same key do not re-restore and stomp user navigation.
func (k *ViewportKeeper) RestoreOrFit(key string) {
	if k.restoredKey == key {
		return
	}
	k.restoredKey = key
	if !k.Restore(key) {
		k.surface.FitContent()
	}
}

// Persist writes the current visible window for key, displacing any prior
// entry for the same key and truncating to the bounded size. No-op when the
// surface has no visible range yet.
func (k *ViewportKeeper) Persist(key string) {
	vr, ok := k.surface.VisibleRange()
	if !ok {
		return
	}

	entry := ViewportEntry{
		Key:         key,
		From:        vr.From,
		To:          vr.To,
		RightOffset: k.surface.RightOffset(),
		BarSpacing:  k.surface.BarSpacing(),
		SavedAtUnix: k.now().Unix(),
	}

	stored, err := k.store.Load(context.Background())
	if err != nil {
		slog.Warn("Viewport load failed before persist", slog.Any("error", err))
		stored = nil
	}

	next := make([]ViewportEntry, 0, k.cfg.ViewportMax)
	next = append(next, entry)
	for _, e := range k.active(stored) {
		if e.Key == key {
			continue
		}
		if len(next) == k.cfg.ViewportMax {
			break
		}
		next = append(next, e)
	}

	if err := k.store.Save(context.Background(), next); err != nil {
		slog.Warn("Viewport persist failed", slog.String("key", key), slog.Any("error", err))
	}
}

// SchedulePersist coalesces rapid pan/zoom events into one write. A single
// pending timer exists per keeper; rescheduling cancels the previous one.
func (k *ViewportKeeper) SchedulePersist(key string) {
	k.pendingGen++
	gen := k.pendingGen
	if k.cancelPend != nil {
		k.cancelPend()
	}
	k.cancelPend = k.sched.After(k.cfg.PersistDebounce, func() {
		if gen != k.pendingGen {
			return // superseded while queued
		}
		k.cancelPend = nil
		k.Persist(key)
	})
}

// KeyChange persists the outgoing key synchronously before state switches
// and clears the restored marker so the new key gets its own
// restore-or-fit decision.
func (k *ViewportKeeper) KeyChange(outgoing string) {
	k.dropPending()
	if outgoing != "" {
		k.Persist(outgoing)
	}
	k.restoredKey = ""
}

// Teardown flushes the current viewport synchronously. A scheduled but
// unfired debounce write must not vanish at unmount.
func (k *ViewportKeeper) Teardown(key string) {
	k.dropPending()
	if key != "" {
		k.Persist(key)
	}
}

func (k *ViewportKeeper) dropPending() {
	k.pendingGen++
	if k.cancelPend != nil {
		k.cancelPend()
		k.cancelPend = nil
	}
}

// active filters entries to those within TTL, preserving order.
func (k *ViewportKeeper) active(entries []ViewportEntry) []ViewportEntry {
	cutoff := k.now().Add(-k.cfg.ViewportTTL).Unix()
	out := entries[:0:0]
	for _, e := range entries {
		if e.SavedAtUnix >= cutoff {
			out = append(out, e)
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
