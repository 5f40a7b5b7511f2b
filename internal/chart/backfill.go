package chart

import (
	"log/slog"
	"time"
)

// backfillView is how the coordinator reads engine state. Reads go through
// these funcs so a debounced callback sees the freshest flags at fire time,
// not values captured when it was scheduled.
type backfillView struct {
	hasMore    func() bool
	inFlight   func() bool
	oldestTime func() (int64, bool) // oldest loaded candle, ok=false when empty
}

// BackfillCoordinator watches pan/zoom notifications and requests older
// history when the user scrolls toward the dataset's historical boundary.
// Only one fetch may be in flight; the in-flight flag is host-owned and
// clears when the host observes the fetch settling.
type BackfillCoordinator struct {
	sched Scheduler
	cfg   Config
	now   func() time.Time
	view  backfillView

	// request invokes the external historical-fetch collaborator with the
	// timestamp of the currently-oldest loaded candle.
	request func(beforeUnix int64)

	settleUntil time.Time
	prevFrom    float64
	hasPrev     bool
	pendingGen  int
	cancelPend  func()
}

// NewBackfillCoordinator builds the coordinator. request is the host's
// fetch-more callback.
func NewBackfillCoordinator(sched Scheduler, cfg Config, view backfillView, request func(beforeUnix int64)) *BackfillCoordinator {
	return &BackfillCoordinator{
		sched:   sched,
		cfg:     cfg,
		now:     time.Now,
		view:    view,
		request: request,
	}
}

// ResetSettle re-opens the grace period during which range notifications are
// ignored. Called after mount and after each full data load, so layout and
// render jitter cannot false-trigger a fetch.
func (b *BackfillCoordinator) ResetSettle() {
	b.settleUntil = b.now().Add(b.cfg.SettleWindow)
	b.hasPrev = false
}

// OnRangeChange consumes one visible-logical-range notification.
func (b *BackfillCoordinator) OnRangeChange(vr LogicalRange) {
	if b.now().Before(b.settleUntil) {
		return
	}

	scrolledLeft := b.hasPrev && vr.From < b.prevFrom
	b.prevFrom = vr.From
	b.hasPrev = true

	if !scrolledLeft || vr.From >= b.cfg.BackfillThreshold {
		return
	}
	if !b.armed() {
		return
	}

	b.pendingGen++
	gen := b.pendingGen
	if b.cancelPend != nil {
		b.cancelPend()
	}
	b.cancelPend = b.sched.After(b.cfg.BackfillDebounce, func() {
		if gen != b.pendingGen {
			return // superseded while queued
		}
		b.cancelPend = nil
		b.fire()
	})
}

// Cancel drops any pending debounced fetch. Called at teardown.
func (b *BackfillCoordinator) Cancel() {
	b.pendingGen++
	if b.cancelPend != nil {
		b.cancelPend()
		b.cancelPend = nil
	}
}

// armed re-evaluates the fetch preconditions against the latest state.
func (b *BackfillCoordinator) armed() bool {
	if !b.view.hasMore() || b.view.inFlight() {
		return false
	}
	_, ok := b.view.oldestTime()
	return ok
}

// fire re-checks the flags at fire time: scroll events queued during the
// debounce window must not double-fire once a fetch is already out.
func (b *BackfillCoordinator) fire() {
	if !b.armed() {
		return
	}
	oldest, _ := b.view.oldestTime()
	slog.Debug("Requesting historical backfill", slog.Int64("before", oldest))
	b.request(oldest)
}
