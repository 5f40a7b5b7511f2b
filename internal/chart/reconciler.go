package chart

import (
	"log/slog"

	"chart_go/internal/domain"
)

// renderState tracks what the surface currently shows. It is created at
// mount, updated on every data or timeframe change, and discarded at
// unmount.
type renderState struct {
	lastCount     int
	lastFirstTime int64
	lastTimeframe domain.Timeframe
}

// Reconciler classifies each incoming candle-sequence update and applies the
// minimum necessary surface mutation: a full replace (with prepend range
// shift or restore-or-fit), or an in-place tail patch.
type Reconciler struct {
	surface  RenderSurface
	viewport *ViewportKeeper
	overlay  *OverlaySynchronizer
	state    renderState

	// onFullLoad fires on the initial/timeframe-switch branch; the engine
	// uses it to re-open the backfill settle window.
	onFullLoad func()
}

// NewReconciler builds a reconciler over the surface, viewport keeper and
// overlay synchronizer.
func NewReconciler(surface RenderSurface, viewport *ViewportKeeper, overlay *OverlaySynchronizer) *Reconciler {
	return &Reconciler{surface: surface, viewport: viewport, overlay: overlay}
}

// Apply reconciles the new sequence against the rendered one. key is the
// instrument+timeframe composite used for viewport restore.
func (r *Reconciler) Apply(candles []domain.Candle, tf domain.Timeframe, key string) {
	defer r.overlay.Reposition() // coordinates may have shifted on any branch

	n := len(candles)
	if n == 0 {
		r.surface.SetSeries(nil)
		r.state = renderState{lastTimeframe: tf}
		return
	}

	firstTime := candles[0].TimeUnix
	grew := n - r.state.lastCount

	freshStart := tf != r.state.lastTimeframe || r.state.lastCount == 0
	prepended := !freshStart && grew > 1 && firstTime < r.state.lastFirstTime
	swapped := !freshStart && (abs(grew) > 1 || firstTime != r.state.lastFirstTime)

	switch {
	case freshStart:
		r.surface.SetSeries(candles)
		r.viewport.RestoreOrFit(key)
		if r.onFullLoad != nil {
			r.onFullLoad()
		}

	case prepended:
		// Older history merged in: keep the bars the user was looking at
		// in the same screen position by shifting the logical range.
		vr, hadRange := r.surface.VisibleRange()
		r.surface.SetSeries(candles)
		if hadRange {
			shift := float64(grew)
			r.surface.SetVisibleRange(LogicalRange{From: vr.From + shift, To: vr.To + shift})
		}

	case swapped:
		// Dataset swap (e.g. cache-busted reload): replace without
		// touching the user's navigation.
		r.surface.SetSeries(candles)

	default:
		// Count unchanged or +1: amendment to the current bar or a new
		// bar appended.
		if err := r.surface.PatchLast(candles[n-1]); err != nil {
			slog.Debug("Tail patch rejected, replacing series", slog.Any("error", err))
			r.surface.SetSeries(candles)
		}
	}

	r.state.lastCount = n
	r.state.lastFirstTime = firstTime
	r.state.lastTimeframe = tf
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
