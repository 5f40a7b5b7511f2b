package chart

import (
	"errors"
	"time"

	"chart_go/internal/domain"
)

// ErrOutOfOrder is returned by a RenderSurface when a tail patch carries a
// timestamp older than the last rendered bar. The reconciler recovers by
// falling back to a full dataset replace.
var ErrOutOfOrder = errors.New("chart: patch timestamp out of order")

// LogicalRange is the visible window in bar-index coordinates.
// From/To are fractional logical indices, not timestamps.
type LogicalRange struct {
	From float64 `json:"from"`
	To   float64 `json:"to"`
}

// PriceLine describes one horizontal guide line on the surface.
type PriceLine struct {
	Price float64
	Color string
	Title string
}

// RenderSurface is the rendering backend the engine mutates. Implementations
// are not required to be goroutine-safe; the engine only calls them from its
// own loop.
type RenderSurface interface {
	// SetSeries replaces the whole dataset.
	SetSeries(candles []domain.Candle)
	// PatchLast amends or appends the newest bar only. It returns
	// ErrOutOfOrder (or any other error) when the update cannot be applied
	// in place.
	PatchLast(c domain.Candle) error

	VisibleRange() (LogicalRange, bool)
	SetVisibleRange(vr LogicalRange)
	BarSpacing() float64
	SetBarSpacing(v float64)
	RightOffset() float64
	SetRightOffset(v float64)
	FitContent()

	// PriceToPixel projects a price onto a vertical pixel coordinate.
	// ok is false when the price is off-scale or the scale is not ready.
	PriceToPixel(price float64) (y float64, ok bool)

	Resize(width, height int)

	UpsertPriceLine(id string, line PriceLine)
	RemovePriceLine(id string)
	SetLabelPosition(id string, y float64, visible bool)

	// OnVisibleRangeChange registers a pan/zoom notification callback and
	// returns its unsubscribe func.
	OnVisibleRangeChange(fn func(LogicalRange)) (cancel func())
}

// HostEnv abstracts the embedding environment: container measurement plus
// the redundant resize signals an unreliable host may or may not deliver.
// Each registration returns its cancel func; the engine releases all of them
// at teardown.
type HostEnv interface {
	ContainerSize() (width, height int)
	// OnContainerShapeChange fires when the container box changes. Host
	// implementations must observe the chart's parent element as well as
	// the container itself; a parent-only reflow still changes the box.
	OnContainerShapeChange(fn func()) (cancel func())
	OnGlobalResize(fn func()) (cancel func())
	OnShellTransitionEnd(fn func()) (cancel func())
	// RequestFrame defers fn by one animation frame so layout settles
	// before measuring.
	RequestFrame(fn func())
}

// Scheduler runs timer callbacks on the chart's event loop. After and Every
// return cancel funcs; cancelling after the callback was already dispatched
// is a no-op, so debounced callbacks must re-check state at fire time.
type Scheduler interface {
	After(d time.Duration, fn func()) (cancel func())
	Every(d time.Duration, fn func()) (cancel func())
}

// Theme carries the guide-line colors per order side.
type Theme struct {
	BuyColor  string
	SellColor string
}

// DefaultTheme returns the standard buy/sell palette.
func DefaultTheme() Theme {
	return Theme{BuyColor: "#26a69a", SellColor: "#ef5350"}
}
