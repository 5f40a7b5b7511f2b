package render

import (
	"chart_go/internal/chart"
	"chart_go/internal/domain"
)

const defaultBarSpacing = 6

// Surface is a headless chart.RenderSurface: it keeps the series, the
// logical viewport and a linear price scale without drawing anything. It
// backs the demo host and serves as the reference surface for engine tests.
// Not goroutine-safe; the engine owns it from a single loop.
type Surface struct {
	candles []domain.Candle

	vr    chart.LogicalRange
	hasVR bool

	barSpacing  float64
	rightOffset float64

	width  int
	height int

	minPrice float64
	maxPrice float64

	lines  map[string]chart.PriceLine
	labels map[string]Label

	subs    map[int]func(chart.LogicalRange)
	nextSub int
}

// Label is a floating marker position as last set by the engine.
type Label struct {
	Y       float64
	Visible bool
}

// New creates an empty headless surface.
func New() *Surface {
	return &Surface{
		barSpacing: defaultBarSpacing,
		lines:      make(map[string]chart.PriceLine),
		labels:     make(map[string]Label),
		subs:       make(map[int]func(chart.LogicalRange)),
	}
}

// SetSeries replaces the dataset and rebuilds the price scale.
func (s *Surface) SetSeries(candles []domain.Candle) {
	s.candles = candles
	s.rebuildScale()
}

// PatchLast amends or appends the newest bar only. Bars older than the
// current tail are rejected with chart.ErrOutOfOrder.
func (s *Surface) PatchLast(c domain.Candle) error {
	n := len(s.candles)
	if n == 0 {
		return chart.ErrOutOfOrder
	}

	last := s.candles[n-1].TimeUnix
	switch {
	case c.TimeUnix == last:
		s.candles[n-1] = c
	case c.TimeUnix > last:
		s.candles = append(s.candles, c)
	default:
		return chart.ErrOutOfOrder
	}

	s.rebuildScale()
	return nil
}

// VisibleRange returns the current logical window, ok=false before any
// range was established.
func (s *Surface) VisibleRange() (chart.LogicalRange, bool) {
	return s.vr, s.hasVR
}

// SetVisibleRange moves the logical window and notifies subscribers.
func (s *Surface) SetVisibleRange(vr chart.LogicalRange) {
	s.vr = vr
	s.hasVR = true
	s.notify(vr)
}

func (s *Surface) BarSpacing() float64     { return s.barSpacing }
func (s *Surface) SetBarSpacing(v float64) { s.barSpacing = v }

func (s *Surface) RightOffset() float64     { return s.rightOffset }
func (s *Surface) SetRightOffset(v float64) { s.rightOffset = v }

// FitContent fits the whole dataset into view.
func (s *Surface) FitContent() {
	if len(s.candles) == 0 {
		return
	}
	s.rightOffset = 0
	s.SetVisibleRange(chart.LogicalRange{From: 0, To: float64(len(s.candles) - 1)})
}

// PriceToPixel projects a price onto the vertical axis of the current
// pixel box. ok is false off-scale or before the scale is ready.
func (s *Surface) PriceToPixel(price float64) (float64, bool) {
	if s.height <= 0 || s.maxPrice <= s.minPrice {
		return 0, false
	}
	y := (s.maxPrice - price) / (s.maxPrice - s.minPrice) * float64(s.height)
	if y < 0 || y > float64(s.height) {
		return y, false
	}
	return y, true
}

// Resize applies the pixel box. Idempotent.
func (s *Surface) Resize(width, height int) {
	s.width = width
	s.height = height
}

// Size returns the current pixel box.
func (s *Surface) Size() (int, int) { return s.width, s.height }

func (s *Surface) UpsertPriceLine(id string, line chart.PriceLine) {
	s.lines[id] = line
}

func (s *Surface) RemovePriceLine(id string) {
	delete(s.lines, id)
	delete(s.labels, id)
}

func (s *Surface) SetLabelPosition(id string, y float64, visible bool) {
	s.labels[id] = Label{Y: y, Visible: visible}
}

// PriceLines returns a copy of the current guide-line set.
func (s *Surface) PriceLines() map[string]chart.PriceLine {
	out := make(map[string]chart.PriceLine, len(s.lines))
	for k, v := range s.lines {
		out[k] = v
	}
	return out
}

// LabelFor returns the last pushed label state for an order ID.
func (s *Surface) LabelFor(id string) (Label, bool) {
	l, ok := s.labels[id]
	return l, ok
}

// Candles returns the rendered series.
func (s *Surface) Candles() []domain.Candle { return s.candles }

// OnVisibleRangeChange registers a pan/zoom callback.
func (s *Surface) OnVisibleRangeChange(fn func(chart.LogicalRange)) func() {
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() { delete(s.subs, id) }
}

func (s *Surface) notify(vr chart.LogicalRange) {
	for _, fn := range s.subs {
		fn(vr)
	}
}

func (s *Surface) rebuildScale() {
	s.minPrice, s.maxPrice = 0, 0
	for i, c := range s.candles {
		lo, hi := c.Low.Float64(), c.High.Float64()
		if i == 0 {
			s.minPrice, s.maxPrice = lo, hi
			continue
		}
		if lo < s.minPrice {
			s.minPrice = lo
		}
		if hi > s.maxPrice {
			s.maxPrice = hi
		}
	}
}
