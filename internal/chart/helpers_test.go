package chart

import (
	"context"
	"time"

	"chart_go/internal/domain"
)

// fakeSurface records every mutation the engine applies.
type fakeSurface struct {
	candles        []domain.Candle
	setSeriesCalls int

	patchCalls int
	patchErr   error

	vr    LogicalRange
	hasVR bool

	barSpacing  float64
	rightOffset float64
	fitCalls    int

	width, height int
	resizeCalls   int

	lines  map[string]PriceLine
	labels map[string]fakeLabel

	projY  float64
	projOK bool

	subs []func(LogicalRange)
}

type fakeLabel struct {
	y       float64
	visible bool
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{
		barSpacing: 6,
		lines:      make(map[string]PriceLine),
		labels:     make(map[string]fakeLabel),
		projOK:     true,
	}
}

func (s *fakeSurface) SetSeries(candles []domain.Candle) {
	s.candles = candles
	s.setSeriesCalls++
}

func (s *fakeSurface) PatchLast(c domain.Candle) error {
	s.patchCalls++
	if s.patchErr != nil {
		return s.patchErr
	}
	s.candles = domain.MergeTail(s.candles, c)
	return nil
}

func (s *fakeSurface) VisibleRange() (LogicalRange, bool) { return s.vr, s.hasVR }

func (s *fakeSurface) SetVisibleRange(vr LogicalRange) {
	s.vr = vr
	s.hasVR = true
	for _, fn := range s.subs {
		fn(vr)
	}
}

func (s *fakeSurface) BarSpacing() float64      { return s.barSpacing }
func (s *fakeSurface) SetBarSpacing(v float64)  { s.barSpacing = v }
func (s *fakeSurface) RightOffset() float64     { return s.rightOffset }
func (s *fakeSurface) SetRightOffset(v float64) { s.rightOffset = v }

func (s *fakeSurface) FitContent() { s.fitCalls++ }

func (s *fakeSurface) PriceToPixel(price float64) (float64, bool) { return s.projY, s.projOK }

func (s *fakeSurface) Resize(w, h int) {
	s.width, s.height = w, h
	s.resizeCalls++
}

func (s *fakeSurface) UpsertPriceLine(id string, line PriceLine) { s.lines[id] = line }
func (s *fakeSurface) RemovePriceLine(id string) {
	delete(s.lines, id)
	delete(s.labels, id)
}
func (s *fakeSurface) SetLabelPosition(id string, y float64, visible bool) {
	s.labels[id] = fakeLabel{y: y, visible: visible}
}

func (s *fakeSurface) OnVisibleRangeChange(fn func(LogicalRange)) func() {
	s.subs = append(s.subs, fn)
	return func() {}
}

// manualSched captures scheduled tasks so tests fire them deterministically.
type manualSched struct {
	tasks []*manualTask
}

type manualTask struct {
	d         time.Duration
	fn        func()
	every     bool
	cancelled bool
	fired     bool
}

func (s *manualSched) After(d time.Duration, fn func()) func() {
	t := &manualTask{d: d, fn: fn}
	s.tasks = append(s.tasks, t)
	return func() { t.cancelled = true }
}

func (s *manualSched) Every(d time.Duration, fn func()) func() {
	t := &manualTask{d: d, fn: fn, every: true}
	s.tasks = append(s.tasks, t)
	return func() { t.cancelled = true }
}

// fireTimers runs every pending one-shot, including cancelled ones: a real
// timer can fire before its cancel lands, so callbacks must self-guard.
func (s *manualSched) fireTimers() {
	for _, t := range s.tasks {
		if t.every || t.fired {
			continue
		}
		t.fired = true
		t.fn()
	}
}

func (s *manualSched) pendingTimers() int {
	n := 0
	for _, t := range s.tasks {
		if !t.every && !t.fired && !t.cancelled {
			n++
		}
	}
	return n
}

// fakeStore is an in-memory ViewportStore.
type fakeStore struct {
	entries   []ViewportEntry
	loadErr   error
	saveErr   error
	saveCalls int
}

func (s *fakeStore) Load(ctx context.Context) ([]ViewportEntry, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	out := make([]ViewportEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

func (s *fakeStore) Save(ctx context.Context, entries []ViewportEntry) error {
	s.saveCalls++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.entries = make([]ViewportEntry, len(entries))
	copy(s.entries, entries)
	return nil
}

// fakeHost records trigger registrations and lets tests fire them.
type fakeHost struct {
	width, height int

	shapeFns      []func()
	globalFns     []func()
	transitionFns []func()
	cancelCount   int
}

func (h *fakeHost) ContainerSize() (int, int) { return h.width, h.height }

func (h *fakeHost) OnContainerShapeChange(fn func()) func() {
	h.shapeFns = append(h.shapeFns, fn)
	return func() { h.cancelCount++ }
}

func (h *fakeHost) OnGlobalResize(fn func()) func() {
	h.globalFns = append(h.globalFns, fn)
	return func() { h.cancelCount++ }
}

func (h *fakeHost) OnShellTransitionEnd(fn func()) func() {
	h.transitionFns = append(h.transitionFns, fn)
	return func() { h.cancelCount++ }
}

func (h *fakeHost) RequestFrame(fn func()) { fn() }

func nowUnix() int64 { return time.Now().Unix() }

// mkCandles builds n ascending bars starting at startUnix with the given
// step seconds.
func mkCandles(n int, startUnix, step int64) []domain.Candle {
	out := make([]domain.Candle, 0, n)
	for i := 0; i < n; i++ {
		ts := startUnix + int64(i)*step
		out = append(out, domain.Candle{
			TimeUnix: ts,
			Open:     100_000_000,
			High:     101_000_000,
			Low:      99_000_000,
			Close:    100_500_000,
		})
	}
	return out
}
