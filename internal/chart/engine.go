package chart

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"chart_go/internal/domain"
)

// Engine is the single-threaded chart core. Every handler, whether a data
// update, a pan/zoom notification or a timer callback, runs to completion
// on the loop goroutine via the inbox, so ordering between a pending
// debounced action and a later state mutation is exactly the enqueue
// order. Host-facing methods only post work and are safe from any
// goroutine.
type Engine struct {
	inbox   chan func()
	surface RenderSurface
	host    HostEnv
	cfg     Config

	viewport *ViewportKeeper
	recon    *Reconciler
	backfill *BackfillCoordinator
	overlay  *OverlaySynchronizer
	resize   *ResizeReconciler

	// Loop-owned state. Debounced callbacks read it through the engine at
	// fire time, never through values captured at schedule time.
	candles    []domain.Candle
	pair       domain.PairConfig
	timeframe  domain.Timeframe
	currentKey string
	hasMore    bool
	loading    bool

	releases []func()
}

// NewEngine wires the five components over a surface, host environment and
// viewport store. onBackfill is the host's historical-fetch callback; it
// receives the timestamp of the oldest loaded candle.
func NewEngine(surface RenderSurface, host HostEnv, store ViewportStore, onBackfill func(beforeUnix int64), cfg Config) *Engine {
	e := &Engine{
		inbox:   make(chan func(), 256),
		surface: surface,
		host:    host,
		cfg:     cfg,
	}

	sched := &loopScheduler{engine: e}
	e.viewport = NewViewportKeeper(surface, store, sched, cfg)
	e.overlay = NewOverlaySynchronizer(surface, DefaultTheme())
	e.recon = NewReconciler(surface, e.viewport, e.overlay)
	e.backfill = NewBackfillCoordinator(sched, cfg, backfillView{
		hasMore:  func() bool { return e.hasMore },
		inFlight: func() bool { return e.loading },
		oldestTime: func() (int64, bool) {
			if len(e.candles) == 0 {
				return 0, false
			}
			return e.candles[0].TimeUnix, true
		},
	}, onBackfill)
	e.resize = NewResizeReconciler(surface, host, e.overlay, sched, cfg)
	e.recon.onFullLoad = e.backfill.ResetSettle

	return e
}

// Run mounts the chart, drains the inbox until ctx is cancelled, then tears
// down. Every acquire at mount has exactly one matching release here.
func (e *Engine) Run(ctx context.Context) {
	e.mount()
	slog.Info("Chart engine mounted")

	for {
		select {
		case <-ctx.Done():
			e.teardown()
			slog.Info("Chart engine unmounted")
			return
		case fn := <-e.inbox:
			fn()
		}
	}
}

// UpdateSeries replaces the engine's candle sequence for a pair+timeframe
// and reconciles the surface. A pair or timeframe switch while mounted
// persists the outgoing viewport key synchronously before switching.
func (e *Engine) UpdateSeries(candles []domain.Candle, pair domain.PairConfig, tf domain.Timeframe) {
	e.post(func() {
		key := domain.ViewKey(pair.Symbol, tf)
		if e.currentKey != "" && key != e.currentKey {
			e.viewport.KeyChange(e.currentKey)
		}
		e.candles = candles
		e.pair = pair
		e.timeframe = tf
		e.currentKey = key
		e.recon.Apply(e.candles, tf, key)
	})
}

// ApplyLive merges one live tick (the current/newest bar) into the sequence
// and runs the reconciler's update entrypoint.
func (e *Engine) ApplyLive(c domain.Candle) {
	e.post(func() {
		if e.currentKey == "" {
			return // no series loaded yet
		}
		e.candles = domain.MergeTail(e.candles, c)
		e.recon.Apply(e.candles, e.timeframe, e.currentKey)
	})
}

// SetOrders rebuilds the open-order overlay.
func (e *Engine) SetOrders(orders []domain.Order) {
	e.post(func() {
		e.overlay.SetOrders(orders, e.pair)
	})
}

// SetFlags updates the host-owned backfill flags. The in-flight flag clears
// only when the host observes the fetch settling; the next qualifying
// scroll is the only retry path.
func (e *Engine) SetFlags(isLoadingMore, hasMoreData bool) {
	e.post(func() {
		e.loading = isLoadingMore
		e.hasMore = hasMoreData
	})
}

// Post runs fn on the engine loop, ordered behind everything already
// enqueued. Hosts use it to read or mutate loop-owned state consistently
// with the engine's own handlers.
func (e *Engine) Post(fn func()) {
	e.post(fn)
}

// SetTheme restyles the overlay on the next order update.
func (e *Engine) SetTheme(theme Theme) {
	e.post(func() {
		e.overlay.SetTheme(theme)
	})
}

func (e *Engine) mount() {
	e.backfill.ResetSettle()

	unsub := e.surface.OnVisibleRangeChange(func(vr LogicalRange) {
		e.post(func() {
			if e.currentKey != "" {
				e.viewport.SchedulePersist(e.currentKey)
			}
			e.backfill.OnRangeChange(vr)
		})
	})
	e.releases = append(e.releases, unsub)

	sched := &loopScheduler{engine: e}
	e.releases = append(e.releases, sched.Every(e.cfg.OverlayInterval, e.overlay.Reposition))

	e.resize.Mount()
	e.releases = append(e.releases, e.resize.Unmount)
}

func (e *Engine) teardown() {
	e.backfill.Cancel()
	e.viewport.Teardown(e.currentKey)
	for _, release := range e.releases {
		release()
	}
	e.releases = nil
}

// post enqueues fn onto the loop. The inbox is buffered; if a burst ever
// outruns it, the notification is dropped rather than blocking the caller.
func (e *Engine) post(fn func()) {
	select {
	case e.inbox <- fn:
	default:
		slog.Warn("Chart inbox full, dropping update")
	}
}

// loopScheduler runs timer callbacks on the engine loop. Timer goroutines
// only post; the callback body executes single-threaded, which is what lets
// debounced callbacks read the freshest state at fire time.
type loopScheduler struct {
	engine *Engine
}

func (s *loopScheduler) After(d time.Duration, fn func()) (cancel func()) {
	t := time.AfterFunc(d, func() {
		s.engine.post(fn)
	})
	return func() { t.Stop() }
}

func (s *loopScheduler) Every(d time.Duration, fn func()) (cancel func()) {
	ticker := time.NewTicker(d)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				s.engine.post(fn)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}
