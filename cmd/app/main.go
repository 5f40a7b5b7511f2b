package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"chart_go/internal/chart"
	"chart_go/internal/domain"
	"chart_go/internal/infra"
	"chart_go/internal/render"
	"chart_go/internal/storage"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func main() {
	// Optional .env for endpoint overrides.
	_ = godotenv.Load()

	cfgPath := os.Getenv("CHART_CONFIG")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := infra.LoadConfig(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	dbPath := cfg.Chart.ViewportStoragePath
	if dbPath == "" {
		dbPath = "viewports.db"
	}
	store, err := storage.NewViewportStore(dbPath)
	if err != nil {
		slog.Error("Failed to open viewport store", slog.Any("error", err))
		os.Exit(1)
	}
	defer store.Close()

	tf := domain.Timeframe(cfg.Feed.Timeframe)
	if !tf.Valid() {
		tf = domain.TF1m
	}
	pair := domain.PairConfig{Symbol: cfg.Feed.Symbol}

	limiter := infra.NewRateLimiter(cfg.History.RateBurst, float64(cfg.History.RatePerS))
	history := infra.NewHistoryClient(cfg.History.RestURL, limiter)

	surface := render.New()
	host := &render.StaticHost{Width: 1024, Height: 600}

	// Host-side copy of the loaded series. Initial load and backfill
	// prepends mutate it here; live ticks go straight to the engine.
	var (
		seriesMu sync.Mutex
		series   []domain.Candle
	)

	var engine *chart.Engine
	onBackfill := func(beforeUnix int64) {
		engine.SetFlags(true, true)
		go func() {
			older, err := history.Fetch(context.Background(), pair.Symbol, tf, cfg.History.Limit, false, beforeUnix)
			if err != nil {
				slog.Warn("Backfill fetch failed", slog.Any("error", err))
				engine.SetFlags(false, true)
				return
			}

			seriesMu.Lock()
			if len(older) > 0 {
				series = append(older, series...)
			}
			merged := append([]domain.Candle{}, series...)
			seriesMu.Unlock()

			hasMore := len(older) > 0
			engine.SetFlags(false, hasMore)
			if hasMore {
				engine.UpdateSeries(merged, pair, tf)
			}
		}()
	}

	engine = chart.NewEngine(surface, host, store, onBackfill, chartConfig(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engineDone := make(chan struct{})
	go func() {
		engine.Run(ctx)
		close(engineDone)
	}()
	slog.Info("Chart engine started",
		slog.String("symbol", pair.Symbol), slog.String("timeframe", string(tf)))

	// Initial history load.
	initial, err := history.Fetch(ctx, pair.Symbol, tf, cfg.History.Limit, true, 0)
	if err != nil {
		slog.Error("Initial history fetch failed", slog.Any("error", err))
	} else {
		seriesMu.Lock()
		series = initial
		merged := append([]domain.Candle{}, series...)
		seriesMu.Unlock()

		engine.SetFlags(false, len(initial) > 0)
		engine.UpdateSeries(merged, pair, tf)
		slog.Info("Initial history loaded", slog.Int("candles", len(initial)))
	}

	// Live feed.
	feed := infra.NewKlineFeed(cfg.Feed.WSURL, pair.Symbol, tf, engine.ApplyLive)
	feed.Start(ctx)
	defer feed.Stop()

	// Sample open orders so the overlay has something to project.
	engine.SetOrders(demoOrders())

	slog.Info("Chart host operational. Press Ctrl+C to exit.")
	<-ctx.Done()

	// Let the engine flush its viewport before the process exits.
	select {
	case <-engineDone:
	case <-time.After(3 * time.Second):
		slog.Warn("Engine teardown timed out")
	}
	slog.Info("Shutting down")
}

// chartConfig maps file settings onto the engine defaults. Zero values in
// the file keep the defaults.
func chartConfig(cfg *infra.Config) chart.Config {
	out := chart.DefaultConfig()
	if cfg.Chart.ViewportTTLMin > 0 {
		out.ViewportTTL = cfg.ViewportTTL()
	}
	if cfg.Chart.ViewportMax > 0 {
		out.ViewportMax = cfg.Chart.ViewportMax
	}
	if cfg.Chart.PersistDebounceMS > 0 {
		out.PersistDebounce = time.Duration(cfg.Chart.PersistDebounceMS) * time.Millisecond
	}
	if cfg.Chart.BackfillDebounceMS > 0 {
		out.BackfillDebounce = time.Duration(cfg.Chart.BackfillDebounceMS) * time.Millisecond
	}
	if cfg.Chart.BackfillThreshold > 0 {
		out.BackfillThreshold = cfg.Chart.BackfillThreshold
	}
	if cfg.Chart.SettleWindowMS > 0 {
		out.SettleWindow = time.Duration(cfg.Chart.SettleWindowMS) * time.Millisecond
	}
	if cfg.Chart.OverlayIntervalMS > 0 {
		out.OverlayInterval = time.Duration(cfg.Chart.OverlayIntervalMS) * time.Millisecond
	}
	if cfg.Chart.WatchdogIntervalMS > 0 {
		out.WatchdogInterval = time.Duration(cfg.Chart.WatchdogIntervalMS) * time.Millisecond
	}
	return out
}

// demoOrders fabricates a couple of resting orders for the overlay demo.
func demoOrders() []domain.Order {
	return []domain.Order{
		{
			ID:    uuid.NewString(),
			Side:  domain.SideBuy,
			Price: decimal.NewFromInt(64000),
			Qty:   decimal.NewFromFloat(0.25),
		},
		{
			ID:    uuid.NewString(),
			Side:  domain.SideSell,
			Price: decimal.NewFromInt(71500),
			Qty:   decimal.NewFromFloat(0.1),
		},
	}
}
