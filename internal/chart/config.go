package chart

import "time"

// Config holds the engine's timing and cache tunables.
type Config struct {
	ViewportTTL     time.Duration // stored viewports older than this are treated as absent
	ViewportMax     int           // max stored viewport entries across all keys
	PersistDebounce time.Duration // pan/zoom persist coalescing window

	BackfillDebounce  time.Duration // scroll-to-history fetch coalescing window
	BackfillThreshold float64       // logical lower bound that arms a backfill
	SettleWindow      time.Duration // post-mount grace period ignoring range jitter

	OverlayInterval  time.Duration // overlay reposition poll
	WatchdogInterval time.Duration // resize watchdog poll

	MinBarSpacing float64
	MaxBarSpacing float64
}

// DefaultConfig returns the production tunables.
func DefaultConfig() Config {
	return Config{
		ViewportTTL:       45 * time.Minute,
		ViewportMax:       8,
		PersistDebounce:   350 * time.Millisecond,
		BackfillDebounce:  300 * time.Millisecond,
		BackfillThreshold: 10,
		SettleWindow:      time.Second,
		OverlayInterval:   120 * time.Millisecond,
		WatchdogInterval:  250 * time.Millisecond,
		MinBarSpacing:     0.5,
		MaxBarSpacing:     80,
	}
}
