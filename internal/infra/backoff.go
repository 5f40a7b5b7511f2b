package infra

import (
	"time"
)

const (
	// Feed reconnects start fast; a chart with a dead feed is visibly
	// stale, so the cap stays short.
	reconnectBase = 500 * time.Millisecond
	reconnectMax  = 30 * time.Second
)

// ReconnectBackoff returns the exponential backoff duration for a given
// reconnect attempt: reconnectBase * 2^attempt, capped at reconnectMax.
// Negative attempts return the base delay.
func ReconnectBackoff(attempt int) time.Duration {
	if attempt < 0 {
		return reconnectBase
	}

	// 2^30 already exceeds the cap by orders of magnitude.
	if attempt > 30 {
		return reconnectMax
	}

	backoff := reconnectBase * time.Duration(1<<attempt)
	if backoff > reconnectMax {
		return reconnectMax
	}
	return backoff
}
