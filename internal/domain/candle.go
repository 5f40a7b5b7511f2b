package domain

import (
	"chart_go/pkg/quant"
)

// Candle is one OHLC bar for a fixed-width time bucket.
// TimeUnix is the bucket open time in Unix seconds and is the unique,
// strictly-increasing key of a series.
type Candle struct {
	TimeUnix int64             `json:"time"`
	Open     quant.PriceMicros `json:"open"`
	High     quant.PriceMicros `json:"high"`
	Low      quant.PriceMicros `json:"low"`
	Close    quant.PriceMicros `json:"close"`
}

// MergeTail applies a live update representing the newest bar to the series.
// If the update carries the same bucket time as the current last bar it
// amends it in place; if it is newer it is appended. Older updates are
// dropped.
func MergeTail(series []Candle, update Candle) []Candle {
	n := len(series)
	if n == 0 {
		return []Candle{update}
	}
	last := series[n-1].TimeUnix
	switch {
	case update.TimeUnix == last:
		series[n-1] = update
		return series
	case update.TimeUnix > last:
		return append(series, update)
	default:
		return series
	}
}
