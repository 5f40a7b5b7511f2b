package domain

// Timeframe identifies the bar width of a candle series.
type Timeframe string

const (
	TF1m  Timeframe = "1m"
	TF5m  Timeframe = "5m"
	TF15m Timeframe = "15m"
	TF1h  Timeframe = "1h"
	TF4h  Timeframe = "4h"
	TF1d  Timeframe = "1d"
)

// Seconds returns the bar width in seconds, or 0 for an unknown timeframe.
func (tf Timeframe) Seconds() int64 {
	switch tf {
	case TF1m:
		return 60
	case TF5m:
		return 300
	case TF15m:
		return 900
	case TF1h:
		return 3600
	case TF4h:
		return 14400
	case TF1d:
		return 86400
	default:
		return 0
	}
}

// Valid reports whether tf is a known timeframe.
func (tf Timeframe) Valid() bool { return tf.Seconds() > 0 }

// ViewKey builds the composite viewport key for an instrument + timeframe.
func ViewKey(symbol string, tf Timeframe) string {
	return symbol + ":" + string(tf)
}
