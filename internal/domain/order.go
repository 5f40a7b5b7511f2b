package domain

import (
	"github.com/shopspring/decimal"
)

// Side is the direction of an open order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Order is an open order projected onto the chart as a guide line.
// Price is the raw API price, before any invert-for-display rule.
type Order struct {
	ID    string          `json:"id"`
	Side  Side            `json:"side"`
	Price decimal.Decimal `json:"price"`
	Qty   decimal.Decimal `json:"qty"`
}

// PairConfig carries per-instrument display configuration.
type PairConfig struct {
	Symbol string `json:"symbol"`
	// InvertForDisplay flags pairs whose API price is quoted inverted;
	// the display price is 1/raw for positive raw prices.
	InvertForDisplay bool  `json:"invert_for_display"`
	PricePrecision   int32 `json:"price_precision"`
}
