package chart

import (
	"math"

	"chart_go/internal/domain"

	"github.com/shopspring/decimal"
)

// invertPrecision bounds the 1/raw division; display prices never need more
// significant digits than this.
const invertPrecision = 12

// OverlaySynchronizer projects open-order price levels onto the surface as
// guide lines with floating labels. Markers are ephemeral and rebuilt on
// every relevant mutation; label positions are additionally recomputed on a
// fixed interval because the surface does not reliably push every
// scale-changing event.
type OverlaySynchronizer struct {
	surface RenderSurface
	theme   Theme

	// active marker prices by order ID, kept for repositioning.
	prices map[string]float64
}

// NewOverlaySynchronizer builds the synchronizer with the given theme.
func NewOverlaySynchronizer(surface RenderSurface, theme Theme) *OverlaySynchronizer {
	return &OverlaySynchronizer{
		surface: surface,
		theme:   theme,
		prices:  make(map[string]float64),
	}
}

// SetTheme swaps the palette; markers are restyled on the next SetOrders.
func (o *OverlaySynchronizer) SetTheme(theme Theme) { o.theme = theme }

// SetOrders rebuilds the guide-line set from the open orders, applying the
// pair's invert-for-display rule, then repositions all labels.
func (o *OverlaySynchronizer) SetOrders(orders []domain.Order, pair domain.PairConfig) {
	keep := make(map[string]bool, len(orders))

	for _, ord := range orders {
		price, ok := displayPrice(ord.Price, pair)
		if !ok {
			continue
		}

		color := o.theme.BuyColor
		if ord.Side == domain.SideSell {
			color = o.theme.SellColor
		}

		o.surface.UpsertPriceLine(ord.ID, PriceLine{
			Price: price,
			Color: color,
			Title: lotLabel(ord.Qty),
		})
		o.prices[ord.ID] = price
		keep[ord.ID] = true
	}

	for id := range o.prices {
		if !keep[id] {
			o.surface.RemovePriceLine(id)
			delete(o.prices, id)
		}
	}

	o.Reposition()
}

// Reposition refreshes every floating label's screen position through the
// surface's price projection. Off-scale markers are hidden, not removed.
func (o *OverlaySynchronizer) Reposition() {
	for id, price := range o.prices {
		y, ok := o.surface.PriceToPixel(price)
		if !ok || math.IsNaN(y) || math.IsInf(y, 0) {
			o.surface.SetLabelPosition(id, 0, false)
			continue
		}
		o.surface.SetLabelPosition(id, y, true)
	}
}

// displayPrice applies the pair's invert-for-display rule and rejects
// non-finite or non-positive results.
func displayPrice(raw decimal.Decimal, pair domain.PairConfig) (float64, bool) {
	disp := raw
	if pair.InvertForDisplay && raw.IsPositive() {
		disp = decimal.New(1, 0).DivRound(raw, invertPrecision)
	}

	f, _ := disp.Float64()
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// lotLabel formats an order quantity for the guide-line title. Zero or
// invalid quantities yield no label.
func lotLabel(qty decimal.Decimal) string {
	if !qty.IsPositive() {
		return ""
	}
	return qty.String()
}
