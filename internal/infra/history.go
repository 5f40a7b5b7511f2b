package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"chart_go/internal/domain"
	"chart_go/pkg/quant"
)

// HistoryClient is the historical data source collaborator: it fetches
// ordered candle lists from a RESTish klines endpoint. It does not retry;
// the chart core treats the next qualifying scroll as the only retry path.
type HistoryClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *RateLimiter
}

// NewHistoryClient creates a client for the given endpoint, throttled by
// the limiter.
func NewHistoryClient(baseURL string, limiter *RateLimiter) *HistoryClient {
	return &HistoryClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: limiter,
	}
}

// Fetch returns up to limit candles for symbol+timeframe, ascending by
// time. beforeUnix > 0 requests bars strictly older than that timestamp
// (backfill); fresh bypasses any intermediary caches.
func (c *HistoryClient) Fetch(ctx context.Context, symbol string, tf domain.Timeframe, limit int, fresh bool, beforeUnix int64) ([]domain.Candle, error) {
	if c.limiter != nil {
		c.limiter.Wait()
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", string(tf))
	q.Set("limit", strconv.Itoa(limit))
	if beforeUnix > 0 {
		q.Set("endTime", strconv.FormatInt(beforeUnix*1000-1, 10))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if fresh {
		req.Header.Set("Cache-Control", "no-cache")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return parseKlines(body)
}

// parseKlines decodes the klines array-of-arrays payload:
// [openTimeMS, "open", "high", "low", "close", ...]. Prices are parsed
// fixed-point from their string form.
func parseKlines(body []byte) ([]domain.Candle, error) {
	var rows [][]json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode klines: %w", err)
	}

	candles := make([]domain.Candle, 0, len(rows))
	for i, row := range rows {
		if len(row) < 5 {
			return nil, fmt.Errorf("kline row %d too short", i)
		}

		var openTimeMS int64
		if err := json.Unmarshal(row[0], &openTimeMS); err != nil {
			return nil, fmt.Errorf("kline row %d: bad open time: %w", i, err)
		}

		prices := make([]quant.PriceMicros, 4)
		for j := 0; j < 4; j++ {
			var s string
			if err := json.Unmarshal(row[j+1], &s); err != nil {
				return nil, fmt.Errorf("kline row %d: bad price field: %w", i, err)
			}
			p, err := quant.ParsePriceMicros(s)
			if err != nil {
				return nil, fmt.Errorf("kline row %d: %w", i, err)
			}
			prices[j] = p
		}

		candles = append(candles, domain.Candle{
			TimeUnix: openTimeMS / 1000,
			Open:     prices[0],
			High:     prices[1],
			Low:      prices[2],
			Close:    prices[3],
		})
	}

	return candles, nil
}
