package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"chart_go/internal/domain"
	"chart_go/pkg/quant"

	"github.com/gorilla/websocket"
)

// klineMessage is the stream payload carrying the current/newest bar.
// Prices arrive as strings and are parsed fixed-point; no float64 on the
// wire path.
type klineMessage struct {
	Event string `json:"e"`
	Kline struct {
		OpenTimeMS int64  `json:"t"`
		Open       string `json:"o"`
		High       string `json:"h"`
		Low        string `json:"l"`
		Close      string `json:"c"`
	} `json:"k"`
}

// KlineFeed is the live update feed collaborator: a reconnecting WebSocket
// worker delivering one candle per tick to the engine. It handles backoff
// on connect failure, read timeouts, and thread-safe writes.
type KlineFeed struct {
	url      string
	symbol   string
	tf       domain.Timeframe
	onCandle func(domain.Candle)

	mu      sync.RWMutex
	conn    *websocket.Conn
	writeMu sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	ReadTimeout  time.Duration
	PingInterval time.Duration
}

// NewKlineFeed creates a feed for one symbol+timeframe stream.
func NewKlineFeed(url, symbol string, tf domain.Timeframe, onCandle func(domain.Candle)) *KlineFeed {
	return &KlineFeed{
		url:          url,
		symbol:       symbol,
		tf:           tf,
		onCandle:     onCandle,
		ReadTimeout:  60 * time.Second,
		PingInterval: 30 * time.Second,
	}
}

// Start initiates the connection loop.
func (f *KlineFeed) Start(ctx context.Context) {
	ctx, f.cancel = context.WithCancel(ctx)
	f.wg.Add(1)
	go f.runLoop(ctx)
}

// Stop terminates the feed.
func (f *KlineFeed) Stop() {
	if f.cancel != nil {
		f.cancel()
	}
	f.close()
	f.wg.Wait()
}

func (f *KlineFeed) runLoop(ctx context.Context) {
	defer f.wg.Done()
	retry := 0

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := f.connect(ctx); err != nil {
			slog.Warn("Kline feed connect failed", "symbol", f.symbol, "err", err, "retry", retry)
			delay := ReconnectBackoff(retry)
			retry++

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		}

		retry = 0 // Reset on successful connect
		f.process(ctx)
	}
}

func (f *KlineFeed) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}

	conn, _, err := dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.conn = conn
	f.mu.Unlock()

	if err := f.subscribe(); err != nil {
		f.close()
		return fmt.Errorf("subscribe failed: %w", err)
	}

	if f.PingInterval > 0 {
		go f.pingLoop(ctx)
	}

	slog.Info("Kline feed connected", "symbol", f.symbol, "timeframe", string(f.tf))
	return nil
}

func (f *KlineFeed) subscribe() error {
	msg := map[string]interface{}{
		"method": "SUBSCRIBE",
		"params": []string{fmt.Sprintf("%s@kline_%s", strings.ToLower(f.symbol), f.tf)},
		"id":     time.Now().UnixNano(),
	}
	b, _ := json.Marshal(msg)
	return f.write(websocket.TextMessage, b)
}

func (f *KlineFeed) process(ctx context.Context) {
	for {
		f.mu.RLock()
		c := f.conn
		f.mu.RUnlock()
		if c == nil {
			return
		}

		c.SetReadDeadline(time.Now().Add(f.ReadTimeout))
		_, msg, err := c.ReadMessage()
		if err != nil {
			slog.Warn("Kline feed read error", "symbol", f.symbol, "err", err)
			f.close()
			return
		}

		f.handleMessage(ctx, msg)
	}
}

func (f *KlineFeed) handleMessage(_ context.Context, msg []byte) {
	var km klineMessage
	if err := json.Unmarshal(msg, &km); err != nil || km.Event != "kline" {
		return
	}

	candle, err := klineToCandle(km)
	if err != nil {
		slog.Warn("Dropping unparseable kline", "symbol", f.symbol, "err", err)
		return
	}

	f.onCandle(candle)
}

func klineToCandle(km klineMessage) (domain.Candle, error) {
	open, err := quant.ParsePriceMicros(km.Kline.Open)
	if err != nil {
		return domain.Candle{}, err
	}
	high, err := quant.ParsePriceMicros(km.Kline.High)
	if err != nil {
		return domain.Candle{}, err
	}
	low, err := quant.ParsePriceMicros(km.Kline.Low)
	if err != nil {
		return domain.Candle{}, err
	}
	cls, err := quant.ParsePriceMicros(km.Kline.Close)
	if err != nil {
		return domain.Candle{}, err
	}

	return domain.Candle{
		TimeUnix: km.Kline.OpenTimeMS / 1000,
		Open:     open,
		High:     high,
		Low:      low,
		Close:    cls,
	}, nil
}

func (f *KlineFeed) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(f.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.mu.RLock()
			c := f.conn
			f.mu.RUnlock()
			if c == nil {
				return
			}
			if err := f.write(websocket.PingMessage, nil); err != nil {
				slog.Warn("Kline feed ping error", "symbol", f.symbol, "err", err)
				f.close()
				return
			}
		}
	}
}

func (f *KlineFeed) write(msgType int, data []byte) error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	f.mu.RLock()
	c := f.conn
	f.mu.RUnlock()

	if c == nil {
		return fmt.Errorf("feed not connected")
	}

	return c.WriteMessage(msgType, data)
}

func (f *KlineFeed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn != nil {
		f.conn.Close()
		f.conn = nil
	}
}
