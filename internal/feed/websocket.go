package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketConfig configures the websocket PriceFeed.
type WebSocketConfig struct {
	URL             string
	SubscribeStream string // venue-specific channel/stream name
	PingInterval    time.Duration
	ReconnectDelay  time.Duration
}

func DefaultWebSocketConfig(url, stream string) WebSocketConfig {
	return WebSocketConfig{
		URL:             url,
		SubscribeStream: stream,
		PingInterval:    30 * time.Second,
		ReconnectDelay:  5 * time.Second,
	}
}

// tickerMessage is the minimal venue payload shape this feed expects:
// a price and an optional confidence/spread indicator. A real venue
// adapter would have a richer decoder; the core only needs price+ts.
type tickerMessage struct {
	Price      float64 `json:"price"`
	Confidence float64 `json:"confidence"`
}

// WebSocketFeed is a PriceFeed built on a gorilla/websocket connection to a
// venue ticker stream: a reconnect-on-read-error loop with ping/pong
// keepalive, feeding a typed Tick channel instead of an arbitrary message
// callback.
type WebSocketFeed struct {
	cfg WebSocketConfig

	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc
}

func NewWebSocketFeed(cfg WebSocketConfig) *WebSocketFeed {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	return &WebSocketFeed{cfg: cfg}
}

func (f *WebSocketFeed) Subscribe(ctx context.Context) (<-chan Tick, error) {
	conn, err := f.dial()
	if err != nil {
		return nil, fmt.Errorf("feed: websocket dial: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	f.mu.Lock()
	f.conn = conn
	f.cancel = cancel
	f.mu.Unlock()

	if err := f.subscribe(conn); err != nil {
		cancel()
		conn.Close()
		return nil, err
	}

	out := make(chan Tick, 64)
	go f.pingLoop(ctx, conn)
	go f.readLoop(ctx, conn, out)
	return out, nil
}

func (f *WebSocketFeed) dial() (*websocket.Conn, error) {
	dialer := websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second
	conn, _, err := dialer.Dial(f.cfg.URL, nil)
	return conn, err
}

func (f *WebSocketFeed) subscribe(conn *websocket.Conn) error {
	msg := map[string]interface{}{
		"method": "SUBSCRIBE",
		"params": []string{f.cfg.SubscribeStream},
		"id":     1,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("feed: marshal subscribe message: %w", err)
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (f *WebSocketFeed) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(f.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop reads ticks until the connection errors, then reconnects after
// ReconnectDelay, all in one goroutine per connection rather than a
// separate reconnect-trigger channel.
func (f *WebSocketFeed) readLoop(ctx context.Context, conn *websocket.Conn, out chan<- Tick) {
	defer close(out)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			select {
			case <-ctx.Done():
				return
			case <-time.After(f.cfg.ReconnectDelay):
			}
			newConn, dialErr := f.dial()
			if dialErr != nil {
				continue
			}
			if subErr := f.subscribe(newConn); subErr != nil {
				newConn.Close()
				continue
			}
			f.mu.Lock()
			f.conn = newConn
			f.mu.Unlock()
			conn = newConn
			go f.pingLoop(ctx, conn)
			continue
		}

		var msg tickerMessage
		if jsonErr := json.Unmarshal(data, &msg); jsonErr != nil || msg.Price <= 0 {
			continue
		}
		tick := Tick{Price: msg.Price, Timestamp: time.Now()}
		if msg.Confidence > 0 {
			tick.Confidence = msg.Confidence
			tick.HasConfidence = true
		}
		select {
		case out <- tick:
		case <-ctx.Done():
			return
		}
	}
}

func (f *WebSocketFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		f.cancel()
	}
	if f.conn != nil {
		return f.conn.Close()
	}
	return nil
}
