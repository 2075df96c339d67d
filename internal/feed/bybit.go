package feed

import (
	"context"
	"sync"
	"time"

	"github.com/ducminhle1904/solgrid-bot/internal/exchange/bybit"
)

// BybitConfig configures the CEX-polling reference feed.
type BybitConfig struct {
	Category     string // "spot", "linear", "inverse"
	Symbol       string
	PollInterval time.Duration
}

func DefaultBybitConfig(symbol string) BybitConfig {
	return BybitConfig{Category: "spot", Symbol: symbol, PollInterval: time.Second}
}

// BybitFeed polls a Bybit client for the latest ticker price on a fixed
// interval and turns it into PriceFeed ticks. It stands in for a true
// on-chain oracle in local dry-runs, reusing the
// bybit.go.api client library as a price source rather than an
// order-execution venue.
type BybitFeed struct {
	client *bybit.Client
	cfg    BybitConfig

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewBybitFeed(client *bybit.Client, cfg BybitConfig) *BybitFeed {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	return &BybitFeed{client: client, cfg: cfg}
}

func (f *BybitFeed) Subscribe(ctx context.Context) (<-chan Tick, error) {
	ctx, cancel := context.WithCancel(ctx)
	f.mu.Lock()
	f.cancel = cancel
	f.mu.Unlock()

	out := make(chan Tick, 16)
	go func() {
		defer close(out)
		ticker := time.NewTicker(f.cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				price, err := f.client.GetLatestPrice(ctx, f.cfg.Category, f.cfg.Symbol)
				if err != nil {
					// A single failed poll is a gap, not a transport failure
					// the orchestrator needs to see; it is silently
					// retried on the next tick.
					continue
				}
				select {
				case out <- Tick{Price: price, Timestamp: time.Now()}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (f *BybitFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		f.cancel()
	}
	return nil
}
