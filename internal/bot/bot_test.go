package bot

import (
	"context"
	"testing"
	"time"

	"github.com/ducminhle1904/solgrid-bot/internal/config"
	"github.com/ducminhle1904/solgrid-bot/internal/feed"
	"github.com/ducminhle1904/solgrid-bot/internal/venue"
	"github.com/stretchr/testify/assert"
)

func replayTicks(n int, start, step float64) []feed.Tick {
	base := time.Now()
	ticks := make([]feed.Tick, n)
	price := start
	for i := 0; i < n; i++ {
		ticks[i] = feed.Tick{Price: price, Timestamp: base.Add(time.Duration(i) * time.Second)}
		price += step
	}
	return ticks
}

func TestBot_RunProcessesReplayFeedAndStopsOnClose(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Venue.PriceFeedKind = "replay"

	f := feed.NewReplayFeed(replayTicks(400, 100, 0.01), 0)
	router := venue.NewSimulatedRouter(100)
	signer := venue.NewSimulatedSigner("sim-pubkey", cfg.Risk.MaxDailyVolume, cfg.Risk.MaxDailyTrades, cfg.Risk.MaxPositionSize)
	rpc := venue.NewSimulatedRPC(0)

	b := New(cfg, Deps{Feed: f, Router: router, Signer: signer, RPC: rpc})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := b.Run(ctx)
	assert.NoError(t, err)

	summary := b.Journal().Summary()
	assert.GreaterOrEqual(t, summary.TotalTrades, 0)
}

func TestBot_GridOnlyCrossingProducesFillDespiteHoldConsensus(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Venue.PriceFeedKind = "replay"
	// Isolate the crossing/fill path under test from the reposition check:
	// with the default spacing/threshold, crossing the first grid level
	// always also exceeds the reposition-threshold deviation from the
	// anchor, which is a separate behavior this test doesn't exercise.
	cfg.Trading.RepositionThreshold = 10

	base := time.Now()
	ticks := []feed.Tick{
		{Price: 100.0, Timestamp: base},       // builds the grid, anchor=100
		{Price: 99.69, Timestamp: base.Add(time.Second)}, // crosses the 99.70 buy level
	}
	f := feed.NewReplayFeed(ticks, 0)
	router := venue.NewSimulatedRouter(99.70)
	signer := venue.NewSimulatedSigner("sim-pubkey", cfg.Risk.MaxDailyVolume, cfg.Risk.MaxDailyTrades, cfg.Risk.MaxPositionSize)
	rpc := venue.NewSimulatedRPC(0)

	b := New(cfg, Deps{Feed: f, Router: router, Signer: signer, RPC: rpc})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := b.Run(ctx)
	assert.NoError(t, err)

	// RSI/MACD are still warming up on the second tick, so consensus is
	// Hold; the crossed grid level must still fill via the documented
	// Grid-only fallback rather than being vetoed by the Hold decision.
	summary := b.Journal().Summary()
	assert.Equal(t, 1, summary.TotalTrades, "a crossed grid level should fill even when consensus is Hold")
}

func TestBot_OversizedIntentRejectedBySignerPositionLimit(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Venue.PriceFeedKind = "replay"
	cfg.Trading.RepositionThreshold = 10

	base := time.Now()
	ticks := []feed.Tick{
		{Price: 100.0, Timestamp: base},
		{Price: 99.69, Timestamp: base.Add(time.Second)},
	}
	f := feed.NewReplayFeed(ticks, 0)
	router := venue.NewSimulatedRouter(99.70)
	// The crossed level's notional (size 100 * price ~99.70 ~= 9970 USDC)
	// exceeds this signer's position-size limit, so Sign must reject it.
	signer := venue.NewSimulatedSigner("sim-pubkey", cfg.Risk.MaxDailyVolume, cfg.Risk.MaxDailyTrades, 10)
	rpc := venue.NewSimulatedRPC(0)

	b := New(cfg, Deps{Feed: f, Router: router, Signer: signer, RPC: rpc})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := b.Run(ctx)
	assert.NoError(t, err)

	summary := b.Journal().Summary()
	assert.Equal(t, 0, summary.TotalTrades, "the signer's position-size limit should reject the oversized notional before any signature is produced")
	assert.True(t, b.riskCtl.Snapshot().BreakerTripped, "a signer limit rejection is risk-halting and should stop further new orders")
}

func TestBot_StopEndsRunLoop(t *testing.T) {
	cfg := config.DefaultConfig()
	f := feed.NewReplayFeed(replayTicks(5, 100, 0), 50*time.Millisecond)
	router := venue.NewSimulatedRouter(100)
	signer := venue.NewSimulatedSigner("sim-pubkey", cfg.Risk.MaxDailyVolume, cfg.Risk.MaxDailyTrades, cfg.Risk.MaxPositionSize)
	rpc := venue.NewSimulatedRPC(0)

	b := New(cfg, Deps{Feed: f, Router: router, Signer: signer, RPC: rpc})

	go func() {
		time.Sleep(20 * time.Millisecond)
		b.Stop()
	}()

	err := b.Run(context.Background())
	assert.NoError(t, err)
}
