package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_CircuitBreakerTripsOnDrawdown(t *testing.T) {
	c := NewController(Config{CircuitBreakerMaxLossPct: 0.05, MaxDailyTrades: 100, MaxDailyVolume: 1e9, MaxPositionSize: 1e9}, 5000)

	c.RecordFill(FilledTrade{PnL: -100, Size: 1, ExecutedPrice: 100, Timestamp: time.Now()})
	assert.False(t, c.Snapshot().BreakerTripped)

	c.RecordFill(FilledTrade{PnL: -160, Size: 1, ExecutedPrice: 100, Timestamp: time.Now()})
	snap := c.Snapshot()
	assert.True(t, snap.BreakerTripped, "cumulative loss of 260 on peak 5000 is 5.2%% drawdown, should trip")

	decision := c.Gate(Intent{Side: "buy", ExpectedPrice: 100, Size: 1})
	assert.False(t, decision.Allowed)
}

func TestController_GateRejectsOverDailyTradeCap(t *testing.T) {
	c := NewController(Config{MaxDailyTrades: 1, MaxDailyVolume: 1e9, MaxPositionSize: 1e9, CircuitBreakerMaxLossPct: 1}, 1000)
	c.RecordFill(FilledTrade{PnL: 1, Size: 1, ExecutedPrice: 10, Timestamp: time.Now()})

	d := c.Gate(Intent{Side: "buy", ExpectedPrice: 10, Size: 1})
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "daily trade cap")
}

func TestController_EmergencyHaltBlocksAllIntents(t *testing.T) {
	c := NewController(DefaultConfig(), 1000)
	c.TripEmergencyHalt()
	d := c.Gate(Intent{Side: "buy", ExpectedPrice: 10, Size: 1})
	assert.False(t, d.Allowed)
}

func TestController_ResetBreakerRespectsCooldown(t *testing.T) {
	c := NewController(Config{CircuitBreakerMaxLossPct: 0.01, MaxDailyTrades: 100, MaxDailyVolume: 1e9, MaxPositionSize: 1e9, BreakerCooldown: time.Hour}, 1000)
	now := time.Now()
	c.RecordFill(FilledTrade{PnL: -50, Size: 1, ExecutedPrice: 10, Timestamp: now})
	require.True(t, c.Snapshot().BreakerTripped)

	assert.False(t, c.ResetBreaker(now.Add(time.Minute)), "cooldown not yet elapsed")
	assert.True(t, c.ResetBreaker(now.Add(2*time.Hour)))
	assert.False(t, c.Snapshot().BreakerTripped)
}

func TestController_RecordFillIsCommutativeOverArrivalOrder(t *testing.T) {
	a := NewController(Config{MaxDailyTrades: 100, MaxDailyVolume: 1e9, MaxPositionSize: 1e9, CircuitBreakerMaxLossPct: 1}, 1000)
	b := NewController(Config{MaxDailyTrades: 100, MaxDailyVolume: 1e9, MaxPositionSize: 1e9, CircuitBreakerMaxLossPct: 1}, 1000)

	now := time.Now()
	t1 := FilledTrade{PnL: 10, Size: 1, ExecutedPrice: 100, Timestamp: now}
	t2 := FilledTrade{PnL: -5, Size: 1, ExecutedPrice: 100, Timestamp: now}

	a.RecordFill(t1)
	a.RecordFill(t2)

	b.RecordFill(t2)
	b.RecordFill(t1)

	assert.Equal(t, a.Snapshot().CumulativePnL, b.Snapshot().CumulativePnL)
}
