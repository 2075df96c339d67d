package grid

import (
	"testing"
	"time"

	"github.com/ducminhle1904/solgrid-bot/internal/orderstate"
	"github.com/ducminhle1904/solgrid-bot/internal/regime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_ColdStartBuildsSymmetricLevels(t *testing.T) {
	e := New(Config{GridLevels: 10, RepositionThreshold: 0.9})
	now := time.Now()
	snap := e.Build(100.0, 0.003, 100, now)

	var buys, sells []float64
	for _, lvl := range snap.Levels {
		if lvl.Side == orderstate.Buy {
			buys = append(buys, lvl.Price)
		} else {
			sells = append(sells, lvl.Price)
		}
	}
	require.Len(t, buys, 5)
	require.Len(t, sells, 5)

	expectedBuys := []float64{99.70, 99.40, 99.10, 98.80, 98.50}
	expectedSells := []float64{100.30, 100.60, 100.90, 101.20, 101.50}
	for i, want := range expectedBuys {
		assert.InDelta(t, want, buys[i], 0.01)
	}
	for i, want := range expectedSells {
		assert.InDelta(t, want, sells[i], 0.01)
	}
}

func TestEngine_RepositionOnThresholdBreach(t *testing.T) {
	e := New(Config{GridLevels: 10, RepositionThreshold: 0.9})
	now := time.Now()
	e.Build(100.0, 0.003, 100, now)

	action := e.Evaluate(102.0, regime.Signal{Type: regime.Ranging}, now)
	assert.True(t, action.Reposition)

	old := e.Snapshot()
	e.CancelAll()
	newSnap := e.Build(102.0, 0.003, 100, now)
	assert.Equal(t, 102.0, newSnap.Anchor)
	for _, lvl := range old.Levels {
		assert.True(t, lvl.State.Terminal())
	}
}

func TestEngine_NoRepositionWithinThreshold(t *testing.T) {
	e := New(Config{GridLevels: 10, RepositionThreshold: 0.9})
	now := time.Now()
	e.Build(100.0, 0.003, 100, now)

	action := e.Evaluate(100.05, regime.Signal{Type: regime.Ranging}, now)
	assert.False(t, action.Reposition)
}

func TestEngine_RegimeGateBlocksTradingBelowMinVolatility(t *testing.T) {
	e := New(Config{GridLevels: 10, RepositionThreshold: 0.9, EnableRegimeGate: true, MinVolatilityToTrade: 0.1})
	now := time.Now()
	e.Build(100.0, 0.003, 100, now)

	action := e.Evaluate(100.0, regime.Signal{Type: regime.LowVolatility, ATRPercentile: 0.05}, now)
	assert.True(t, action.TradingBlocked)
}

func TestEngine_OpenLevelExpiresAfterMaxAge(t *testing.T) {
	e := New(Config{GridLevels: 10, RepositionThreshold: 0.9, OrderMaxAge: time.Hour})
	now := time.Now()
	snap := e.Build(100.0, 0.003, 100, now)
	require.NoError(t, snap.Levels[0].Open(now))

	e.Evaluate(100.0, regime.Signal{Type: regime.Ranging}, now.Add(2*time.Hour))
	assert.Equal(t, orderstate.Expired, snap.Levels[0].State)
}

func TestEngine_RefreshIntervalFlagsStaleOpenLevels(t *testing.T) {
	e := New(Config{GridLevels: 10, RepositionThreshold: 0.9, OrderMaxAge: 10 * time.Hour, OrderRefreshInterval: time.Hour})
	now := time.Now()
	snap := e.Build(100.0, 0.003, 100, now)
	require.NoError(t, snap.Levels[0].Open(now))

	action := e.Evaluate(100.0, regime.Signal{Type: regime.Ranging}, now.Add(2*time.Hour))
	require.Len(t, action.RefreshLevels, 1)
	assert.Equal(t, snap.Levels[0].ID, action.RefreshLevels[0].ID)
}

func TestEngine_BuildIsDeterministicForSameInputs(t *testing.T) {
	now := time.Now()
	e1 := New(Config{GridLevels: 10})
	e2 := New(Config{GridLevels: 10})
	s1 := e1.Build(100.0, 0.003, 100, now)
	s2 := e2.Build(100.0, 0.003, 100, now)

	require.Len(t, s1.Levels, len(s2.Levels))
	for i := range s1.Levels {
		assert.Equal(t, s1.Levels[i].Price, s2.Levels[i].Price)
		assert.Equal(t, s1.Levels[i].Side, s2.Levels[i].Side)
	}
}
