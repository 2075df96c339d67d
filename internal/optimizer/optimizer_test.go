package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimizer_PassthroughWhenDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	o := New(cfg)
	out, due := o.Tick(PerformanceWindow{})
	assert.False(t, due)
	assert.Equal(t, cfg.BaseSpacingPercent, out.SpacingPercent)
	assert.Equal(t, cfg.BasePositionSize, out.PositionSize)
}

func TestOptimizer_OnlyRetunesOnIntervalBoundary(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OptimizationIntervalTicks = 5
	o := New(cfg)

	for i := 0; i < 4; i++ {
		_, due := o.Tick(PerformanceWindow{DrawdownPct: 0.02})
		assert.False(t, due)
	}
	_, due := o.Tick(PerformanceWindow{DrawdownPct: 0.02})
	assert.True(t, due)
}

func TestOptimizer_SpacingMonotoneNonDecreasingInDrawdownTier(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OptimizationIntervalTicks = 1

	o := New(cfg)
	low, _ := o.Tick(PerformanceWindow{DrawdownPct: 0.005, PlacedOrders: 10, FilledOrders: 5})
	moderate, _ := o.Tick(PerformanceWindow{DrawdownPct: 0.02, PlacedOrders: 10, FilledOrders: 5})
	high, _ := o.Tick(PerformanceWindow{DrawdownPct: 0.04, PlacedOrders: 10, FilledOrders: 5})
	emergency, _ := o.Tick(PerformanceWindow{DrawdownPct: 0.06, PlacedOrders: 10, FilledOrders: 5})

	require.LessOrEqual(t, low.SpacingPercent, moderate.SpacingPercent)
	require.LessOrEqual(t, moderate.SpacingPercent, high.SpacingPercent)
	require.LessOrEqual(t, high.SpacingPercent, emergency.SpacingPercent)
}

func TestOptimizer_ClampsToAbsoluteBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OptimizationIntervalTicks = 1
	cfg.SpacingMultiplierEmergency = 100 // force an out-of-band request
	o := New(cfg)

	out, _ := o.Tick(PerformanceWindow{DrawdownPct: 0.9})
	assert.LessOrEqual(t, out.SpacingPercent, cfg.MaxSpacingAbsolute)
	assert.GreaterOrEqual(t, out.SpacingPercent, cfg.MinSpacingAbsolute)
}

func TestOptimizer_SizeScalesWithEfficiency(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OptimizationIntervalTicks = 1
	o := New(cfg)

	lowEff, _ := o.Tick(PerformanceWindow{PlacedOrders: 10, FilledOrders: 1})
	highEff, _ := o.Tick(PerformanceWindow{PlacedOrders: 10, FilledOrders: 9})
	assert.Less(t, lowEff.PositionSize, highEff.PositionSize)
}

func TestOptimizer_SearchModeStaysWithinClamps(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = "search"
	cfg.OptimizationIntervalTicks = 1
	o := New(cfg)

	out, due := o.Tick(PerformanceWindow{DrawdownPct: 0.03, PlacedOrders: 20, FilledOrders: 12, WinStreak: 2})
	require.True(t, due)
	assert.GreaterOrEqual(t, out.SpacingPercent, cfg.MinSpacingAbsolute)
	assert.LessOrEqual(t, out.SpacingPercent, cfg.MaxSpacingAbsolute)
	assert.GreaterOrEqual(t, out.PositionSize, cfg.MinPositionAbsolute)
	assert.LessOrEqual(t, out.PositionSize, cfg.MaxPositionAbsolute)
}
