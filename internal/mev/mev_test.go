package mev

import (
	"testing"

	"github.com/ducminhle1904/solgrid-bot/internal/regime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardian_PriorityFeeDefaultsToMinFeeWithNoSamples(t *testing.T) {
	g := NewGuardian(DefaultConfig())
	assert.Equal(t, DefaultConfig().MinFee, g.PriorityFee())
}

func TestGuardian_PriorityFeePicksConfiguredPercentile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PriorityFeeTargetPercentile = 0.5
	cfg.MinFee = 0
	cfg.MaxFee = 1_000_000
	g := NewGuardian(cfg)
	for _, f := range []uint64{100, 200, 300, 400, 500} {
		g.RecordFee(f)
	}
	assert.Equal(t, uint64(300), g.PriorityFee())
}

func TestGuardian_PriorityFeeClampedToBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinFee = 1000
	cfg.MaxFee = 2000
	g := NewGuardian(cfg)
	g.RecordFee(50)
	assert.Equal(t, cfg.MinFee, g.PriorityFee())
	g.RecordFee(9_000_000)
	g.RecordFee(9_000_000)
	assert.LessOrEqual(t, g.PriorityFee(), cfg.MaxFee)
}

func TestGuardian_SampleWindowEvictsOldest(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleSize = 3
	cfg.MinFee = 0
	cfg.MaxFee = 1_000_000
	g := NewGuardian(cfg)
	g.RecordFee(1)
	g.RecordFee(2)
	g.RecordFee(3)
	g.RecordFee(100)
	require.Len(t, g.samples, 3)
	assert.NotContains(t, g.samples, uint64(1))
}

func TestGuardian_CheckSlippageRejectsBeyondLimit(t *testing.T) {
	g := NewGuardian(Config{MaxSlippageBps: 50, VolatilityMultiplier: 2})
	err := g.CheckSlippage(100, 100.75, regime.Ranging)
	assert.ErrorIs(t, err, ErrSlippageExceeded)
}

func TestGuardian_CheckSlippageRelaxesInHighVolatility(t *testing.T) {
	g := NewGuardian(Config{MaxSlippageBps: 50, VolatilityMultiplier: 2})
	err := g.CheckSlippage(100, 100.75, regime.HighVolatility)
	assert.NoError(t, err)
}

func TestGuardian_BundleRejectsOversized(t *testing.T) {
	g := NewGuardian(Config{MaxBundleSize: 2})
	assert.NoError(t, g.Bundle(2))
	assert.ErrorIs(t, g.Bundle(3), ErrBundleTooLarge)
}
