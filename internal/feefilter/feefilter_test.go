package feefilter

import (
	"testing"

	"github.com/ducminhle1904/solgrid-bot/internal/regime"
	"github.com/stretchr/testify/assert"
)

func TestFilter_GracePeriodBypassesGate(t *testing.T) {
	f := New(Config{MinProfitMultiplier: 1e9, GracePeriodTrades: 5})
	d := f.Evaluate(Request{CurrentPrice: 100, TargetPrice: 100.01, PositionSize: 1}, 0)
	assert.True(t, d.Accept)
	assert.Equal(t, "grace period", d.Reason)
}

func TestFilter_RejectsBelowThresholdOutsideGracePeriod(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GracePeriodTrades = 0
	f := New(cfg)

	// tiny spread relative to size: gross barely above zero, costs dominate
	d := f.Evaluate(Request{CurrentPrice: 100, TargetPrice: 100.0001, PositionSize: 1}, 10)
	assert.False(t, d.Accept)
	assert.Contains(t, d.Reason, "below cost threshold")
}

func TestFilter_AcceptsWhenGrossClearsMultiplier(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GracePeriodTrades = 0
	f := New(cfg)

	d := f.Evaluate(Request{CurrentPrice: 100, TargetPrice: 101, PositionSize: 100}, 10)
	assert.True(t, d.Accept)
	assert.Greater(t, d.NetProfit, 0.0)
}

func TestFilter_RegimeAdjustmentTightensInLowVolatility(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GracePeriodTrades = 0
	f := New(cfg)

	req := Request{CurrentPrice: 100, TargetPrice: 100.15, PositionSize: 10}
	ranging := f.Evaluate(req, 10)

	req.Regime = regime.LowVolatility
	lowVol := f.Evaluate(req, 10)

	assert.GreaterOrEqual(t, lowVol.Threshold, ranging.Threshold)
}

func TestFilter_RegimeAdjustmentRelaxesInHighVolatility(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GracePeriodTrades = 0
	f := New(cfg)

	req := Request{CurrentPrice: 100, TargetPrice: 100.15, PositionSize: 10}
	ranging := f.Evaluate(req, 10)

	req.Regime = regime.HighVolatility
	highVol := f.Evaluate(req, 10)

	assert.LessOrEqual(t, highVol.Threshold, ranging.Threshold)
}

func TestFilter_MarketImpactDisabledLowersCosts(t *testing.T) {
	withImpact := DefaultConfig()
	withImpact.GracePeriodTrades = 0
	withoutImpact := withImpact
	withoutImpact.EnableMarketImpact = false

	req := Request{CurrentPrice: 100, TargetPrice: 100.05, PositionSize: 50}
	dWith := New(withImpact).Evaluate(req, 10)
	dWithout := New(withoutImpact).Evaluate(req, 10)

	assert.LessOrEqual(t, dWithout.Threshold, dWith.Threshold)
}
