package consensus

import (
	"testing"
	"time"

	"github.com/ducminhle1904/solgrid-bot/internal/indicators"
	"github.com/ducminhle1904/solgrid-bot/internal/orderstate"
	"github.com/stretchr/testify/assert"
)

func TestGridSignal_ConfidenceDecaysWithDistance(t *testing.T) {
	level := orderstate.NewPlanned(1, 100, orderstate.Buy, 1, time.Now())
	atLevel := GridSignal(100, level, 0.01)
	away := GridSignal(100.5, level, 0.01)
	assert.InDelta(t, 1.0, atLevel.Confidence, 1e-9)
	assert.Less(t, away.Confidence, atLevel.Confidence)
}

func TestGridSignal_NilLevelIsHold(t *testing.T) {
	s := GridSignal(100, nil, 0.01)
	assert.Equal(t, Hold, s.Action)
}

func TestRSISignal_OversoldYieldsBuy(t *testing.T) {
	snap := indicators.Snapshot{RSI14: 20, Ready: true}
	s := RSISignal(snap, Config{})
	assert.Equal(t, Buy, s.Action)
	assert.Greater(t, s.Confidence, 0.0)
}

func TestRSISignal_OverboughtYieldsSell(t *testing.T) {
	snap := indicators.Snapshot{RSI14: 80, Ready: true}
	s := RSISignal(snap, Config{})
	assert.Equal(t, Sell, s.Action)
}

func TestRSISignal_NeutralYieldsHold(t *testing.T) {
	snap := indicators.Snapshot{RSI14: 50, Ready: true}
	s := RSISignal(snap, Config{})
	assert.Equal(t, Hold, s.Action)
}

func TestMomentumSignal_PositiveHistogramYieldsBuy(t *testing.T) {
	snap := indicators.Snapshot{MACDHistogram: 0.5, EMA26: 100}
	s := MomentumSignal(snap)
	assert.Equal(t, Buy, s.Action)
}

func TestMomentumSignal_NegativeHistogramYieldsSell(t *testing.T) {
	snap := indicators.Snapshot{MACDHistogram: -0.5, EMA26: 100}
	s := MomentumSignal(snap)
	assert.Equal(t, Sell, s.Action)
}

func TestAggregate_BuyConsensusWhenScoreClearsThresholdAndMargin(t *testing.T) {
	c := New(DefaultConfig())
	signals := []Signal{
		{Strategy: StrategyGrid, Action: Buy, Confidence: 1.0},
		{Strategy: StrategyRSI, Action: Buy, Confidence: 0.9},
	}
	d := c.Aggregate(signals)
	assert.Equal(t, Buy, d.Action)
}

func TestAggregate_HoldWhenBelowMinConfidence(t *testing.T) {
	c := New(DefaultConfig())
	signals := []Signal{
		{Strategy: StrategyGrid, Action: Buy, Confidence: 0.1},
	}
	d := c.Aggregate(signals)
	assert.Equal(t, Hold, d.Action)
}

func TestAggregate_HoldWhenMarginNotCleared(t *testing.T) {
	c := New(DefaultConfig())
	signals := []Signal{
		{Strategy: StrategyGrid, Action: Buy, Confidence: 0.9},
		{Strategy: StrategyRSI, Action: Sell, Confidence: 0.89},
	}
	d := c.Aggregate(signals)
	assert.Equal(t, Hold, d.Action)
}

func TestTick_DueOnUpdateFrequencyBoundary(t *testing.T) {
	c := New(Config{UpdateFrequencyCycles: 3})
	assert.False(t, c.Tick())
	assert.False(t, c.Tick())
	assert.True(t, c.Tick())
}

func TestUpdateWeight_BlendsConfidenceAndROI(t *testing.T) {
	c := New(DefaultConfig())
	before := c.Weights()[StrategyGrid]
	c.UpdateWeight(StrategyGrid, 1.0, 1.0)
	after := c.Weights()[StrategyGrid]
	assert.NotEqual(t, before, after)
}
