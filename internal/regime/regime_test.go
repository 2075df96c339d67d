package regime

import (
	"testing"

	"github.com/ducminhle1904/solgrid-bot/internal/indicators"
	"github.com/stretchr/testify/assert"
)

func TestClassify_EmergencyOverridesEverything(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	snap := indicators.Snapshot{Ready: true, ATR14Percentile: 0.1, EMA12: 100, EMA26: 90}
	sig := c.Classify(snap, 0.09)
	assert.Equal(t, Emergency, sig.Type)
	assert.Equal(t, 1.0, sig.Confidence)
}

func TestClassify_HighVolatilityBand(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	snap := indicators.Snapshot{Ready: true, ATR14Percentile: 0.9, EMA12: 100, EMA26: 100}
	sig := c.Classify(snap, 0.0)
	assert.Equal(t, HighVolatility, sig.Type)
}

func TestClassify_LowVolatilityBand(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	snap := indicators.Snapshot{Ready: true, ATR14Percentile: 0.1, EMA12: 100, EMA26: 100}
	sig := c.Classify(snap, 0.0)
	assert.Equal(t, LowVolatility, sig.Type)
}

func TestClassify_TrendingUpAndDown(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	up := indicators.Snapshot{Ready: true, ATR14Percentile: 0.5, EMA12: 105, EMA26: 100}
	sig := c.Classify(up, 0.0)
	assert.Equal(t, TrendingUp, sig.Type)

	down := indicators.Snapshot{Ready: true, ATR14Percentile: 0.5, EMA12: 95, EMA26: 100}
	sig = c.Classify(down, 0.0)
	assert.Equal(t, TrendingDown, sig.Type)
}

func TestClassify_RangingDefault(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	snap := indicators.Snapshot{Ready: true, ATR14Percentile: 0.5, EMA12: 100.05, EMA26: 100}
	sig := c.Classify(snap, 0.0)
	assert.Equal(t, Ranging, sig.Type)
}

func TestClassify_NotReadyYieldsRangingZeroConfidence(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	sig := c.Classify(indicators.Snapshot{Ready: false}, 0.0)
	assert.Equal(t, Ranging, sig.Type)
	assert.Equal(t, 0.0, sig.Confidence)
}
