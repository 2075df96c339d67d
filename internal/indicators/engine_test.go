package indicators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedFlat(e *Engine, price float64, n int) Snapshot {
	var snap Snapshot
	start := time.Now()
	for i := 0; i < n; i++ {
		snap = e.Update(price, start.Add(time.Duration(i)*time.Second))
	}
	return snap
}

func TestEngine_WarmsUpThenReady(t *testing.T) {
	e := NewEngine()

	snap := feedFlat(e, 100.0, 10)
	assert.False(t, snap.Ready, "should still be warming up after only 10 ticks")

	snap = feedFlat(e, 100.0, 250)
	assert.True(t, snap.Ready, "should be ready once every window has filled")
}

func TestEngine_FlatPriceYieldsRSI100(t *testing.T) {
	e := NewEngine()
	snap := feedFlat(e, 50.0, 260)
	require.True(t, snap.Ready)
	// No gains or losses on a perfectly flat series -> RSI undefined-high case
	// (avgLoss == 0) resolves to 100 under Wilder's convention.
	assert.Equal(t, 100.0, snap.RSI14)
	assert.InDelta(t, 0.0, snap.StdDev14, 1e-9)
	assert.InDelta(t, 0.0, snap.ATR14, 1e-9)
}

func TestEngine_TrendingPriceRaisesEMASeparation(t *testing.T) {
	e := NewEngine()
	start := time.Now()
	price := 100.0
	var snap Snapshot
	for i := 0; i < 260; i++ {
		price += 0.5
		snap = e.Update(price, start.Add(time.Duration(i)*time.Second))
	}
	require.True(t, snap.Ready)
	assert.Greater(t, snap.EMA12, snap.EMA26, "fast EMA should lead in a steady uptrend")
	assert.Greater(t, snap.MACDHistogram, 0.0)
}

func TestRSI_InsufficientHistory(t *testing.T) {
	rsi := NewRSI(14)
	_, err := rsi.Update(100.0)
	require.Error(t, err)
	var insufficient *ErrInsufficientHistory
	assert.ErrorAs(t, err, &insufficient)
}

func TestDonchian_BreakoutStrength(t *testing.T) {
	d := NewDonchian(5)
	for _, p := range []float64{100, 101, 99, 100.5, 100.2} {
		_, _, err := d.Update(p)
		require.NoError(t, err)
	}
	// price well above the rolling channel
	assert.Greater(t, d.BreakoutStrength(105), 0.0)
	assert.Equal(t, 0.0, d.BreakoutStrength(100.3))
}
