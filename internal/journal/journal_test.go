package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ducminhle1904/solgrid-bot/internal/orderstate"
	"github.com/stretchr/testify/assert"
)

func TestJournal_RecordAndSummary(t *testing.T) {
	j := New()
	j.Record(Entry{Timestamp: time.Now(), Side: orderstate.Buy, Price: 100, Size: 1, FeePaid: 0.1, RealizedPnL: 5})
	j.Record(Entry{Timestamp: time.Now(), Side: orderstate.Sell, Price: 101, Size: 1, FeePaid: 0.1, RealizedPnL: -2})

	s := j.Summary()
	assert.Equal(t, 2, s.TotalTrades)
	assert.Equal(t, 1, s.WinningTrades)
	assert.Equal(t, 1, s.LosingTrades)
	assert.InDelta(t, 0.2, s.TotalFees, 1e-9)
	assert.InDelta(t, 3.0, s.RealizedPnL, 1e-9)
}

func TestJournal_Recent(t *testing.T) {
	j := New()
	for i := 0; i < 5; i++ {
		j.Record(Entry{Level: i})
	}
	recent := j.Recent(2)
	assert.Len(t, recent, 2)
	assert.Equal(t, 3, recent[0].Level)
	assert.Equal(t, 4, recent[1].Level)
}

func TestJournal_ExportXLSX(t *testing.T) {
	j := New()
	j.Record(Entry{Timestamp: time.Now(), Side: orderstate.Buy, Price: 100, Size: 1, FeePaid: 0.1, RealizedPnL: 5, Regime: "Ranging"})

	path := filepath.Join(t.TempDir(), "trades.xlsx")
	err := j.ExportXLSX(path)
	assert.NoError(t, err)
}
