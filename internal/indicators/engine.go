// Package indicators implements the streaming indicator engine: EMA, MACD,
// RSI, ATR, and rolling volatility, each updated in O(1) per price tick and
// exposed as a single read-only snapshot for the regime classifier,
// optimizer, and strategy consensus to read.
package indicators

import "time"

// Snapshot is the read-only indicator state consumed by the regime
// classifier, adaptive optimizer, and strategy consensus each cycle.
type Snapshot struct {
	Timestamp time.Time

	EMA12, EMA26, EMA200 float64
	MACDLine, MACDSignal, MACDHistogram float64
	RSI14 float64
	ATR14 float64
	ATR14Percentile float64 // rank of ATR14 within the 150-tick window, [0,1]
	StdDev14 float64
	StdDev150 float64
	ADX14 float64
	DonchianUpper, DonchianLower float64
	DonchianBreakout float64 // 0 when inside the channel

	Ready bool // false while any required indicator is still warming up
}

// Engine owns all indicator state for one instrument. It is updated exactly
// once per tick by the bot orchestrator; every downstream reader only ever
// reads the Snapshot it returns.
type Engine struct {
	ema12, ema26, ema200 *EMA
	macd                 *MACD
	rsi                  *RSI
	atr                  *ATR
	atrHistory           *ring
	std14, std150        *RollingStdDev
	adx                  *ADX
	donchian             *Donchian

	last Snapshot
}

func NewEngine() *Engine {
	return &Engine{
		ema12:      NewEMA(12),
		ema26:      NewEMA(26),
		ema200:     NewEMA(200),
		macd:       NewMACD(12, 26, 9),
		rsi:        NewRSI(14),
		atr:        NewATR(14),
		atrHistory: newRing(150),
		std14:      NewRollingStdDev(14),
		std150:     NewRollingStdDev(150),
		adx:        NewADX(14),
		donchian:   NewDonchian(20),
	}
}

// Update folds a new price into every indicator and returns the refreshed
// snapshot. It never returns an error: individual indicators that are still
// warming up simply leave Snapshot.Ready false, per spec's "Hold/no-adjust"
// treatment of InsufficientHistory.
func (e *Engine) Update(price float64, ts time.Time) Snapshot {
	snap := Snapshot{Timestamp: ts}
	allReady := true

	if v, err := e.ema12.Update(price); err == nil {
		snap.EMA12 = v
	} else {
		allReady = false
	}
	if v, err := e.ema26.Update(price); err == nil {
		snap.EMA26 = v
	} else {
		allReady = false
	}
	if v, err := e.ema200.Update(price); err == nil {
		snap.EMA200 = v
	} else {
		allReady = false
	}

	if err := e.macd.Update(price); err == nil && e.macd.Ready() {
		snap.MACDLine = e.macd.Line()
		snap.MACDSignal = e.macd.Signal()
		snap.MACDHistogram = e.macd.Histogram()
	} else {
		allReady = false
	}

	if v, err := e.rsi.Update(price); err == nil {
		snap.RSI14 = v
	} else {
		allReady = false
	}

	if v, err := e.atr.Update(price); err == nil {
		snap.ATR14 = v
		e.atrHistory.push(v)
		if e.atrHistory.full() {
			snap.ATR14Percentile = e.atrHistory.percentileRank(v)
		} else {
			allReady = false
		}
	} else {
		allReady = false
	}

	if v, err := e.std14.Update(price); err == nil {
		snap.StdDev14 = v
	} else {
		allReady = false
	}
	if v, err := e.std150.Update(price); err == nil {
		snap.StdDev150 = v
	} else {
		allReady = false
	}

	if v, err := e.adx.Update(price); err == nil {
		snap.ADX14 = v
	} else {
		allReady = false
	}

	if upper, lower, err := e.donchian.Update(price); err == nil {
		snap.DonchianUpper = upper
		snap.DonchianLower = lower
		snap.DonchianBreakout = e.donchian.BreakoutStrength(price)
	} else {
		allReady = false
	}

	snap.Ready = allReady
	e.last = snap
	return snap
}

// Last returns the most recently computed snapshot without updating state.
func (e *Engine) Last() Snapshot { return e.last }
