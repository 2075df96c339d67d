package indicators

import "math"

// RSI is a streaming Relative Strength Index using Wilder's smoothing, an
// O(1) per-tick update rather than a whole-slice recompute.
type RSI struct {
	period      int
	avgGain     float64
	avgLoss     float64
	lastPrice   float64
	haveLast    bool
	warmupGain  float64
	warmupLoss  float64
	warmupCount int
	initialized bool
	value       float64
}

func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

func (r *RSI) Update(price float64) (float64, error) {
	if !r.haveLast {
		r.lastPrice = price
		r.haveLast = true
		return 0, newInsufficientHistory("RSI", 0, r.period+1)
	}

	change := price - r.lastPrice
	r.lastPrice = price
	gain, loss := 0.0, 0.0
	if change > 0 {
		gain = change
	} else {
		loss = math.Abs(change)
	}

	if !r.initialized {
		r.warmupGain += gain
		r.warmupLoss += loss
		r.warmupCount++
		if r.warmupCount < r.period {
			return 0, newInsufficientHistory("RSI", r.warmupCount, r.period)
		}
		r.avgGain = r.warmupGain / float64(r.period)
		r.avgLoss = r.warmupLoss / float64(r.period)
		r.initialized = true
	} else {
		alpha := 1.0 / float64(r.period)
		r.avgGain = r.avgGain*(1-alpha) + gain*alpha
		r.avgLoss = r.avgLoss*(1-alpha) + loss*alpha
	}

	if r.avgLoss == 0 {
		r.value = 100
		return r.value, nil
	}
	rs := r.avgGain / r.avgLoss
	r.value = 100 - (100 / (1 + rs))
	return r.value, nil
}

func (r *RSI) Value() float64 { return r.value }
func (r *RSI) Ready() bool    { return r.initialized }
