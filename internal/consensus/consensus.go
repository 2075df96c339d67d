// Package consensus implements strategy consensus: three sub-strategies
// (grid, RSI, momentum) each emit a directional signal with a confidence,
// and a weighted vote aggregates them into one decision. The aggregation
// uses a per-direction weighted score, a strength threshold, and a margin
// check against the opposing side, with weights that adapt over time by EMA
// instead of a fixed per-regime table.
package consensus

import (
	"math"

	"github.com/ducminhle1904/solgrid-bot/internal/indicators"
	"github.com/ducminhle1904/solgrid-bot/internal/orderstate"
)

// Action is the consensus's directional call.
type Action int

const (
	Hold Action = iota
	Buy
	Sell
)

func (a Action) String() string {
	switch a {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "HOLD"
	}
}

// Signal is one sub-strategy's vote.
type Signal struct {
	Strategy   string
	Action     Action
	Confidence float64
}

// Config holds the tunable consensus-voting options.
type Config struct {
	MinConfidence        float64 // per-signal floor to be counted at all (0.65)
	DecisionThreshold     float64 // aggregate score required to act, not just lead (0.65)
	Margin               float64 // required lead over the opposing aggregate
	UpdateFrequencyCycles int
	Alpha                float64 // weight toward confidence_recent vs roi_recent (0.6)
	WeightEMAFactor       float64 // smoothing factor for the weight update itself (0.3)
	RSIConfirmWith200EMA  bool
}

func DefaultConfig() Config {
	return Config{
		MinConfidence:         0.65,
		DecisionThreshold:     0.65,
		Margin:                0.1,
		UpdateFrequencyCycles: 50,
		Alpha:                 0.6,
		WeightEMAFactor:       0.3,
		RSIConfirmWith200EMA:  true,
	}
}

// Decision is the aggregated call the fee filter and risk controller gate
// next.
type Decision struct {
	Action     Action
	Confidence float64
	BuyScore   float64
	SellScore  float64
}

// Consensus holds the per-strategy weights, updated every
// UpdateFrequencyCycles ticks from each sub-strategy's recent performance.
type Consensus struct {
	cfg     Config
	weights map[string]float64
	ticks   int
}

const (
	StrategyGrid     = "grid"
	StrategyRSI      = "rsi"
	StrategyMomentum = "momentum"
)

func New(cfg Config) *Consensus {
	return &Consensus{
		cfg: cfg,
		weights: map[string]float64{
			StrategyGrid:     0.4,
			StrategyRSI:      0.3,
			StrategyMomentum: 0.3,
		},
	}
}

// GridSignal implements the grid sub-strategy: a Buy/Sell call at the level
// just crossed, confidence 1.0 at the level itself and decaying linearly
// with distance.
func GridSignal(price float64, crossed *orderstate.Level, spacing float64) Signal {
	if crossed == nil {
		return Signal{Strategy: StrategyGrid, Action: Hold}
	}
	action := Buy
	if crossed.Side == orderstate.Sell {
		action = Sell
	}
	distance := math.Abs(price-crossed.Price) / crossed.Price
	confidence := clamp01(1 - distance/spacing)
	return Signal{Strategy: StrategyGrid, Action: action, Confidence: confidence}
}

// RSISignal implements the RSI sub-strategy: oversold/overbought bands with
// confidence proportional to depth past the band, optionally gated by a
// 200-EMA trend-confirmation filter. A snapshot that is not yet Ready yields
// Hold.
func RSISignal(snap indicators.Snapshot, cfg Config) Signal {
	if !snap.Ready {
		return Signal{Strategy: StrategyRSI, Action: Hold}
	}
	switch {
	case snap.RSI14 < 30:
		if cfg.RSIConfirmWith200EMA && snap.EMA200 > 0 && snap.EMA12 < snap.EMA200 {
			// Below the long-term trend: the bounce this RSI reading implies
			// is weaker conviction, not disqualifying, so halve confidence.
			return Signal{Strategy: StrategyRSI, Action: Buy, Confidence: clamp01((30 - snap.RSI14) / 30 * 0.5)}
		}
		return Signal{Strategy: StrategyRSI, Action: Buy, Confidence: clamp01((30 - snap.RSI14) / 30)}
	case snap.RSI14 > 70:
		if cfg.RSIConfirmWith200EMA && snap.EMA200 > 0 && snap.EMA12 > snap.EMA200 {
			return Signal{Strategy: StrategyRSI, Action: Sell, Confidence: clamp01((snap.RSI14 - 70) / 30 * 0.5)}
		}
		return Signal{Strategy: StrategyRSI, Action: Sell, Confidence: clamp01((snap.RSI14 - 70) / 30)}
	default:
		return Signal{Strategy: StrategyRSI, Action: Hold}
	}
}

// MomentumSignal implements the momentum sub-strategy: MACD histogram sign
// and magnitude map to direction and confidence.
func MomentumSignal(snap indicators.Snapshot) Signal {
	if snap.MACDHistogram == 0 {
		return Signal{Strategy: StrategyMomentum, Action: Hold}
	}
	action := Buy
	if snap.MACDHistogram < 0 {
		action = Sell
	}
	// Scale by price so the magnitude is regime-comparable across assets;
	// clamp since a runaway histogram shouldn't imply certainty.
	magnitude := math.Abs(snap.MACDHistogram) / snap.EMA26
	return Signal{Strategy: StrategyMomentum, Action: action, Confidence: clamp01(magnitude * 50)}
}

// Aggregate performs the weighted vote: for each
// direction, sum weight*confidence over signals clearing MinConfidence;
// emit the stronger side only if it clears both DecisionThreshold and a
// margin over the opposite side.
func (c *Consensus) Aggregate(signals []Signal) Decision {
	buyScore, sellScore := 0.0, 0.0
	for _, s := range signals {
		if s.Confidence < c.cfg.MinConfidence {
			continue
		}
		w := c.weights[s.Strategy]
		switch s.Action {
		case Buy:
			buyScore += w * s.Confidence
		case Sell:
			sellScore += w * s.Confidence
		}
	}

	if buyScore >= c.cfg.DecisionThreshold && buyScore-sellScore >= c.cfg.Margin {
		return Decision{Action: Buy, Confidence: buyScore, BuyScore: buyScore, SellScore: sellScore}
	}
	if sellScore >= c.cfg.DecisionThreshold && sellScore-buyScore >= c.cfg.Margin {
		return Decision{Action: Sell, Confidence: sellScore, BuyScore: buyScore, SellScore: sellScore}
	}
	return Decision{Action: Hold, Confidence: math.Max(buyScore, sellScore), BuyScore: buyScore, SellScore: sellScore}
}

// Tick advances the cycle counter and reports whether this cycle is due for
// a weight update, per UpdateFrequencyCycles.
func (c *Consensus) Tick() bool {
	c.ticks++
	return c.cfg.UpdateFrequencyCycles > 0 && c.ticks%c.cfg.UpdateFrequencyCycles == 0
}

// UpdateWeight folds a strategy's recent confidence and ROI into its
// weight: w_new = α·confidence_recent + (1-α)·roi_recent, itself smoothed
// by an EMA factor against the previous weight.
func (c *Consensus) UpdateWeight(strategy string, confidenceRecent, roiRecent float64) {
	target := c.cfg.Alpha*confidenceRecent + (1-c.cfg.Alpha)*roiRecent
	prev := c.weights[strategy]
	c.weights[strategy] = c.cfg.WeightEMAFactor*target + (1-c.cfg.WeightEMAFactor)*prev
}

// Weights returns a copy of the current per-strategy weights.
func (c *Consensus) Weights() map[string]float64 {
	out := make(map[string]float64, len(c.weights))
	for k, v := range c.weights {
		out[k] = v
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
