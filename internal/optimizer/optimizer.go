// Package optimizer implements the adaptive optimizer: periodic retuning of
// grid spacing and position size from recent performance and market regime.
// A tiered mode maps drawdown severity directly to multiplier bands; an
// optional search mode runs a small, self-contained genetic-algorithm
// search over the same two multipliers, without pulling in a full
// backtesting engine (out of scope here).
package optimizer

import "math"

// DrawdownTier buckets the current drawdown into one of four severities.
type DrawdownTier int

const (
	TierLow DrawdownTier = iota
	TierModerate
	TierHigh
	TierEmergency
)

// Config holds the tunable adaptive-optimizer options.
type Config struct {
	Enabled                  bool
	OptimizationIntervalTicks int

	BaseSpacingPercent  float64
	BasePositionSize    float64

	// Drawdown tiers (upper bound of each, fractions of equity)
	DrawdownLowMax      float64
	DrawdownModerateMax float64
	DrawdownHighMax     float64

	// Spacing multipliers applied per tier: tighten when healthy, widen when stressed
	SpacingMultiplierLow      float64
	SpacingMultiplierModerate float64
	SpacingMultiplierHigh     float64
	SpacingMultiplierEmergency float64

	// Efficiency (filled/placed ratio) thresholds and size multipliers
	EfficiencyHighThreshold float64
	EfficiencyLowThreshold  float64
	SizeMultiplierHighEff   float64
	SizeMultiplierLowEff    float64

	WinStreakCap     int
	LossStreakCap    int
	WinStreakBonus   float64 // multiplicative bonus per win, capped at WinStreakCap
	LossStreakPenalty float64 // multiplicative penalty per loss, capped at LossStreakCap

	MinSpacingAbsolute   float64
	MaxSpacingAbsolute   float64
	MinPositionAbsolute  float64
	MaxPositionAbsolute  float64

	Mode string // "tiered" (default) or "search"
}

func DefaultConfig() Config {
	return Config{
		Enabled:                   true,
		OptimizationIntervalTicks: 10,
		BaseSpacingPercent:        0.003,
		BasePositionSize:          100,
		DrawdownLowMax:            0.01,
		DrawdownModerateMax:       0.03,
		DrawdownHighMax:           0.05,
		SpacingMultiplierLow:      0.85,
		SpacingMultiplierModerate: 1.0,
		SpacingMultiplierHigh:     1.3,
		SpacingMultiplierEmergency: 1.8,
		EfficiencyHighThreshold:   0.6,
		EfficiencyLowThreshold:    0.2,
		SizeMultiplierHighEff:     1.2,
		SizeMultiplierLowEff:      0.7,
		WinStreakCap:              5,
		LossStreakCap:             5,
		WinStreakBonus:            1.02,
		LossStreakPenalty:         0.97,
		MinSpacingAbsolute:        0.001,
		MaxSpacingAbsolute:        0.02,
		MinPositionAbsolute:       10,
		MaxPositionAbsolute:       1000,
		Mode:                      "tiered",
	}
}

// PerformanceWindow is the rolling trade-performance data the orchestrator
// feeds the optimizer each interval.
type PerformanceWindow struct {
	PlacedOrders  int
	FilledOrders  int
	WinStreak     int
	LossStreak    int
	DrawdownPct   float64
}

// Output is the pair of doubles the grid rebalancer reads every interval.
type Output struct {
	SpacingPercent float64
	PositionSize   float64
}

// Optimizer recomputes spacing/size on the interval cadence the
// orchestrator drives.
type Optimizer struct {
	cfg    Config
	ticks  int
	last   Output
	search *searchState
}

func New(cfg Config) *Optimizer {
	o := &Optimizer{cfg: cfg, last: Output{SpacingPercent: cfg.BaseSpacingPercent, PositionSize: cfg.BasePositionSize}}
	if cfg.Mode == "search" {
		o.search = newSearchState(cfg)
	}
	return o
}

// Tick advances the cycle counter; it returns (output, true) only on cycles
// where a retune is due, every OptimizationIntervalTicks. Between due cycles
// it returns the last computed output unchanged.
func (o *Optimizer) Tick(perf PerformanceWindow) (Output, bool) {
	o.ticks++
	if !o.cfg.Enabled {
		return Output{SpacingPercent: o.cfg.BaseSpacingPercent, PositionSize: o.cfg.BasePositionSize}, false
	}
	if o.cfg.OptimizationIntervalTicks <= 0 || o.ticks%o.cfg.OptimizationIntervalTicks != 0 {
		return o.last, false
	}

	var out Output
	if o.search != nil {
		out = o.search.suggest(o.cfg, perf)
	} else {
		out = o.tiered(perf)
	}
	out.SpacingPercent = clamp(out.SpacingPercent, o.cfg.MinSpacingAbsolute, o.cfg.MaxSpacingAbsolute)
	out.PositionSize = clamp(out.PositionSize, o.cfg.MinPositionAbsolute, o.cfg.MaxPositionAbsolute)
	o.last = out
	return out, true
}

// Last returns the most recently computed output without advancing state.
func (o *Optimizer) Last() Output { return o.last }

func (o *Optimizer) tiered(perf PerformanceWindow) Output {
	tier := drawdownTier(o.cfg, perf.DrawdownPct)
	spacing := o.cfg.BaseSpacingPercent * spacingMultiplierForTier(o.cfg, tier)

	efficiency := 0.0
	if perf.PlacedOrders > 0 {
		efficiency = float64(perf.FilledOrders) / float64(perf.PlacedOrders)
	}
	size := o.cfg.BasePositionSize * sizeMultiplierForEfficiency(o.cfg, efficiency)

	if perf.WinStreak > 0 {
		streak := perf.WinStreak
		if streak > o.cfg.WinStreakCap {
			streak = o.cfg.WinStreakCap
		}
		size *= math.Pow(o.cfg.WinStreakBonus, float64(streak))
	}
	if perf.LossStreak > 0 {
		streak := perf.LossStreak
		if streak > o.cfg.LossStreakCap {
			streak = o.cfg.LossStreakCap
		}
		size *= math.Pow(o.cfg.LossStreakPenalty, float64(streak))
	}

	return Output{SpacingPercent: spacing, PositionSize: size}
}

func drawdownTier(cfg Config, drawdownPct float64) DrawdownTier {
	switch {
	case drawdownPct <= cfg.DrawdownLowMax:
		return TierLow
	case drawdownPct <= cfg.DrawdownModerateMax:
		return TierModerate
	case drawdownPct <= cfg.DrawdownHighMax:
		return TierHigh
	default:
		return TierEmergency
	}
}

func spacingMultiplierForTier(cfg Config, tier DrawdownTier) float64 {
	switch tier {
	case TierLow:
		return cfg.SpacingMultiplierLow
	case TierModerate:
		return cfg.SpacingMultiplierModerate
	case TierHigh:
		return cfg.SpacingMultiplierHigh
	default:
		return cfg.SpacingMultiplierEmergency
	}
}

func sizeMultiplierForEfficiency(cfg Config, efficiency float64) float64 {
	switch {
	case efficiency >= cfg.EfficiencyHighThreshold:
		return cfg.SizeMultiplierHighEff
	case efficiency <= cfg.EfficiencyLowThreshold:
		return cfg.SizeMultiplierLowEff
	default:
		return 1.0
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
