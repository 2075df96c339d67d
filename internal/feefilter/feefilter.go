// Package feefilter implements the pre-trade profitability gate: given a
// candidate level crossing, estimate gross profit and the costs of fees,
// slippage, and market impact, and accept only when gross profit clears a
// configurable (regime-scaled) multiple of those costs. The verdict is a typed decision with a Reason rather than a bare
// bool.
package feefilter

import (
	"math"

	"github.com/ducminhle1904/solgrid-bot/internal/regime"
)

// Config holds the tunable fee-filter options.
type Config struct {
	MakerFeePercent         float64
	TakerFeePercent         float64
	SlippagePercent         float64
	MinProfitMultiplier     float64
	VolatilityScalingFactor float64
	EnableMarketImpact      bool
	EnableRegimeAdjustment  bool
	GracePeriodTrades       int
}

func DefaultConfig() Config {
	return Config{
		MakerFeePercent:         0.0002,
		TakerFeePercent:         0.0004,
		SlippagePercent:         0.0005,
		MinProfitMultiplier:     2.0,
		VolatilityScalingFactor: 0.5,
		EnableMarketImpact:      true,
		EnableRegimeAdjustment:  true,
		GracePeriodTrades:       10,
	}
}

// Request describes a candidate level crossing awaiting a profitability
// verdict.
type Request struct {
	CurrentPrice float64
	TargetPrice  float64
	PositionSize float64
	Volatility   float64 // ATR or stddev, in price units
	Regime       regime.Type
}

// Decision is the gate's verdict: action plus reason instead of a bare
// bool.
type Decision struct {
	Accept    bool
	NetProfit float64
	Threshold float64
	Reason    string
}

// Filter evaluates candidate trades against estimated round-trip cost.
// The count of completed trades since start is Evaluate's tradesSoFar
// argument, supplied by the caller (the orchestrator tick loop) rather than
// tracked internally, since the
// grace period is a count of trades, not filter evaluations.
type Filter struct {
	cfg Config
}

func New(cfg Config) *Filter {
	return &Filter{cfg: cfg}
}

// Evaluate computes (accept, net_profit, reason) for a candidate level
// crossing. tradesSoFar bypasses the gate during the configured grace
// period so early statistics can accumulate without starving the bot of
// fills.
func (f *Filter) Evaluate(req Request, tradesSoFar int) Decision {
	if tradesSoFar < f.cfg.GracePeriodTrades {
		return Decision{Accept: true, Reason: "grace period"}
	}

	gross := math.Abs(req.TargetPrice-req.CurrentPrice) * req.PositionSize
	costs := f.costs(req)
	multiplier := f.cfg.MinProfitMultiplier
	if f.cfg.EnableRegimeAdjustment {
		switch req.Regime {
		case regime.LowVolatility:
			multiplier *= 1 + f.cfg.VolatilityScalingFactor
		case regime.HighVolatility:
			multiplier *= 1 - f.cfg.VolatilityScalingFactor
			if multiplier < 1 {
				multiplier = 1
			}
		}
	}

	threshold := multiplier * costs
	netProfit := gross - costs

	if gross < threshold {
		return Decision{
			Accept:    false,
			NetProfit: netProfit,
			Threshold: threshold,
			Reason:    "gross profit below cost threshold",
		}
	}
	return Decision{Accept: true, NetProfit: netProfit, Threshold: threshold}
}

func (f *Filter) costs(req Request) float64 {
	notional := req.PositionSize * req.CurrentPrice
	taker := notional * f.cfg.TakerFeePercent
	maker := notional * f.cfg.MakerFeePercent
	slippage := notional * f.cfg.SlippagePercent
	costs := taker + maker + 2*slippage
	if f.cfg.EnableMarketImpact {
		costs += marketImpact(notional)
	}
	return costs
}

// marketImpact is a simple square-root impact model: impact grows with the
// square root of notional size, a common proxy when no order-book depth
// data is available.
func marketImpact(notional float64) float64 {
	const impactCoefficient = 0.00005
	return impactCoefficient * math.Sqrt(notional)
}
