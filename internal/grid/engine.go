// Package grid implements the grid rebalancer and carries the
// order-lifecycle snapshot the order-state machine operates on. It tracks
// level placement, staleness, and repositioning, and leaves fill accounting
// to the caller (the order-state machine, execution pipeline, and risk
// controller).
package grid

import (
	"time"

	"github.com/ducminhle1904/solgrid-bot/internal/orderstate"
	"github.com/ducminhle1904/solgrid-bot/internal/regime"
)

// Config holds the grid's tunable trading options.
type Config struct {
	GridLevels           int // total levels; half buy, half sell
	RepositionThreshold  float64
	OrderMaxAge          time.Duration
	OrderRefreshInterval time.Duration
	MinVolatilityToTrade float64 // ATR-percentile floor, only enforced when EnableRegimeGate
	EnableRegimeGate     bool
}

func DefaultConfig() Config {
	return Config{
		GridLevels:           10,
		RepositionThreshold:  0.9,
		OrderMaxAge:          4 * time.Hour,
		OrderRefreshInterval: time.Hour,
		MinVolatilityToTrade: 0.1,
		EnableRegimeGate:     true,
	}
}

// Snapshot is the grid's current state: one anchor, one spacing, and the
// levels built from them.
type Snapshot struct {
	Anchor  float64
	Spacing float64
	Size    float64
	Levels  []*orderstate.Level
	BuiltAt time.Time
}

// RefreshAction flags what a tick's evaluation asks the caller to do.
type RefreshAction struct {
	Reposition    bool
	RefreshLevels []*orderstate.Level // Open levels whose age demands a refresh
	TradingBlocked bool
	BlockedReason string
}

// Engine owns exactly one Snapshot at a time.
type Engine struct {
	cfg      Config
	snapshot Snapshot
	nextID   int
}

func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Snapshot returns the current grid snapshot.
func (e *Engine) Snapshot() Snapshot { return e.snapshot }

// Build replaces the current snapshot with a fresh one anchored at the
// given price, cancelling every non-terminal level from the old snapshot
// first. Levels are placed symmetrically: N/2 buys below the anchor, N/2
// sells above. size is read from the adaptive optimizer's latest output.
func (e *Engine) Build(anchor, spacing, size float64, now time.Time) Snapshot {
	for _, lvl := range e.snapshot.Levels {
		if !lvl.State.Terminal() {
			_ = lvl.Cancel()
		}
	}

	half := e.cfg.GridLevels / 2
	levels := make([]*orderstate.Level, 0, e.cfg.GridLevels)
	for k := 1; k <= half; k++ {
		price := anchor * (1 - float64(k)*spacing)
		levels = append(levels, orderstate.NewPlanned(e.nextID, price, orderstate.Buy, size, now))
		e.nextID++
	}
	for k := 1; k <= half; k++ {
		price := anchor * (1 + float64(k)*spacing)
		levels = append(levels, orderstate.NewPlanned(e.nextID, price, orderstate.Sell, size, now))
		e.nextID++
	}

	e.snapshot = Snapshot{Anchor: anchor, Spacing: spacing, Size: size, Levels: levels, BuiltAt: now}
	return e.snapshot
}

// Evaluate runs the per-tick reposition, staleness, and volatility-gate
// checks and reports what the orchestrator should do next. It never mutates
// the snapshot itself (except via the Expire call on each Open level, which
// is a no-op below the max age); repositioning and refreshing are left to
// the caller so order-state transitions stay centralized in one place.
func (e *Engine) Evaluate(price float64, regimeSignal regime.Signal, now time.Time) RefreshAction {
	var action RefreshAction

	if e.snapshot.Spacing > 0 {
		deviation := absf(price-e.snapshot.Anchor) / e.snapshot.Anchor
		if deviation > e.cfg.RepositionThreshold*e.snapshot.Spacing {
			action.Reposition = true
		}
	}

	for _, lvl := range e.snapshot.Levels {
		if lvl.State != orderstate.Open {
			continue
		}
		if e.cfg.OrderMaxAge > 0 {
			if expired, _ := lvl.Expire(now, e.cfg.OrderMaxAge); expired {
				continue
			}
		}
		if e.cfg.OrderRefreshInterval > 0 && now.Sub(lvl.OpenedAt) > e.cfg.OrderRefreshInterval {
			action.RefreshLevels = append(action.RefreshLevels, lvl)
		}
	}

	if e.cfg.EnableRegimeGate && regimeSignal.Type == regime.LowVolatility && regimeSignal.ATRPercentile < e.cfg.MinVolatilityToTrade {
		action.TradingBlocked = true
		action.BlockedReason = "low volatility regime gate"
	}

	return action
}

// CancelAll transitions every non-terminal level to Cancelled, used on
// reposition and on a risk halt.
func (e *Engine) CancelAll() {
	for _, lvl := range e.snapshot.Levels {
		if !lvl.State.Terminal() {
			_ = lvl.Cancel()
		}
	}
}

// CrossedLevel reports the still-Planned level, if any, whose price lies
// between prevPrice and price — i.e. the level the tick just crossed, not
// one it happens to land on exactly (real ticks essentially never land on
// an exact grid price). When a large jump crosses more than one level, the
// one nearest the new price is reported; the rest stay Planned to be picked
// up by a later, smaller tick. prevPrice of zero (no prior observation)
// never crosses anything.
func (e *Engine) CrossedLevel(prevPrice, price float64) *orderstate.Level {
	if prevPrice == 0 || prevPrice == price {
		return nil
	}
	lo, hi := prevPrice, price
	if lo > hi {
		lo, hi = hi, lo
	}

	var best *orderstate.Level
	bestDist := -1.0
	for _, lvl := range e.snapshot.Levels {
		if lvl.State != orderstate.Planned {
			continue
		}
		if lvl.Price < lo || lvl.Price > hi {
			continue
		}
		dist := absf(lvl.Price - price)
		if best == nil || dist < bestDist {
			best = lvl
			bestDist = dist
		}
	}
	return best
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
