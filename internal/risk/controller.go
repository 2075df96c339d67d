// Package risk implements the risk controller: single-writer PnL and
// drawdown tracking, daily trade/volume caps, and the circuit breaker that
// halts new order placement once losses exceed the configured tolerance.
package risk

import (
	"sync"
	"time"
)

// Config holds the tunable risk limits.
type Config struct {
	CircuitBreakerMaxLossPct float64 // trip the breaker at this drawdown fraction
	StopLossPct              float64
	MaxPositionSize          float64
	MaxDailyTrades           int
	MaxDailyVolume           float64
	BreakerCooldown          time.Duration // time after trip before an automatic reset is considered
}

func DefaultConfig() Config {
	return Config{
		CircuitBreakerMaxLossPct: 0.05,
		StopLossPct:              0.03,
		MaxPositionSize:          10000,
		MaxDailyTrades:           200,
		MaxDailyVolume:           500000,
		BreakerCooldown:          30 * time.Minute,
	}
}

// Controller is the sole mutator of risk State; it is safe for concurrent
// read access via Snapshot but is only ever mutated from the orchestrator's
// tick loop goroutine.
type Controller struct {
	mu      sync.RWMutex
	cfg     Config
	state   State
	trippedAt time.Time
	startingEquity float64
}

func NewController(cfg Config, startingEquity float64) *Controller {
	return &Controller{
		cfg: cfg,
		startingEquity: startingEquity,
		state: State{
			PeakEquity: startingEquity,
		},
	}
}

// Snapshot returns a read-only copy of the current risk state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		CumulativePnL:      c.state.CumulativePnL,
		PeakEquity:         c.state.PeakEquity,
		CurrentDrawdownPct: c.state.CurrentDrawdownPct,
		TradesToday:        c.state.TradesToday,
		VolumeToday:        c.state.VolumeToday,
		BreakerTripped:     c.state.BreakerTripped,
		EmergencyHalt:      c.state.EmergencyHalt,
	}
}

// Gate evaluates whether an intent may proceed. It never mutates state: a
// rejected intent leaves no trace beyond the caller's own counters.
func (c *Controller) Gate(intent Intent) Decision {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.state.EmergencyHalt {
		return Decision{Allowed: false, Reason: "emergency halt active"}
	}
	if c.state.BreakerTripped {
		return Decision{Allowed: false, Reason: "circuit breaker tripped"}
	}
	if c.state.TradesToday >= c.cfg.MaxDailyTrades {
		return Decision{Allowed: false, Reason: "daily trade cap reached"}
	}
	if c.state.VolumeToday+intent.Size*intent.ExpectedPrice > c.cfg.MaxDailyVolume {
		return Decision{Allowed: false, Reason: "daily volume cap reached"}
	}
	if intent.PositionAfter > c.cfg.MaxPositionSize {
		return Decision{Allowed: false, Reason: "position size cap reached"}
	}
	return Decision{Allowed: true}
}

// RecordFill folds a settled trade into cumulative PnL, drawdown, and the
// daily counters, then trips the breaker if the new drawdown breaches the
// configured tolerance. Additions are commutative over order of arrival, so
// out-of-order confirmations are safe.
func (c *Controller) RecordFill(trade FilledTrade) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rollDailyCountersLocked(trade.Timestamp)

	c.state.CumulativePnL += trade.PnL
	c.state.TradesToday++
	c.state.VolumeToday += trade.Size * trade.ExecutedPrice

	equity := c.startingEquity + c.state.CumulativePnL
	if equity > c.state.PeakEquity {
		c.state.PeakEquity = equity
	}
	if c.state.PeakEquity > 0 {
		drawdown := (c.state.PeakEquity - equity) / c.state.PeakEquity
		if drawdown < 0 {
			drawdown = 0
		}
		c.state.CurrentDrawdownPct = drawdown
	}

	if !c.state.BreakerTripped && c.state.CurrentDrawdownPct >= c.cfg.CircuitBreakerMaxLossPct {
		c.state.BreakerTripped = true
		c.trippedAt = trade.Timestamp
	}
}

// TripEmergencyHalt is called by the orchestrator on a fatal/unrecoverable
// condition: stop placing new orders entirely, independent of the
// drawdown-driven breaker.
func (c *Controller) TripEmergencyHalt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.EmergencyHalt = true
}

// TripRiskHalt is called by the orchestrator when a boterrors.RiskHalting
// error occurs (e.g. the signer's daily limit is exhausted): it stops new
// orders the same way a drawdown-tripped breaker does, but only an operator
// calling ManualReset clears it — there is no cooldown-based auto-recovery.
func (c *Controller) TripRiskHalt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.BreakerTripped = true
}

// ResetBreaker clears a tripped circuit breaker. This is only ever called
// manually or after the configured cooldown elapses — never automatically
// by the breaker-trip path itself.
func (c *Controller) ResetBreaker(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.BreakerTripped {
		return false
	}
	if now.Sub(c.trippedAt) < c.cfg.BreakerCooldown {
		return false
	}
	c.state.BreakerTripped = false
	return true
}

// ManualReset clears the breaker unconditionally (operator intervention).
func (c *Controller) ManualReset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.BreakerTripped = false
}

func (c *Controller) rollDailyCountersLocked(now time.Time) {
	day := now.YearDay()
	if c.state.lastResetDay == 0 {
		c.state.lastResetDay = day
		return
	}
	if day != c.state.lastResetDay {
		c.state.TradesToday = 0
		c.state.VolumeToday = 0
		c.state.lastResetDay = day
	}
}
