// Package mev implements MEV protection: priority-fee sampling, a slippage
// guardian, and an optional all-or-nothing bundle path. The sampled state is
// a bounded numeric rolling percentile mutated under a single lock, the same
// shape as a token-bucket rate limiter but tracking fee distribution instead
// of a token count.
package mev

import (
	"errors"
	"sort"
	"sync"

	"github.com/ducminhle1904/solgrid-bot/internal/regime"
)

// Config holds the tunable MEV-protection options.
type Config struct {
	PriorityFeeTargetPercentile float64 // 0..1, default 0.5
	SampleSize                  int
	MinFee                      uint64 // microlamports
	MaxFee                      uint64
	MaxSlippageBps              float64
	VolatilityMultiplier        float64 // relaxation factor applied to MaxSlippageBps in HighVolatility
	TipLamports                 uint64
	MaxBundleSize               int
}

func DefaultConfig() Config {
	return Config{
		PriorityFeeTargetPercentile: 0.5,
		SampleSize:                  20,
		MinFee:                      1_000,
		MaxFee:                      2_000_000,
		MaxSlippageBps:              50,
		VolatilityMultiplier:        2.0,
		TipLamports:                 10_000,
		MaxBundleSize:               4,
	}
}

// ErrSlippageExceeded is returned by CheckSlippage when a quote's deviation
// from the expected price exceeds the configured tolerance.
var ErrSlippageExceeded = errors.New("mev: slippage exceeded")

// ErrBundleTooLarge is returned when a caller tries to submit more
// transactions than MaxBundleSize allows.
var ErrBundleTooLarge = errors.New("mev: bundle exceeds max size")

// Guardian samples recent priority fees and screens outgoing quotes for
// excess slippage before they are dispatched.
type Guardian struct {
	mu      sync.Mutex
	cfg     Config
	samples []uint64
}

func NewGuardian(cfg Config) *Guardian {
	return &Guardian{cfg: cfg, samples: make([]uint64, 0, cfg.SampleSize)}
}

// RecordFee folds a newly observed priority fee into the rolling sample
// window, evicting the oldest once SampleSize is reached.
func (g *Guardian) RecordFee(microlamports uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.samples = append(g.samples, microlamports)
	if len(g.samples) > g.cfg.SampleSize {
		g.samples = g.samples[len(g.samples)-g.cfg.SampleSize:]
	}
}

// PriorityFee picks the configured percentile from the current sample
// window and clamps it to [MinFee, MaxFee].
func (g *Guardian) PriorityFee() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.samples) == 0 {
		return g.cfg.MinFee
	}
	sorted := append([]uint64(nil), g.samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := int(g.cfg.PriorityFeeTargetPercentile * float64(len(sorted)-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	fee := sorted[idx]

	if fee < g.cfg.MinFee {
		return g.cfg.MinFee
	}
	if fee > g.cfg.MaxFee {
		return g.cfg.MaxFee
	}
	return fee
}

// CheckSlippage computes (actual-expected)/expected in basis points and
// rejects the quote if it exceeds MaxSlippageBps, relaxed by
// VolatilityMultiplier when the current regime is HighVolatility.
func (g *Guardian) CheckSlippage(expected, actual float64, currentRegime regime.Type) error {
	if expected == 0 {
		return ErrSlippageExceeded
	}
	bps := (actual - expected) / expected * 10000
	limit := g.cfg.MaxSlippageBps
	if currentRegime == regime.HighVolatility {
		limit *= g.cfg.VolatilityMultiplier
	}
	if absf(bps) > limit {
		return ErrSlippageExceeded
	}
	return nil
}

// Bundle validates a prospective bundle's size; callers submit as
// all-or-nothing once this passes.
func (g *Guardian) Bundle(txCount int) error {
	if txCount > g.cfg.MaxBundleSize {
		return ErrBundleTooLarge
	}
	return nil
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
