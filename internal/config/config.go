// Package config loads and validates the bot's JSON configuration surface.
// It aggregates each component's own Config type so validation and
// defaulting stay colocated with the component that owns the semantics.
// JSON (encoding/json) is the configuration format: the repo's yaml.v3
// dependency is pulled in only transitively by excelize and is never used
// for anything load-bearing.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ducminhle1904/solgrid-bot/internal/consensus"
	"github.com/ducminhle1904/solgrid-bot/internal/execution"
	"github.com/ducminhle1904/solgrid-bot/internal/feefilter"
	"github.com/ducminhle1904/solgrid-bot/internal/grid"
	"github.com/ducminhle1904/solgrid-bot/internal/mev"
	"github.com/ducminhle1904/solgrid-bot/internal/optimizer"
	"github.com/ducminhle1904/solgrid-bot/internal/regime"
	"github.com/ducminhle1904/solgrid-bot/internal/risk"
)

// Venue identifies the instrument pair, chain-facing mints, and transport
// details for the reference feed/RPC adapters.
type Venue struct {
	Symbol          string        `json:"symbol"`
	InputMint       string        `json:"input_mint"`
	OutputMint      string        `json:"output_mint"`
	RPCEndpoints    []string      `json:"rpc_endpoints"`
	PriceFeedKind   string        `json:"price_feed_kind"` // "websocket" | "bybit" | "replay"
	PriceFeedURL    string        `json:"price_feed_url"`
	PriceFeedStream string        `json:"price_feed_stream"`
	MaxFeedSilence  time.Duration `json:"max_feed_silence"`
}

// Config is the root configuration surface. Each section mirrors one
// component's own Config type.
type Config struct {
	Venue     Venue            `json:"venue"`
	Trading   grid.Config      `json:"trading"`
	Optimizer optimizer.Config `json:"optimizer"`
	FeeFilter feefilter.Config `json:"fee_filter"`
	MEV       mev.Config       `json:"mev"`
	Risk      risk.Config      `json:"risk"`
	Consensus consensus.Config `json:"consensus"`
	Regime    regime.Config    `json:"regime"`
	Execution execution.Config `json:"execution"`

	StartingEquity float64 `json:"starting_equity"`
	DryRun         bool    `json:"dry_run"`
}

// DefaultConfig returns a complete configuration using every component's
// own default values.
func DefaultConfig() Config {
	return Config{
		Venue: Venue{
			Symbol:         "SOL/USDC",
			InputMint:      "So11111111111111111111111111111111111111112",
			OutputMint:     "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
			RPCEndpoints:   []string{"https://api.mainnet-beta.solana.com"},
			PriceFeedKind:  "replay",
			MaxFeedSilence: 30 * time.Second,
		},
		Trading:   grid.DefaultConfig(),
		Optimizer: optimizer.DefaultConfig(),
		FeeFilter: feefilter.DefaultConfig(),
		MEV:       mev.DefaultConfig(),
		Risk:      risk.DefaultConfig(),
		Consensus: consensus.DefaultConfig(),
		Regime:    regime.DefaultConfig(),
		Execution: execution.DefaultConfig(),

		StartingEquity: 5000,
		DryRun:         true,
	}
}

// Load reads and parses a JSON configuration file, starting from
// DefaultConfig so an omitted section falls back to its documented
// default instead of a zero value.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate catches misconfigurations that should make the process exit
// non-zero before the bot starts a tick loop. It does not re-derive
// invariants already enforced inside each component's own constructor; it
// only catches values that would make the bot fail silently or unsafely.
func (c Config) Validate() error {
	if c.Venue.Symbol == "" {
		return fmt.Errorf("config: venue.symbol is required")
	}
	if c.Venue.InputMint == "" || c.Venue.OutputMint == "" {
		return fmt.Errorf("config: venue.input_mint and venue.output_mint are required")
	}
	if len(c.Venue.RPCEndpoints) == 0 {
		return fmt.Errorf("config: at least one venue.rpc_endpoints entry is required")
	}
	switch c.Venue.PriceFeedKind {
	case "websocket", "bybit", "replay":
	default:
		return fmt.Errorf("config: venue.price_feed_kind must be one of websocket|bybit|replay, got %q", c.Venue.PriceFeedKind)
	}
	if c.Venue.PriceFeedKind == "websocket" && c.Venue.PriceFeedURL == "" {
		return fmt.Errorf("config: venue.price_feed_url is required when price_feed_kind=websocket")
	}

	if c.Trading.GridLevels <= 0 || c.Trading.GridLevels%2 != 0 {
		return fmt.Errorf("config: trading.grid_levels must be a positive even number, got %d", c.Trading.GridLevels)
	}
	if c.Optimizer.MinSpacingAbsolute <= 0 || c.Optimizer.MaxSpacingAbsolute <= c.Optimizer.MinSpacingAbsolute {
		return fmt.Errorf("config: optimizer spacing clamp band is invalid (min=%v max=%v)",
			c.Optimizer.MinSpacingAbsolute, c.Optimizer.MaxSpacingAbsolute)
	}
	if c.Optimizer.MinPositionAbsolute <= 0 || c.Optimizer.MaxPositionAbsolute <= c.Optimizer.MinPositionAbsolute {
		return fmt.Errorf("config: optimizer position clamp band is invalid (min=%v max=%v)",
			c.Optimizer.MinPositionAbsolute, c.Optimizer.MaxPositionAbsolute)
	}
	if c.FeeFilter.MinProfitMultiplier <= 0 {
		return fmt.Errorf("config: fee_filter.min_profit_multiplier must be positive")
	}
	if c.Risk.CircuitBreakerMaxLossPct <= 0 || c.Risk.CircuitBreakerMaxLossPct > 1 {
		return fmt.Errorf("config: risk.circuit_breaker_max_loss_pct must be in (0,1]")
	}
	if c.Risk.MaxDailyTrades <= 0 {
		return fmt.Errorf("config: risk.max_daily_trades must be positive")
	}
	if c.StartingEquity <= 0 {
		return fmt.Errorf("config: starting_equity must be positive")
	}
	if c.MEV.MaxSlippageBps <= 0 {
		return fmt.Errorf("config: mev.max_slippage_bps must be positive")
	}
	return nil
}
