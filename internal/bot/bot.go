// Package bot implements the bot orchestrator: the single tick loop that
// drives the indicator engine, regime classifier, optimizer, fee filter,
// grid rebalancer, consensus, MEV guard, and execution pipeline in sequence
// each tick, owns the only writable copies of the risk and order-lifecycle
// state, and coordinates graceful shutdown. The run loop shape — a
// signal-driven loop reading a single input stream and fanning out to named
// subsystems — is a common pattern for this kind of long-running trading
// process; every subsystem it fans out to is specific to grid trading.
package bot

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ducminhle1904/solgrid-bot/internal/boterrors"
	"github.com/ducminhle1904/solgrid-bot/internal/config"
	"github.com/ducminhle1904/solgrid-bot/internal/consensus"
	"github.com/ducminhle1904/solgrid-bot/internal/execution"
	"github.com/ducminhle1904/solgrid-bot/internal/feed"
	"github.com/ducminhle1904/solgrid-bot/internal/feefilter"
	"github.com/ducminhle1904/solgrid-bot/internal/grid"
	"github.com/ducminhle1904/solgrid-bot/internal/indicators"
	"github.com/ducminhle1904/solgrid-bot/internal/journal"
	"github.com/ducminhle1904/solgrid-bot/internal/logger"
	"github.com/ducminhle1904/solgrid-bot/internal/mev"
	"github.com/ducminhle1904/solgrid-bot/internal/monitoring"
	"github.com/ducminhle1904/solgrid-bot/internal/optimizer"
	"github.com/ducminhle1904/solgrid-bot/internal/orderstate"
	"github.com/ducminhle1904/solgrid-bot/internal/regime"
	"github.com/ducminhle1904/solgrid-bot/internal/risk"
	"github.com/ducminhle1904/solgrid-bot/internal/safety"
	"github.com/ducminhle1904/solgrid-bot/internal/venue"
)

// errStatsWindow bounds how many recent errors feed the recoverable-error
// escalation check; recoverableEscalateThreshold is how many of those must
// be Recoverable before handleExecutionError treats
// the run as unstable and escalates to an emergency halt.
const (
	errStatsWindow               = 20
	recoverableEscalateThreshold = 10
)

// Bot owns every component instance for one trading session and drives the
// tick loop that connects them.
type Bot struct {
	cfg config.Config

	feed      feed.PriceFeed
	ind       *indicators.Engine
	classify  *regime.Classifier
	opt       *optimizer.Optimizer
	gridEng   *grid.Engine
	cons      *consensus.Consensus
	feeFil    *feefilter.Filter
	guardian  *mev.Guardian
	riskCtl   *risk.Controller
	pipeline  *execution.Pipeline
	jrnl      *journal.Journal
	health    *monitoring.HealthChecker
	validator *safety.Validator
	log       *logger.Logger

	lastPrice    float64
	lastTickTime time.Time
	lastTickRecv time.Time
	lastRegime   regime.Type
	perf         optimizer.PerformanceWindow
	tradesTotal  int
	degraded     bool
	errStats     *boterrors.Stats

	mu       sync.RWMutex
	running  bool
	stopOnce sync.Once
	stopChan chan struct{}
}

// Deps bundles the externally-constructed pieces a Bot needs: the price
// feed and the three venue interfaces the execution pipeline requires.
// Everything else (the pure decision components) is built internally from
// cfg.
type Deps struct {
	Feed   feed.PriceFeed
	Router venue.SwapRouter
	Signer venue.Signer
	RPC    venue.RPC
	Log    *logger.Logger
}

// New wires every component from cfg and the supplied venue dependencies.
func New(cfg config.Config, deps Deps) *Bot {
	guardian := mev.NewGuardian(cfg.MEV)
	health := monitoring.NewHealthChecker()
	health.SetStaleAfter(cfg.Venue.MaxFeedSilence)
	return &Bot{
		cfg:       cfg,
		feed:      deps.Feed,
		ind:       indicators.NewEngine(),
		classify:  regime.NewClassifier(cfg.Regime),
		opt:       optimizer.New(cfg.Optimizer),
		gridEng:   grid.New(cfg.Trading),
		cons:      consensus.New(cfg.Consensus),
		feeFil:    feefilter.New(cfg.FeeFilter),
		guardian:  guardian,
		riskCtl:   risk.NewController(cfg.Risk, cfg.StartingEquity),
		pipeline:  execution.New(cfg.Execution, deps.Router, deps.Signer, deps.RPC, guardian),
		jrnl:      journal.New(),
		health:    health,
		validator: safety.NewValidator(),
		log:       deps.Log,
		errStats:  boterrors.NewStats(errStatsWindow),
		stopChan:  make(chan struct{}),
	}
}

// Run starts the tick loop and blocks until ctx is cancelled, a SIGINT/
// SIGTERM is received, or an unrecoverable error occurs. It always runs the
// shutdown sequence before returning.
func (b *Bot) Run(ctx context.Context) error {
	b.mu.Lock()
	b.running = true
	b.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	ticks, err := b.feed.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("bot: subscribe to price feed: %w", err)
	}

	pendingRetryTicker := time.NewTicker(10 * time.Second)
	defer pendingRetryTicker.Stop()

	silenceCheckInterval := b.cfg.Venue.MaxFeedSilence / 2
	if silenceCheckInterval <= 0 {
		silenceCheckInterval = 15 * time.Second
	}
	silenceTicker := time.NewTicker(silenceCheckInterval)
	defer silenceTicker.Stop()

	b.health.SetConnected(true)
	b.lastTickRecv = time.Now()

	for {
		select {
		case <-ctx.Done():
			b.shutdown()
			return ctx.Err()
		case <-b.stopChan:
			b.shutdown()
			return nil
		case sig := <-sigCh:
			if b.log != nil {
				b.log.Info("received signal %s, shutting down", sig)
			}
			b.shutdown()
			return nil
		case <-pendingRetryTicker.C:
			b.resolvePending(ctx)
		case <-silenceTicker.C:
			b.checkFeedSilence()
		case tick, ok := <-ticks:
			if !ok {
				// The feed terminated its stream (replay exhaustion,
				// Close() elsewhere, or the underlying transport giving
				// up after its own reconnect budget). Nothing further
				// can arrive on this channel, so shut down gracefully
				// rather than treat it as a fatal condition.
				b.health.SetConnected(false)
				b.shutdown()
				return nil
			}
			b.onTick(ctx, tick)
		}
	}
}

// Stop requests a graceful shutdown from outside the run loop.
func (b *Bot) Stop() {
	b.stopOnce.Do(func() { close(b.stopChan) })
}

// checkFeedSilence flags degraded mode once MaxFeedSilence has elapsed since
// the last tick was received from the feed. Degraded mode pauses new-order
// placement but leaves indicator, regime, and risk monitoring running; it
// clears automatically the next time a tick arrives.
func (b *Bot) checkFeedSilence() {
	if b.cfg.Venue.MaxFeedSilence <= 0 || b.degraded {
		return
	}
	if time.Since(b.lastTickRecv) > b.cfg.Venue.MaxFeedSilence {
		b.degraded = true
		if b.log != nil {
			b.log.LogWarning("feed", "no tick in %s, entering degraded mode: new orders paused", b.cfg.Venue.MaxFeedSilence)
		}
	}
}

// onTick runs the full indicator-through-execution decision chain for a
// single price observation.
func (b *Bot) onTick(ctx context.Context, tick feed.Tick) {
	b.lastTickRecv = time.Now()
	if b.degraded {
		b.degraded = false
		if b.log != nil {
			b.log.Info("tick resumed after silence, leaving degraded mode")
		}
	}

	if tick.Timestamp.Compare(b.lastTickTime) <= 0 && !b.lastTickTime.IsZero() {
		if b.log != nil {
			b.log.LogWarning("tick", "dropped out-of-order/duplicate tick at %s (last %s)", tick.Timestamp, b.lastTickTime)
		}
		return
	}
	b.lastTickTime = tick.Timestamp

	if result := b.validator.ValidatePrice(tick.Price, b.cfg.Venue.Symbol); !result.Valid {
		if b.log != nil {
			b.log.LogWarning("tick", "rejected: %s", result.Message)
		}
		return
	}

	b.health.UpdateLastTick(tick.Timestamp)
	b.health.UpdatePrice(tick.Price)
	prevPrice := b.lastPrice
	b.lastPrice = tick.Price

	snap := b.ind.Update(tick.Price, tick.Timestamp)
	riskSnap := b.riskCtl.Snapshot()
	b.health.SetRiskState(riskSnap.BreakerTripped, riskSnap.EmergencyHalt)

	regimeSignal := b.classify.Classify(snap, riskSnap.CurrentDrawdownPct)
	if regimeSignal.Type != b.lastRegime {
		if b.log != nil {
			b.log.LogRegimeChange(regimeTypeName(b.lastRegime), regimeTypeName(regimeSignal.Type), regimeSignal.Confidence)
		}
		monitoring.RecordRegime(b.cfg.Venue.Symbol, regimeTypeName(regimeSignal.Type), allRegimeNames())
		b.lastRegime = regimeSignal.Type
	}

	if out, due := b.opt.Tick(b.perf); due {
		b.gridEng.Build(b.anchorOrCurrent(tick.Price), out.SpacingPercent, out.PositionSize, tick.Timestamp)
	}
	if b.gridEng.Snapshot().Spacing == 0 {
		out := b.opt.Last()
		if out.SpacingPercent == 0 {
			out = optimizer.Output{SpacingPercent: b.cfg.Optimizer.BaseSpacingPercent, PositionSize: b.cfg.Optimizer.BasePositionSize}
		}
		b.gridEng.Build(tick.Price, out.SpacingPercent, out.PositionSize, tick.Timestamp)
	}

	action := b.gridEng.Evaluate(tick.Price, regimeSignal, tick.Timestamp)
	if action.Reposition {
		b.gridEng.CancelAll()
		out := b.opt.Last()
		b.gridEng.Build(tick.Price, out.SpacingPercent, out.PositionSize, tick.Timestamp)
	}
	if action.TradingBlocked {
		return
	}
	if riskSnap.EmergencyHalt || riskSnap.BreakerTripped {
		return
	}
	if b.degraded {
		return
	}

	crossed := b.gridEng.CrossedLevel(prevPrice, tick.Price)
	signals := []consensus.Signal{
		consensus.GridSignal(tick.Price, crossed, b.gridEng.Snapshot().Spacing),
		consensus.RSISignal(snap, b.cfg.Consensus),
		consensus.MomentumSignal(snap),
	}
	decision := b.cons.Aggregate(signals)
	if b.cons.Tick() {
		b.updateConsensusWeights()
	}
	if crossed == nil {
		return
	}
	// A Hold decision doesn't veto a crossed grid level: Grid-only execution
	// on an all-Hold consensus is the documented fallback path — C5/C9 still
	// drive level fills, since RSI/Momentum co-firing above MinConfidence is
	// the exception, not the gate.
	if b.log != nil {
		b.log.Strategy("consensus=%s buy=%.3f sell=%.3f crossed_level=%d", decision.Action, decision.BuyScore, decision.SellScore, crossed.ID)
	}

	side := "buy"
	if crossed.Side == orderstate.Sell {
		side = "sell"
	}

	feeDecision := b.feeFil.Evaluate(feefilter.Request{
		CurrentPrice: tick.Price,
		TargetPrice:  crossed.Price,
		PositionSize: crossed.Size,
		Volatility:   snap.ATR14,
		Regime:       regimeSignal.Type,
	}, b.tradesTotal)
	if !feeDecision.Accept {
		return
	}

	if result := b.validator.ValidateQuantity(crossed.Size, b.cfg.Venue.Symbol); !result.Valid {
		if b.log != nil {
			b.log.LogWarning("level", "rejected: %s", result.Message)
		}
		return
	}
	if result := b.validator.ValidateGridLevel(crossed.ID); !result.Valid {
		if b.log != nil {
			b.log.LogWarning("level", "rejected: %s", result.Message)
		}
		return
	}

	intent := risk.Intent{
		Side:          side,
		ExpectedPrice: crossed.Price,
		Size:          crossed.Size,
		PositionAfter: crossed.Size,
	}
	riskDecision := b.riskCtl.Gate(intent)
	if !riskDecision.Allowed {
		if b.log != nil {
			b.log.Risk("intent rejected: %s", riskDecision.Reason)
		}
		return
	}

	if err := crossed.Open(tick.Timestamp); err != nil {
		return
	}

	result, err := b.pipeline.Execute(ctx, execution.Intent{
		Side:          side,
		InputMint:     b.cfg.Venue.InputMint,
		OutputMint:    b.cfg.Venue.OutputMint,
		AmountIn:      crossed.Size,
		ExpectedPrice: crossed.Price,
		Size:          crossed.Size,
	}, regimeSignal.Type)
	if err != nil {
		b.handleExecutionError(err)
		return
	}
	if result.Filled == nil {
		return // pending confirmation; resolved by resolvePending
	}

	b.recordFill(crossed, result.Filled, regimeSignal.Type)
}

func (b *Bot) recordFill(level *orderstate.Level, trade *risk.FilledTrade, currentRegime regime.Type) {
	_ = level.Fill()
	b.riskCtl.RecordFill(*trade)
	b.tradesTotal++
	b.perf.PlacedOrders++
	b.perf.FilledOrders++

	riskSnap := b.riskCtl.Snapshot()
	if riskSnap.BreakerTripped && b.log != nil {
		b.log.LogBreakerTrip(riskSnap.CurrentDrawdownPct, b.cfg.Risk.CircuitBreakerMaxLossPct)
	}
	if trade.PnL > 0 {
		b.perf.WinStreak++
		b.perf.LossStreak = 0
	} else if trade.PnL < 0 {
		b.perf.LossStreak++
		b.perf.WinStreak = 0
	}
	b.perf.DrawdownPct = riskSnap.CurrentDrawdownPct

	b.jrnl.Record(journal.Entry{
		Timestamp:   trade.Timestamp,
		Level:       level.ID,
		Side:        level.Side,
		Price:       trade.ExecutedPrice,
		Size:        trade.Size,
		FeePaid:     trade.Fees,
		RealizedPnL: trade.PnL,
		Regime:      regimeTypeName(currentRegime),
	})

	monitoring.RecordTrade(b.cfg.Venue.Symbol, level.Side.String(), consensus.StrategyGrid, trade.PnL)
	monitoring.DrawdownPct.WithLabelValues(b.cfg.Venue.Symbol).Set(riskSnap.CurrentDrawdownPct)
	if b.log != nil {
		b.log.LogLevelFill(level.ID, level.Side.String(), trade.ExecutedPrice, trade.Size, regimeTypeName(currentRegime))
	}
}

func (b *Bot) updateConsensusWeights() {
	recent := b.jrnl.Recent(50)
	if len(recent) == 0 {
		return
	}
	var roiSum float64
	for _, e := range recent {
		roiSum += e.RealizedPnL
	}
	roiRecent := roiSum / float64(len(recent))
	for _, strategy := range []string{consensus.StrategyGrid, consensus.StrategyRSI, consensus.StrategyMomentum} {
		b.cons.UpdateWeight(strategy, b.cons.Weights()[strategy], roiRecent)
	}
}

// handleExecutionError classifies every execution error by boterrors.Kind
// and acts accordingly: Fatal trips an emergency halt; RiskHalting stops new
// orders and cancels unfilled levels until an operator calls ManualReset;
// Degraded pauses new-order placement and waits for recovery; Recoverable is
// logged and left to the next tick's retry, unless a run of them in the
// recent window is itself escalated to an emergency halt.
func (b *Bot) handleExecutionError(err error) {
	if b.log != nil {
		b.log.LogError("execution", err)
	}
	var botErr *boterrors.BotError
	if !asBotError(err, &botErr) {
		return
	}
	b.errStats.Record(botErr)

	switch botErr.Kind {
	case boterrors.Fatal:
		b.riskCtl.TripEmergencyHalt()
		if b.log != nil {
			b.log.Risk("emergency halt triggered by fatal execution error: %s", botErr.Message)
		}
	case boterrors.RiskHalting:
		b.riskCtl.TripRiskHalt()
		b.gridEng.CancelAll()
		if b.log != nil {
			b.log.Risk("risk halt: new orders stopped and unfilled levels cancelled until operator reset: %s", botErr.Message)
		}
	case boterrors.Degraded:
		b.degraded = true
		if b.log != nil {
			b.log.LogWarning("execution", "degraded: new orders paused pending recovery: %s", botErr.Message)
		}
	case boterrors.Recoverable:
		if b.errStats.RecentCount(boterrors.Recoverable) >= recoverableEscalateThreshold {
			b.riskCtl.TripEmergencyHalt()
			if b.log != nil {
				b.log.Risk("emergency halt: %d of the last %d errors were recoverable-but-persistent", b.errStats.RecentCount(boterrors.Recoverable), errStatsWindow)
			}
		}
	}
}

func asBotError(err error, target **boterrors.BotError) bool {
	for err != nil {
		if be, ok := err.(*boterrors.BotError); ok {
			*target = be
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}

// resolvePending re-polls confirmations that previously timed out.
func (b *Bot) resolvePending(ctx context.Context) {
	outcomes := b.pipeline.RetryPendingConfirmations(ctx)
	for _, o := range outcomes {
		if o.Err != nil {
			b.handleExecutionError(o.Err)
		}
	}
}

// shutdown runs the graceful-stop sequence: cancel every non-terminal grid
// level, discard unresolved confirmations rather than retry them past
// process lifetime, and close the feed.
func (b *Bot) shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.running {
		return
	}
	b.running = false

	b.gridEng.CancelAll()
	discarded := b.pipeline.DiscardPending()
	if discarded > 0 && b.log != nil {
		b.log.Info("discarded %d unresolved confirmations at shutdown", discarded)
	}
	if err := b.feed.Close(); err != nil && b.log != nil {
		b.log.LogError("feed close", err)
	}
	if b.log != nil {
		summary := b.jrnl.Summary()
		b.log.Info("session summary: trades=%d pnl=%.4f fees=%.4f", summary.TotalTrades, summary.RealizedPnL, summary.TotalFees)
	}
}

func (b *Bot) anchorOrCurrent(price float64) float64 {
	if snap := b.gridEng.Snapshot(); snap.Anchor > 0 {
		return snap.Anchor
	}
	return price
}

// Journal exposes the session's trade ledger, e.g. for an end-of-run
// xlsx export from the CLI.
func (b *Bot) Journal() *journal.Journal { return b.jrnl }

// Health exposes the health checker for an HTTP mux to serve.
func (b *Bot) Health() *monitoring.HealthChecker { return b.health }

func regimeTypeName(t regime.Type) string {
	return t.String()
}

func allRegimeNames() []string {
	return []string{
		regime.Ranging.String(),
		regime.TrendingUp.String(),
		regime.TrendingDown.String(),
		regime.HighVolatility.String(),
		regime.LowVolatility.String(),
		regime.Emergency.String(),
	}
}
