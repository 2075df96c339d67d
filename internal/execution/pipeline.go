// Package execution implements the execution pipeline: quote -> build ->
// sign -> submit -> confirm for a single trade intent, with bounded retry
// on submission (exponential backoff with jitter, fixed at 3 attempts /
// 500ms base) and a pending-resolution set for confirmations that time
// out.
package execution

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/ducminhle1904/solgrid-bot/internal/boterrors"
	"github.com/ducminhle1904/solgrid-bot/internal/mev"
	"github.com/ducminhle1904/solgrid-bot/internal/regime"
	"github.com/ducminhle1904/solgrid-bot/internal/risk"
	"github.com/ducminhle1904/solgrid-bot/internal/venue"
)

// Config mirrors the execution pipeline's tunable knobs.
type Config struct {
	SlippageBps                 float64
	MaxSubmitAttempts           int
	SubmitBaseBackoff           time.Duration
	ConfirmTimeout              time.Duration
	PendingResolutionMaxRetries int
}

func DefaultConfig() Config {
	return Config{
		SlippageBps:                 50,
		MaxSubmitAttempts:           3,
		SubmitBaseBackoff:           500 * time.Millisecond,
		ConfirmTimeout:              60 * time.Second,
		PendingResolutionMaxRetries: 5,
	}
}

// priorityFeeSlotWindow is how many recent slots' priority fees are pulled
// per intent before picking the guardian's target percentile.
const priorityFeeSlotWindow = 20

// Intent is what the grid rebalancer, consensus, fee filter, and risk
// controller have already agreed is worth trying to execute.
type Intent struct {
	Side          string // "buy" | "sell"
	InputMint     string
	OutputMint    string
	AmountIn      float64
	ExpectedPrice float64
	Size          float64
}

// Result is the outcome of a single Execute call.
type Result struct {
	Filled  *risk.FilledTrade
	Pending venue.Signature // set when confirmation timed out and the tx is tracked for retried-confirm
}

// ExecutionFailed is the terminal, non-retryable outcome of a submission
// the venue rejected outright.
type ExecutionFailed struct {
	Reason string
}

func (e *ExecutionFailed) Error() string { return fmt.Sprintf("execution failed: %s", e.Reason) }

// Pipeline drives one trade intent through quote -> build -> sign -> submit
// -> confirm. It holds no risk/order state of its own; the orchestrator
// folds a successful Result into the risk controller and the order-
// lifecycle state machine.
type Pipeline struct {
	cfg      Config
	router   venue.SwapRouter
	signer   venue.Signer
	rpc      venue.RPC
	guardian *mev.Guardian
	rng      *rand.Rand

	pending map[venue.Signature]*pendingEntry
}

type pendingEntry struct {
	submittedAt time.Time
	retries     int
}

func New(cfg Config, router venue.SwapRouter, signer venue.Signer, rpc venue.RPC, guardian *mev.Guardian) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		router:   router,
		signer:   signer,
		rpc:      rpc,
		guardian: guardian,
		rng:      rand.New(rand.NewSource(1)),
		pending:  make(map[venue.Signature]*pendingEntry),
	}
}

// Execute runs the full pipeline for one intent. currentRegime is passed
// through to the slippage guardian, which relaxes its tolerance in
// HighVolatility.
func (p *Pipeline) Execute(ctx context.Context, intent Intent, currentRegime regime.Type) (Result, error) {
	quote, err := p.router.Quote(ctx, intent.InputMint, intent.OutputMint, intent.AmountIn, p.cfg.SlippageBps)
	if err != nil {
		return Result{}, boterrors.Wrap(err, boterrors.Recoverable, "execution", "quote")
	}

	effectivePrice := quote.OutAmount / intent.AmountIn
	if err := p.guardian.CheckSlippage(intent.ExpectedPrice, effectivePrice, currentRegime); err != nil {
		return Result{}, boterrors.Wrap(err, boterrors.Recoverable, "execution", "slippage-check").WithRetryable(false)
	}

	notionalUSDC := intent.Size * intent.ExpectedPrice
	if err := p.signer.Validate(notionalUSDC); err != nil {
		return Result{}, boterrors.Wrap(err, boterrors.RiskHalting, "execution", "validate-limits").WithRetryable(false)
	}

	unsigned, err := p.router.BuildSwap(ctx, quote, p.signer.PubKey())
	if err != nil {
		return Result{}, boterrors.Wrap(err, boterrors.Recoverable, "execution", "build-swap")
	}
	unsigned.PriorityFeeMicrolamports = p.samplePriorityFee(ctx)
	unsigned.NotionalUSDC = notionalUSDC

	if err := p.guardian.Bundle(1); err != nil {
		return Result{}, boterrors.Wrap(err, boterrors.Recoverable, "execution", "bundle-check").WithRetryable(false)
	}

	signed, err := p.signer.Sign(ctx, unsigned)
	if err != nil {
		if limitErr, ok := err.(*venue.ErrSignerLimit); ok {
			return Result{}, boterrors.Wrap(limitErr, boterrors.RiskHalting, "execution", "sign").WithRetryable(false)
		}
		return Result{}, boterrors.Wrap(err, boterrors.Recoverable, "execution", "sign").WithRetryable(false)
	}

	sig, err := p.submitWithRetry(ctx, signed)
	if err != nil {
		return Result{}, boterrors.Wrap(err, boterrors.Degraded, "execution", "submit")
	}

	status, err := p.rpc.Confirm(ctx, sig, time.Now().Add(p.cfg.ConfirmTimeout))
	if err != nil {
		return Result{}, boterrors.Wrap(err, boterrors.Degraded, "execution", "confirm")
	}

	switch status {
	case venue.Confirmed:
		delete(p.pending, sig)
		return Result{Filled: &risk.FilledTrade{
			Side:          intent.Side,
			ExpectedPrice: intent.ExpectedPrice,
			ExecutedPrice: effectivePrice,
			Size:          intent.Size,
			Timestamp:     time.Now(),
			TxID:          string(sig),
		}}, nil
	case venue.TimedOut:
		p.pending[sig] = &pendingEntry{submittedAt: time.Now()}
		return Result{Pending: sig}, nil
	default:
		return Result{}, &ExecutionFailed{Reason: "submission rejected by venue"}
	}
}

// submitWithRetry submits up to MaxSubmitAttempts times with exponential
// backoff from SubmitBaseBackoff.
func (p *Pipeline) submitWithRetry(ctx context.Context, tx venue.SignedTx) (venue.Signature, error) {
	var lastErr error
	for attempt := 0; attempt < p.cfg.MaxSubmitAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		sig, err := p.rpc.Submit(ctx, tx)
		if err == nil {
			return sig, nil
		}
		lastErr = err
		if attempt == p.cfg.MaxSubmitAttempts-1 {
			break
		}
		delay := p.backoff(attempt)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}
	return "", lastErr
}

// samplePriorityFee pulls recent priority fees from the RPC endpoint into
// the guardian's rolling sample window, then returns its target-percentile
// fee for this intent's transaction. An RPC error just falls back to the
// guardian's existing sample window rather than failing the intent.
func (p *Pipeline) samplePriorityFee(ctx context.Context) uint64 {
	if fees, err := p.rpc.RecentPriorityFees(ctx, priorityFeeSlotWindow); err == nil {
		for _, fee := range fees {
			p.guardian.RecordFee(fee)
		}
	}
	return p.guardian.PriorityFee()
}

func (p *Pipeline) backoff(attempt int) time.Duration {
	base := p.cfg.SubmitBaseBackoff
	delay := base << attempt // 500ms, 1s, 2s, ...
	jitter := time.Duration(float64(delay) * 0.1 * p.rng.Float64())
	return delay + jitter
}

// RetryPendingConfirmations re-polls every signature still awaiting
// confirmation, bounded by PendingResolutionMaxRetries. A signature that
// exhausts its retries without resolving is escalated to the caller as a
// Fatal boterrors.BotError, since the pipeline cannot tell whether the
// transaction landed without a human reconciling balances.
func (p *Pipeline) RetryPendingConfirmations(ctx context.Context) []PendingOutcome {
	var outcomes []PendingOutcome
	for sig, entry := range p.pending {
		status, err := p.rpc.Confirm(ctx, sig, time.Now().Add(p.cfg.ConfirmTimeout))
		if err != nil {
			entry.retries++
		} else {
			switch status {
			case venue.Confirmed:
				outcomes = append(outcomes, PendingOutcome{Signature: sig, Confirmed: true})
				delete(p.pending, sig)
				continue
			case venue.TimedOut:
				entry.retries++
			default:
				outcomes = append(outcomes, PendingOutcome{Signature: sig, Confirmed: false,
					Err: &ExecutionFailed{Reason: "pending confirmation rejected"}})
				delete(p.pending, sig)
				continue
			}
		}
		if entry.retries >= p.cfg.PendingResolutionMaxRetries {
			outcomes = append(outcomes, PendingOutcome{
				Signature: sig,
				Confirmed: false,
				Err: boterrors.New(boterrors.Fatal, "execution", "confirm-retry",
					"confirmation ambiguity: exhausted pending-resolution retries").WithContext("signature", string(sig)),
			})
			delete(p.pending, sig)
		}
	}
	return outcomes
}

// DiscardPending drops every signature still awaiting confirmation. Called
// on shutdown: a confirmation arriving after shutdown is logged and
// discarded, not retried.
func (p *Pipeline) DiscardPending() int {
	n := len(p.pending)
	p.pending = make(map[venue.Signature]*pendingEntry)
	return n
}

// PendingOutcome reports what happened to a previously-timed-out
// confirmation on a later retry pass.
type PendingOutcome struct {
	Signature venue.Signature
	Confirmed bool
	Err       error
}
