// Package venue defines the three narrow interfaces the execution pipeline
// consumes to reach the chain — SwapRouter, Signer, RPC — plus a simulated
// implementation of each for dry-run and test use. No Solana SDK dependency
// is pulled in, so these types are deliberately minimal: a payload byte
// slice stands in for a real transaction, and PublicKey/Signature are opaque
// strings rather than curve points. The shared-resource policy (serialized
// signer, round-robin RPC pool with failure-driven quarantine) reuses the
// circuit-breaker and retry-backoff patterns used elsewhere for
// network-facing collaborators.
package venue

import (
	"context"
	"errors"
	"time"
)

type PublicKey string
type Signature string

// Quote is a SwapRouter's answer to a quote request.
type Quote struct {
	InputMint   string
	OutputMint  string
	AmountIn    float64
	OutAmount   float64
	PriceImpact float64
	Route       string
}

// UnsignedTx is what build_swap returns: enough to sign without the router
// being consulted again. PriorityFeeMicrolamports is filled in by the
// execution pipeline after BuildSwap, from the MEV guardian's sampled fee.
type UnsignedTx struct {
	Payload                  []byte
	RecentBlockhashHint      string
	LastValidBlockHeight     uint64
	PriorityFeeMicrolamports uint64
	NotionalUSDC             float64 // trade notional the pipeline validated pre-sign; Sign re-checks the same amount
}

// SignedTx is a transaction ready for RPC submission.
type SignedTx struct {
	Payload []byte
}

// SwapRouter is the consumed interface for quoting and building swaps. It
// never signs or submits.
type SwapRouter interface {
	Quote(ctx context.Context, inputMint, outputMint string, amountIn float64, slippageBps float64) (Quote, error)
	BuildSwap(ctx context.Context, q Quote, userPubkey PublicKey) (UnsignedTx, error)
}

// SignerLimitKind enumerates the rejection reasons Validate can report.
type SignerLimitKind int

const (
	LimitNone SignerLimitKind = iota
	LimitExceedsDailyVolume
	LimitExceedsDailyTrades
	LimitExceedsPositionSize
)

// ErrSignerLimit is returned by Validate when a keystore limit is breached.
type ErrSignerLimit struct {
	Kind SignerLimitKind
}

func (e *ErrSignerLimit) Error() string {
	switch e.Kind {
	case LimitExceedsDailyVolume:
		return "signer: exceeds daily volume limit"
	case LimitExceedsDailyTrades:
		return "signer: exceeds daily trade limit"
	case LimitExceedsPositionSize:
		return "signer: exceeds position size limit"
	default:
		return "signer: limit exceeded"
	}
}

// Signer is the sole holder of private-key material: it validates against
// keystore limits, attaches the blockhash, and signs, atomically with
// decrementing its internal limits.
type Signer interface {
	PubKey() PublicKey
	Validate(amountUSDC float64) error
	Sign(ctx context.Context, unsigned UnsignedTx) (SignedTx, error)
}

// ConfirmStatus is the outcome of polling for confirmation.
type ConfirmStatus int

const (
	Confirmed ConfirmStatus = iota
	Failed
	TimedOut
)

// RPC is the consumed interface for submission and confirmation polling.
type RPC interface {
	Submit(ctx context.Context, tx SignedTx) (Signature, error)
	Confirm(ctx context.Context, sig Signature, deadline time.Time) (ConfirmStatus, error)
	RecentPriorityFees(ctx context.Context, slotWindow int) ([]uint64, error)
}

var ErrQuarantined = errors.New("venue: endpoint quarantined")
