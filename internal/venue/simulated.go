package venue

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// SimulatedRouter is a dry-run SwapRouter: it returns a quote derived from
// a caller-supplied reference price with a small synthetic price impact,
// and a build_swap that fabricates an opaque payload. No network calls.
type SimulatedRouter struct {
	mu           sync.Mutex
	ReferencePrice float64
	ImpactBps      float64 // synthetic price impact in bps, applied regardless of size
}

func NewSimulatedRouter(referencePrice float64) *SimulatedRouter {
	return &SimulatedRouter{ReferencePrice: referencePrice, ImpactBps: 2}
}

func (r *SimulatedRouter) SetReferencePrice(p float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ReferencePrice = p
}

func (r *SimulatedRouter) Quote(ctx context.Context, inputMint, outputMint string, amountIn float64, slippageBps float64) (Quote, error) {
	r.mu.Lock()
	price := r.ReferencePrice
	impact := r.ImpactBps
	r.mu.Unlock()

	impactFactor := 1 - impact/10000
	out := amountIn * price * impactFactor
	return Quote{
		InputMint:   inputMint,
		OutputMint:  outputMint,
		AmountIn:    amountIn,
		OutAmount:   out,
		PriceImpact: impact,
		Route:       "simulated-direct",
	}, nil
}

func (r *SimulatedRouter) BuildSwap(ctx context.Context, q Quote, userPubkey PublicKey) (UnsignedTx, error) {
	return UnsignedTx{
		Payload:              []byte(fmt.Sprintf("swap:%s:%s:%f", q.InputMint, q.OutputMint, q.OutAmount)),
		RecentBlockhashHint:  "simulated-blockhash",
		LastValidBlockHeight: 1_000_000,
	}, nil
}

// SimulatedSigner enforces daily volume, daily trade count, and
// per-position size limits, tracked in-process rather than against a real
// keystore.
type SimulatedSigner struct {
	mu sync.Mutex

	pubkey PublicKey

	maxDailyVolume  float64
	maxDailyTrades  int
	maxPositionSize float64

	volumeToday float64
	tradesToday int
	lastResetDay int
}

func NewSimulatedSigner(pubkey PublicKey, maxDailyVolume float64, maxDailyTrades int, maxPositionSize float64) *SimulatedSigner {
	return &SimulatedSigner{
		pubkey:          pubkey,
		maxDailyVolume:  maxDailyVolume,
		maxDailyTrades:  maxDailyTrades,
		maxPositionSize: maxPositionSize,
	}
}

func (s *SimulatedSigner) PubKey() PublicKey { return s.pubkey }

func (s *SimulatedSigner) Validate(amountUSDC float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validateLocked(amountUSDC)
}

func (s *SimulatedSigner) validateLocked(amountUSDC float64) error {
	s.rollDayLocked(time.Now())
	if amountUSDC > s.maxPositionSize {
		return &ErrSignerLimit{Kind: LimitExceedsPositionSize}
	}
	if s.volumeToday+amountUSDC > s.maxDailyVolume {
		return &ErrSignerLimit{Kind: LimitExceedsDailyVolume}
	}
	if s.tradesToday+1 > s.maxDailyTrades {
		return &ErrSignerLimit{Kind: LimitExceedsDailyTrades}
	}
	return nil
}

// Sign validates and decrements limits atomically with producing the
// signed transaction.
func (s *SimulatedSigner) Sign(ctx context.Context, unsigned UnsignedTx) (SignedTx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	amountUSDC := unsigned.NotionalUSDC
	if err := s.validateLocked(amountUSDC); err != nil {
		return SignedTx{}, err
	}
	s.volumeToday += amountUSDC
	s.tradesToday++

	payload := append([]byte("signed:"), unsigned.Payload...)
	return SignedTx{Payload: payload}, nil
}

func (s *SimulatedSigner) rollDayLocked(now time.Time) {
	day := now.YearDay()
	if s.lastResetDay == 0 {
		s.lastResetDay = day
		return
	}
	if day != s.lastResetDay {
		s.volumeToday = 0
		s.tradesToday = 0
		s.lastResetDay = day
	}
}

// SimulatedRPC accepts every submission immediately and confirms after a
// fixed simulated latency — no network calls, suitable for dry-run mode
// and deterministic tests.
type SimulatedRPC struct {
	mu      sync.Mutex
	rng     *rand.Rand
	pending map[Signature]time.Time
	latency time.Duration
}

func NewSimulatedRPC(latency time.Duration) *SimulatedRPC {
	return &SimulatedRPC{
		rng:     rand.New(rand.NewSource(1)),
		pending: make(map[Signature]time.Time),
		latency: latency,
	}
}

func (r *SimulatedRPC) Submit(ctx context.Context, tx SignedTx) (Signature, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sig := Signature(fmt.Sprintf("sig-%d", r.rng.Int63()))
	r.pending[sig] = time.Now().Add(r.latency)
	return sig, nil
}

func (r *SimulatedRPC) Confirm(ctx context.Context, sig Signature, deadline time.Time) (ConfirmStatus, error) {
	r.mu.Lock()
	readyAt, ok := r.pending[sig]
	r.mu.Unlock()
	if !ok {
		return Failed, fmt.Errorf("venue: unknown signature %s", sig)
	}
	if time.Now().After(deadline) {
		return TimedOut, nil
	}
	if time.Now().Before(readyAt) {
		return TimedOut, nil
	}
	return Confirmed, nil
}

func (r *SimulatedRPC) RecentPriorityFees(ctx context.Context, slotWindow int) ([]uint64, error) {
	fees := make([]uint64, slotWindow)
	for i := range fees {
		fees[i] = uint64(5000 + r.rng.Intn(5000))
	}
	return fees, nil
}
