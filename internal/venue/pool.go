package venue

import (
	"context"
	"fmt"
	"time"

	"github.com/ducminhle1904/solgrid-bot/internal/safety"
)

// EndpointPool round-robins across a set of RPC endpoints, wrapping each
// with a CircuitBreaker so an endpoint accumulating consecutive failures is
// quarantined for a cooldown window. Submission also passes through a
// shared safety.RateLimiter, so a burst of intents from the orchestrator
// cannot flood every endpoint at once.
type EndpointPool struct {
	endpoints []RPC
	breakers  []*safety.CircuitBreaker
	limiter   *safety.RateLimiter
	next      int
}

// NewEndpointPool wires one circuit breaker per endpoint plus a shared
// submission rate limiter. cooldown maps to the breaker's Timeout (how long
// an open breaker waits before a half-open retry); failureThreshold is how
// many consecutive failures open it. submitCapacity/submitRefillPerSec size
// the token bucket governing total outbound submissions across the pool.
func NewEndpointPool(endpoints []RPC, failureThreshold uint32, cooldown time.Duration, submitCapacity, submitRefillPerSec int) *EndpointPool {
	breakers := make([]*safety.CircuitBreaker, len(endpoints))
	for i := range endpoints {
		breakers[i] = safety.NewCircuitBreaker(fmt.Sprintf("rpc-endpoint-%d", i), safety.CircuitBreakerConfig{
			FailureThreshold: failureThreshold,
			Timeout:          cooldown,
		})
	}
	return &EndpointPool{
		endpoints: endpoints,
		breakers:  breakers,
		limiter:   safety.NewRateLimiter("rpc-submit", submitCapacity, submitRefillPerSec),
	}
}

// Submit tries endpoints round-robin, skipping any currently quarantined,
// until one succeeds or all have been tried. It first waits on the shared
// submission rate limiter so repeated retries cannot outrun the configured
// submission budget.
func (p *EndpointPool) Submit(ctx context.Context, tx SignedTx) (Signature, error) {
	if len(p.endpoints) == 0 {
		return "", fmt.Errorf("venue: no RPC endpoints configured")
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}
	var lastErr error = ErrQuarantined
	for i := 0; i < len(p.endpoints); i++ {
		idx := (p.next + i) % len(p.endpoints)
		var sig Signature
		err := p.breakers[idx].Call(func() error {
			var innerErr error
			sig, innerErr = p.endpoints[idx].Submit(ctx, tx)
			return innerErr
		})
		if err == nil {
			p.next = (idx + 1) % len(p.endpoints)
			return sig, nil
		}
		lastErr = err
	}
	return "", lastErr
}

// Confirm delegates to the first non-quarantined endpoint; confirmation
// polling doesn't need load distribution the way submission does.
func (p *EndpointPool) Confirm(ctx context.Context, sig Signature, deadline time.Time) (ConfirmStatus, error) {
	if len(p.endpoints) == 0 {
		return Failed, fmt.Errorf("venue: no RPC endpoints configured")
	}
	var status ConfirmStatus
	var lastErr error = ErrQuarantined
	for i := 0; i < len(p.endpoints); i++ {
		idx := (p.next + i) % len(p.endpoints)
		err := p.breakers[idx].Call(func() error {
			var innerErr error
			status, innerErr = p.endpoints[idx].Confirm(ctx, sig, deadline)
			return innerErr
		})
		if err == nil {
			return status, nil
		}
		lastErr = err
	}
	return Failed, lastErr
}

func (p *EndpointPool) RecentPriorityFees(ctx context.Context, slotWindow int) ([]uint64, error) {
	if len(p.endpoints) == 0 {
		return nil, fmt.Errorf("venue: no RPC endpoints configured")
	}
	return p.endpoints[p.next%len(p.endpoints)].RecentPriorityFees(ctx, slotWindow)
}
