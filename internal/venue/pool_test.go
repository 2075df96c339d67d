package venue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type flakyRPC struct {
	fail bool
}

func (f *flakyRPC) Submit(ctx context.Context, tx SignedTx) (Signature, error) {
	if f.fail {
		return "", errors.New("rpc unavailable")
	}
	return "sig-ok", nil
}

func (f *flakyRPC) Confirm(ctx context.Context, sig Signature, deadline time.Time) (ConfirmStatus, error) {
	return Confirmed, nil
}

func (f *flakyRPC) RecentPriorityFees(ctx context.Context, slotWindow int) ([]uint64, error) {
	return []uint64{1000}, nil
}

func TestEndpointPool_FailsOverToNextEndpoint(t *testing.T) {
	bad := &flakyRPC{fail: true}
	good := &flakyRPC{fail: false}
	pool := NewEndpointPool([]RPC{bad, good}, 1, time.Minute, 10, 10)

	sig, err := pool.Submit(context.Background(), SignedTx{})
	assert.NoError(t, err)
	assert.Equal(t, Signature("sig-ok"), sig)
}

func TestEndpointPool_QuarantinesAfterThreshold(t *testing.T) {
	bad := &flakyRPC{fail: true}
	pool := NewEndpointPool([]RPC{bad}, 1, time.Hour, 10, 10)

	_, err := pool.Submit(context.Background(), SignedTx{})
	assert.Error(t, err)

	// Second attempt: breaker is now open, so EndpointPool reports the
	// breaker's open-circuit error rather than panicking.
	_, err = pool.Submit(context.Background(), SignedTx{})
	assert.Error(t, err)
}

func TestEndpointPool_RateLimiterBoundsSubmissions(t *testing.T) {
	good := &flakyRPC{fail: false}
	pool := NewEndpointPool([]RPC{good}, 5, time.Minute, 1, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := pool.Submit(context.Background(), SignedTx{})
	assert.NoError(t, err)

	// Bucket now empty; a near-immediate second submission under a short
	// deadline should time out waiting on the limiter.
	_, err = pool.Submit(ctx, SignedTx{})
	assert.Error(t, err)
}
