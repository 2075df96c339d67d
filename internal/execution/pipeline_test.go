package execution

import (
	"context"
	"testing"
	"time"

	"github.com/ducminhle1904/solgrid-bot/internal/mev"
	"github.com/ducminhle1904/solgrid-bot/internal/regime"
	"github.com/ducminhle1904/solgrid-bot/internal/venue"
	"github.com/stretchr/testify/assert"
)

func TestPipeline_ExecuteConfirmsImmediately(t *testing.T) {
	router := venue.NewSimulatedRouter(100)
	signer := venue.NewSimulatedSigner("pk", 1_000_000, 1000, 100_000)
	rpc := venue.NewSimulatedRPC(0)
	guardian := mev.NewGuardian(mev.DefaultConfig())

	p := New(DefaultConfig(), router, signer, rpc, guardian)

	result, err := p.Execute(context.Background(), Intent{
		Side: "buy", InputMint: "USDC", OutputMint: "SOL",
		AmountIn: 10, ExpectedPrice: 100, Size: 0.1,
	}, regime.Ranging)

	assert.NoError(t, err)
	assert.NotNil(t, result.Filled)
}

func TestPipeline_ExecuteRejectsOnExcessSlippage(t *testing.T) {
	router := venue.NewSimulatedRouter(1000) // far from ExpectedPrice below
	signer := venue.NewSimulatedSigner("pk", 1_000_000, 1000, 100_000)
	rpc := venue.NewSimulatedRPC(0)
	guardian := mev.NewGuardian(mev.DefaultConfig())

	p := New(DefaultConfig(), router, signer, rpc, guardian)

	_, err := p.Execute(context.Background(), Intent{
		Side: "buy", InputMint: "USDC", OutputMint: "SOL",
		AmountIn: 10, ExpectedPrice: 100, Size: 0.1,
	}, regime.Ranging)

	assert.Error(t, err)
}

func TestPipeline_ExecuteRejectsOversizedIntentViaSignerLimit(t *testing.T) {
	router := venue.NewSimulatedRouter(100)
	signer := venue.NewSimulatedSigner("pk", 1_000_000, 1000, 500) // maxPositionSize=500 USDC
	rpc := venue.NewSimulatedRPC(0)
	guardian := mev.NewGuardian(mev.DefaultConfig())

	p := New(DefaultConfig(), router, signer, rpc, guardian)

	// notional = Size * ExpectedPrice = 10 * 100 = 1000 USDC, over the 500 limit.
	_, err := p.Execute(context.Background(), Intent{
		Side: "buy", InputMint: "USDC", OutputMint: "SOL",
		AmountIn: 10, ExpectedPrice: 100, Size: 10,
	}, regime.Ranging)

	assert.Error(t, err)
	var limitErr *venue.ErrSignerLimit
	assert.ErrorAs(t, err, &limitErr)
	assert.Equal(t, venue.LimitExceedsPositionSize, limitErr.Kind)
}

func TestPipeline_DiscardPendingClearsQueue(t *testing.T) {
	router := venue.NewSimulatedRouter(100)
	signer := venue.NewSimulatedSigner("pk", 1_000_000, 1000, 100_000)
	rpc := venue.NewSimulatedRPC(time.Hour) // never ready within ConfirmTimeout
	guardian := mev.NewGuardian(mev.DefaultConfig())

	cfg := DefaultConfig()
	cfg.ConfirmTimeout = 10 * time.Millisecond
	p := New(cfg, router, signer, rpc, guardian)

	result, err := p.Execute(context.Background(), Intent{
		Side: "buy", InputMint: "USDC", OutputMint: "SOL",
		AmountIn: 10, ExpectedPrice: 100, Size: 0.1,
	}, regime.Ranging)
	assert.NoError(t, err)
	assert.NotEmpty(t, result.Pending)

	discarded := p.DiscardPending()
	assert.Equal(t, 1, discarded)
}
