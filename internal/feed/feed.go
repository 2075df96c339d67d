// Package feed defines the PriceFeed interface the orchestrator consumes,
// plus the reference implementations the repository ships so the engine is
// runnable end-to-end: a CEX-polling feed built on a Bybit client
// (internal/exchange/bybit), a raw-websocket feed, and a replay feed for
// tests. None of these are "the core" — the orchestrator only ever sees
// PriceFeed.
package feed

import (
	"context"
	"time"
)

// Tick is one price observation: immutable, ordered by Timestamp.
// Confidence is optional; a zero value means "not reported" and callers
// should not special-case it as "zero confidence".
type Tick struct {
	Price      float64
	Timestamp  time.Time
	Confidence float64
	HasConfidence bool
}

// PriceFeed is the narrow interface the orchestrator consumes: a lazy,
// possibly-infinite sequence of ticks reachable only through Subscribe,
// with Close releasing the underlying transport.
type PriceFeed interface {
	// Subscribe returns a channel of ticks. The channel is closed when the
	// feed terminates (error or Close). Subscribe may perform connection
	// setup before returning; ticks are delivered from a background
	// goroutine.
	Subscribe(ctx context.Context) (<-chan Tick, error)
	Close() error
}
