package risk

import "time"

// State is the single-writer risk record. The risk controller is its only
// mutator; every other component receives a read-only copy via Snapshot.
type State struct {
	CumulativePnL      float64
	PeakEquity         float64
	CurrentDrawdownPct float64
	TradesToday        int
	VolumeToday        float64
	BreakerTripped     bool
	EmergencyHalt      bool

	lastResetDay int // day-of-year used to roll daily counters
}

// Snapshot is an immutable copy of State safe to hand to the regime
// classifier, grid rebalancer, and orchestrator.
type Snapshot struct {
	CumulativePnL      float64
	PeakEquity         float64
	CurrentDrawdownPct float64
	TradesToday        int
	VolumeToday        float64
	BreakerTripped     bool
	EmergencyHalt      bool
}

// FilledTrade is the append-only record the risk controller folds into
// State on settlement.
type FilledTrade struct {
	Side           string // "buy" | "sell"
	ExpectedPrice  float64
	ExecutedPrice  float64
	Size           float64
	Fees           float64
	PnL            float64
	Timestamp      time.Time
	TxID           string
}

// Intent is the minimal shape the risk controller needs to gate a
// prospective trade, produced upstream by the grid rebalancer and consensus.
type Intent struct {
	Side            string
	ExpectedPrice   float64
	Size            float64
	PositionAfter   float64 // projected position size if this intent fills
}

// Decision is the risk controller's verdict on an Intent.
type Decision struct {
	Allowed bool
	Reason  string
}
