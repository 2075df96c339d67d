// Package boterrors implements four error kinds (Recoverable, Degraded,
// Risk-halting, Fatal) and the classification used to centralize
// propagation in the orchestrator. Every error a collaborator can return —
// network hiccups, exchange rejections, order conflicts, strategy faults —
// maps onto one of these four once you ask "what should the orchestrator do
// about it".
package boterrors

import "fmt"

// Kind is one of the four propagation classes.
type Kind string

const (
	// Recoverable errors are handled locally and logged; they never
	// surface past the component that produced them.
	Recoverable Kind = "RECOVERABLE"
	// Degraded errors pause new-order placement but keep risk monitoring
	// running and keep polling for recovery.
	Degraded Kind = "DEGRADED"
	// RiskHalting errors stop new orders and cancel unfilled levels, but
	// the process keeps reporting until an operator intervenes.
	RiskHalting Kind = "RISK_HALTING"
	// Fatal errors trip the orchestrator's emergency halt: no new orders
	// are placed from then on. The process is not exited; open orders are
	// cancelled only by the shutdown sequence when Run returns.
	Fatal Kind = "FATAL"
)

// BotError is a categorized error with enough context for the orchestrator
// to decide what to do without re-deriving it from a bare error string.
type BotError struct {
	Kind       Kind
	Component  string
	Operation  string
	Message    string
	Underlying error
	Context    map[string]interface{}
	Retryable  bool
}

func (e *BotError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s in %s: %v", e.Kind, e.Component, e.Message, e.Operation, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s in %s", e.Kind, e.Component, e.Message, e.Operation)
}

func (e *BotError) Unwrap() error { return e.Underlying }

// New creates a categorized error with no underlying cause (e.g. a
// validation failure discovered locally rather than returned by an I/O
// call).
func New(kind Kind, component, operation, message string) *BotError {
	return &BotError{
		Kind:      kind,
		Component: component,
		Operation: operation,
		Message:   message,
		Context:   make(map[string]interface{}),
		Retryable: kind == Recoverable,
	}
}

// Wrap attaches kind/component/operation context to an error returned by a
// collaborator (PriceFeed, SwapRouter, Signer, RPC).
func Wrap(err error, kind Kind, component, operation string) *BotError {
	if err == nil {
		return nil
	}
	return &BotError{
		Kind:       kind,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
		Context:    make(map[string]interface{}),
		Retryable:  kind == Recoverable,
	}
}

// WithContext attaches a diagnostic key/value pair, chainable at the call
// site.
func (e *BotError) WithContext(key string, value interface{}) *BotError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithRetryable overrides the kind-derived default.
func (e *BotError) WithRetryable(retryable bool) *BotError {
	e.Retryable = retryable
	return e
}

// IsFatal reports whether this error should stop the bot outright.
func (e *BotError) IsFatal() bool { return e.Kind == Fatal }

// Stats is a lightweight rolling tally, used by the orchestrator to decide
// when a run of Recoverable errors of the same kind should itself be
// escalated.
type Stats struct {
	TotalErrors    int
	ByKind         map[Kind]int
	Recent         []*BotError
	MaxRecent      int
}

func NewStats(maxRecent int) *Stats {
	return &Stats{ByKind: make(map[Kind]int), Recent: make([]*BotError, 0, maxRecent), MaxRecent: maxRecent}
}

func (s *Stats) Record(err *BotError) {
	if err == nil {
		return
	}
	s.TotalErrors++
	s.ByKind[err.Kind]++
	s.Recent = append(s.Recent, err)
	if len(s.Recent) > s.MaxRecent {
		s.Recent = s.Recent[1:]
	}
}

// RecentCount returns how many errors in the Recent window (the last
// MaxRecent recorded) carry the given kind.
func (s *Stats) RecentCount(kind Kind) int {
	n := 0
	for _, e := range s.Recent {
		if e.Kind == kind {
			n++
		}
	}
	return n
}
