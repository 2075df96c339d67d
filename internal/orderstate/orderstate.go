// Package orderstate implements the order-lifecycle state machine: each
// grid level moves through Planned -> Open -> {Filled, Expired, Cancelled}
// with terminal states immutable. Unlike a plain status-field tag with no
// enforced transitions, illegal transitions are a reported error rather
// than a silent write.
package orderstate

import (
	"fmt"
	"time"
)

// State is a level's position in its lifecycle.
type State int

const (
	Planned State = iota
	Open
	Filled
	Expired
	Cancelled
)

func (s State) String() string {
	switch s {
	case Planned:
		return "planned"
	case Open:
		return "open"
	case Filled:
		return "filled"
	case Expired:
		return "expired"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is legal from this state.
func (s State) Terminal() bool {
	return s == Filled || s == Expired || s == Cancelled
}

// Side is the trading direction a level would execute.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// ErrIllegalTransition is returned when a transition is attempted from a
// terminal state or along an edge the state machine does not define.
type ErrIllegalTransition struct {
	From State
	To   State
}

func (e *ErrIllegalTransition) Error() string {
	return fmt.Sprintf("illegal transition from %s to %s", e.From, e.To)
}

// Level tracks one grid level's lifecycle. It carries no exchange identity
// of its own beyond ID — price, side, and size are set once at plan time and
// never mutated by a transition.
type Level struct {
	ID        int
	Price     float64
	Side      Side
	Size      float64
	State     State
	PlannedAt time.Time
	OpenedAt  time.Time
}

// NewPlanned creates a level in the Planned state.
func NewPlanned(id int, price float64, side Side, size float64, now time.Time) *Level {
	return &Level{ID: id, Price: price, Side: side, Size: size, State: Planned, PlannedAt: now}
}

// Open transitions Planned -> Open on a successful submit confirmation.
func (l *Level) Open(now time.Time) error {
	if l.State != Planned {
		return &ErrIllegalTransition{From: l.State, To: Open}
	}
	l.State = Open
	l.OpenedAt = now
	return nil
}

// Fill transitions Open -> Filled on a settlement event.
func (l *Level) Fill() error {
	if l.State != Open {
		return &ErrIllegalTransition{From: l.State, To: Filled}
	}
	l.State = Filled
	return nil
}

// Expire transitions Open -> Expired once the level has aged past
// maxAge. It is a no-op returning false (not an error) when the level
// has not yet aged out, so callers can call it unconditionally each tick.
func (l *Level) Expire(now time.Time, maxAge time.Duration) (bool, error) {
	if l.State != Open {
		return false, nil
	}
	if now.Sub(l.OpenedAt) <= maxAge {
		return false, nil
	}
	l.State = Expired
	return true, nil
}

// Cancel transitions Planned or Open -> Cancelled, used for both explicit
// reposition cancellation and risk-halt cancellation.
func (l *Level) Cancel() error {
	if l.State != Planned && l.State != Open {
		return &ErrIllegalTransition{From: l.State, To: Cancelled}
	}
	l.State = Cancelled
	return nil
}

// Rearm produces a fresh Planned level at the same price for an Expired
// level the grid rebalancer still wants filled. The original Expired level
// is left untouched; the caller decides whether to keep or discard it.
func (l *Level) Rearm(newID int, now time.Time) (*Level, error) {
	if l.State != Expired {
		return nil, fmt.Errorf("cannot rearm level in state %s", l.State)
	}
	return NewPlanned(newID, l.Price, l.Side, l.Size, now), nil
}
