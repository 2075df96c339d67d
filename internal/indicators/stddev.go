package indicators

import "math"

// RollingStdDev maintains the population standard deviation of the last N
// prices using the ring buffer's running sums, giving O(1) updates instead
// of a full-window recompute.
type RollingStdDev struct {
	window *ring
}

func NewRollingStdDev(period int) *RollingStdDev {
	return &RollingStdDev{window: newRing(period)}
}

func (s *RollingStdDev) Update(price float64) (float64, error) {
	s.window.push(price)
	if !s.window.full() {
		return 0, newInsufficientHistory("StdDev", s.window.count, s.window.cap())
	}
	return math.Sqrt(s.window.variance()), nil
}

func (s *RollingStdDev) Ready() bool { return s.window.full() }
