package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

type HealthChecker struct {
	mu             sync.RWMutex
	lastTrade      time.Time
	lastTick       time.Time
	lastPrice      float64
	isConnected    bool
	breakerTripped bool
	emergencyHalt  bool
	errors         []string
	startTime      time.Time
	staleAfter     time.Duration
}

type HealthStatus struct {
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	LastTrade      time.Time `json:"last_trade"`
	LastTick       time.Time `json:"last_tick"`
	LastPrice      float64   `json:"last_price"`
	IsConnected    bool      `json:"is_connected"`
	BreakerTripped bool      `json:"breaker_tripped"`
	EmergencyHalt  bool      `json:"emergency_halt"`
	Uptime         string    `json:"uptime"`
	Errors         []string  `json:"errors,omitempty"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		errors:     make([]string, 0),
		startTime:  time.Now(),
		staleAfter: 30 * time.Second,
	}
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	if !h.isConnected || time.Since(h.lastTick) > h.staleAfter {
		status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	if h.emergencyHalt {
		status = "unhealthy"
		w.WriteHeader(http.StatusInternalServerError)
	} else if len(h.errors) > 0 {
		status = "unhealthy"
		w.WriteHeader(http.StatusInternalServerError)
	}

	health := HealthStatus{
		Status:         status,
		Timestamp:      time.Now(),
		LastTrade:      h.lastTrade,
		LastTick:       h.lastTick,
		LastPrice:      h.lastPrice,
		IsConnected:    h.isConnected,
		BreakerTripped: h.breakerTripped,
		EmergencyHalt:  h.emergencyHalt,
		Uptime:         time.Since(h.startTime).String(),
		Errors:         h.errors,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// SetConnected updates the connection status
func (h *HealthChecker) SetConnected(connected bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.isConnected = connected
}

// UpdatePrice updates the last known price
func (h *HealthChecker) UpdatePrice(price float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastPrice = price
}

// UpdateLastTrade updates the last trade timestamp
func (h *HealthChecker) UpdateLastTrade(tradeTime time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastTrade = tradeTime
}

// UpdateLastTick records the timestamp of the most recently processed
// price tick, the signal the staleness check is based on.
func (h *HealthChecker) UpdateLastTick(tickTime time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastTick = tickTime
}

// SetStaleAfter overrides the duration since the last tick after which the
// health endpoint reports "degraded". A non-positive duration is ignored,
// leaving the default in place.
func (h *HealthChecker) SetStaleAfter(d time.Duration) {
	if d <= 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.staleAfter = d
}

// SetRiskState mirrors the risk controller's breaker/emergency-halt flags
// onto the health endpoint.
func (h *HealthChecker) SetRiskState(breakerTripped, emergencyHalt bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.breakerTripped = breakerTripped
	h.emergencyHalt = emergencyHalt
}

// AddError adds an error to the error list
func (h *HealthChecker) AddError(err string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = append(h.errors, err)

	// Keep only last 10 errors
	if len(h.errors) > 10 {
		h.errors = h.errors[len(h.errors)-10:]
	}
}
