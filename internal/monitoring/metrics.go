package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TotalTrades = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridbot_trades_total",
			Help: "Total number of grid level fills executed",
		},
		[]string{"symbol", "side", "strategy"},
	)

	TradePnL = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gridbot_trade_pnl",
			Help:    "Profit and loss per filled trade",
			Buckets: prometheus.LinearBuckets(-100, 10, 20),
		},
		[]string{"symbol"},
	)

	EquityValue = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gridbot_equity_usd",
			Help: "Current account equity in USD",
		},
		[]string{"symbol"},
	)

	DrawdownPct = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gridbot_drawdown_pct",
			Help: "Current drawdown from peak equity, as a fraction",
		},
		[]string{"symbol"},
	)

	IndicatorValues = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gridbot_indicator_value",
			Help: "Current technical indicator values",
		},
		[]string{"indicator", "symbol"},
	)

	RegimeState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gridbot_regime_state",
			Help: "1 if this regime is currently active, else 0",
		},
		[]string{"regime", "symbol"},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gridbot_breaker_tripped",
			Help: "1 if the risk circuit breaker is currently tripped, else 0",
		},
		[]string{"symbol"},
	)

	OpenLevels = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gridbot_open_levels",
			Help: "Number of currently open grid levels",
		},
		[]string{"symbol"},
	)

	ExecutionLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gridbot_execution_latency_seconds",
			Help:    "End-to-end execution pipeline latency (quote through confirm)",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"symbol", "stage"},
	)
)

// RecordTrade folds a filled level into the trade counters and PnL
// histogram.
func RecordTrade(symbol, side, strategy string, pnl float64) {
	TotalTrades.WithLabelValues(symbol, side, strategy).Inc()
	TradePnL.WithLabelValues(symbol).Observe(pnl)
}

// RecordRegime sets the one-hot regime gauge: the active regime to 1,
// clearing every other known regime to 0.
func RecordRegime(symbol, active string, allRegimes []string) {
	for _, r := range allRegimes {
		v := 0.0
		if r == active {
			v = 1.0
		}
		RegimeState.WithLabelValues(r, symbol).Set(v)
	}
}
