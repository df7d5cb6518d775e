// Package metrics exposes the Prometheus instruments the services update
// while running:
//   - nsplit_strategy_ticks_total            – strategy worker tick count
//   - nsplit_sessions_evaluated_total{result} – per-session evaluations (ok|error|skipped)
//   - nsplit_sessions_completed_total        – sessions that reached completed
//   - nsplit_orders_total{side}              – orders executed by the simulator
//   - nsplit_order_rejections_total{reason}  – rejected orders (insufficient_funds|insufficient_inventory)
//   - nsplit_price_updates_total             – random-walk price advances
//   - nsplit_tracked_symbols                 – symbols with a simulated price (gauge)
//
// All instruments are registered in init() and served at /metrics in the
// Prometheus text exposition format.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	StrategyTicks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nsplit_strategy_ticks_total",
			Help: "Strategy worker ticks executed",
		},
	)

	SessionsEvaluated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nsplit_sessions_evaluated_total",
			Help: "Session evaluations by result",
		},
		[]string{"result"}, // ok|error|skipped
	)

	SessionsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nsplit_sessions_completed_total",
			Help: "Sessions that closed their last position",
		},
	)

	Orders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nsplit_orders_total",
			Help: "Orders executed by the simulator",
		},
		[]string{"side"}, // buy|sell
	)

	OrderRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nsplit_order_rejections_total",
			Help: "Orders rejected by the execution ledger",
		},
		[]string{"reason"},
	)

	PriceUpdates = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nsplit_price_updates_total",
			Help: "Simulated price advances",
		},
	)

	TrackedSymbols = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "nsplit_tracked_symbols",
			Help: "Symbols currently carrying a simulated price",
		},
	)
)

func init() {
	prometheus.MustRegister(
		StrategyTicks,
		SessionsEvaluated,
		SessionsCompleted,
		Orders,
		OrderRejections,
		PriceUpdates,
		TrackedSymbols,
	)
}
