// Package metrics exposes the bot's Prometheus counters.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	DecisionCycles = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_decision_cycles_total",
		Help: "Decision loop evaluations, including idle cooldown ticks",
	})
	TradesExecuted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_trades_executed_total",
		Help: "Paper trades executed by the decision loop",
	}, []string{"action"})
	TradesRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_trades_rejected_total",
		Help: "Decisions that failed to execute (insufficient funds, no position, dead feed)",
	})
	PriceLookupFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_price_lookup_failures_total",
		Help: "Price or stats lookups that returned no data",
	}, []string{"asset"})
)

func init() {
	prometheus.MustRegister(
		DecisionCycles,
		TradesExecuted,
		TradesRejected,
		PriceLookupFailures,
	)
}
