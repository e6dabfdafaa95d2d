// Package metrics provides Prometheus metrics for the watcher.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "whalewatch_cycles_total",
		Help: "Completed polling cycles, including failed ones",
	})

	CycleErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "whalewatch_cycle_errors_total",
		Help: "Polling cycles that ended with an error",
	})

	TradesProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "whalewatch_trades_processed_total",
		Help: "Trades replayed through the detection pipeline",
	})

	AlertsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "whalewatch_alerts_total",
		Help: "Trades that became insider alerts",
	})

	SuppressedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "whalewatch_suppressed_total",
		Help: "Trades suppressed by the filter pipeline, by reason",
	}, []string{"reason"})

	PersistErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "whalewatch_persist_errors_total",
		Help: "Alerts lost to sink write failures",
	})
)

// StartServer exposes /metrics on addr in a background goroutine.
func StartServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		_ = http.ListenAndServe(addr, mux)
	}()
}
