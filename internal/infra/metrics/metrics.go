package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "alumtrack"

var (
	OptimizeRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "optimize_runs_total",
		Help:      "Optimization runs by outcome (ok, shortfall, error).",
	}, []string{"outcome"})

	OptimizeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "optimize_duration_seconds",
		Help:      "Time spent loading the snapshot and allocating stock.",
		Buckets:   prometheus.DefBuckets,
	})

	// ShortfallKg недостача по марке в последнем расчёте.
	ShortfallKg = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "shortfall_kg",
		Help:      "Missing quantity per alloy in the last optimization run.",
	}, []string{"alloy_type"})

	PurchasesImported = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "purchases_imported_total",
		Help:      "Purchase rows imported from files, by source.",
	}, []string{"source"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route pattern and status code.",
	}, []string{"route", "code"})
)
