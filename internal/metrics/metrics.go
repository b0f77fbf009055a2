// Package metrics registers the service's Prometheus collectors. They are
// served by the metrics router alongside /health.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "barter"

var (
	SolverIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "solver",
		Name:      "iterations",
		Help:      "Iterations used per rating solve.",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	})

	SolverNotConverged = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "solver",
		Name:      "not_converged_total",
		Help:      "Solves that hit the iteration cap before converging.",
	})

	CandidatesGenerated = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "candidates",
		Name:      "generated",
		Help:      "2-for-1 candidates generated per request before truncation.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})

	ExchangeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "exchange",
		Name:      "search_duration_seconds",
		Help:      "Wall time of exchange searches.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
	}, []string{"mode"})

	ExchangeResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "exchange",
		Name:      "results_total",
		Help:      "Qualifying trades returned.",
	}, []string{"mode"})

	ExchangeRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "exchange",
		Name:      "rejected_total",
		Help:      "Searches refused by a size, result or deadline guard.",
	}, []string{"mode"})

	LLMFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "llm",
		Name:      "failures_total",
		Help:      "Failed or malformed LLM collaborator calls.",
	}, []string{"op"})
)

// ObserveSolve records one solve.
func ObserveSolve(iterations int, converged bool) {
	SolverIterations.Observe(float64(iterations))
	if !converged {
		SolverNotConverged.Inc()
	}
}

// ObserveExchange records one exchange search. rejected marks a guard
// failure; results is ignored in that case.
func ObserveExchange(mode string, start time.Time, results int, rejected bool) {
	ExchangeDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	if rejected {
		ExchangeRejected.WithLabelValues(mode).Inc()
		return
	}
	ExchangeResults.WithLabelValues(mode).Add(float64(results))
}
