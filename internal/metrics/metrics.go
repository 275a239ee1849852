// Package metrics provides Prometheus metrics for compiling and executing
// mapping specs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CompilationsTotal tracks spec compilations by status
	CompilationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chain_mapper",
			Subsystem: "compiler",
			Name:      "compilations_total",
			Help:      "Total number of spec compilations by status",
		},
		[]string{"namespace", "status"},
	)

	// RulesTotal tracks compiled rules by outcome
	RulesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chain_mapper",
			Subsystem: "compiler",
			Name:      "rules_total",
			Help:      "Total number of compiled rules by outcome",
		},
		[]string{"namespace", "outcome"},
	)

	// ExecutionsTotal tracks spec executions by status
	ExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chain_mapper",
			Subsystem: "exec",
			Name:      "executions_total",
			Help:      "Total number of spec executions by status",
		},
		[]string{"namespace", "status"},
	)

	// ExecutionDuration tracks spec execution duration in seconds
	ExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "chain_mapper",
			Subsystem: "exec",
			Name:      "execution_duration_seconds",
			Help:      "Duration of spec executions in seconds",
			Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		},
		[]string{"namespace"},
	)
)

// Rule outcomes.
const (
	OutcomeCompiled = "compiled"
	OutcomeFailed   = "failed"
	OutcomeSkipped  = "skipped"
)

// RecordCompilation records one compilation of namespace. A compilation
// aborted before its rules ran has err set and no rule counts.
func RecordCompilation(namespace string, compiled, failed, skipped int, err error) {
	if err != nil {
		CompilationsTotal.WithLabelValues(namespace, "error").Inc()
		return
	}

	status := "ok"
	if failed > 0 {
		status = "partial"
	}

	CompilationsTotal.WithLabelValues(namespace, status).Inc()
	RulesTotal.WithLabelValues(namespace, OutcomeCompiled).Add(float64(compiled))
	RulesTotal.WithLabelValues(namespace, OutcomeFailed).Add(float64(failed))
	RulesTotal.WithLabelValues(namespace, OutcomeSkipped).Add(float64(skipped))
}

// RecordExecution records one execution of namespace.
func RecordExecution(namespace string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}

	ExecutionsTotal.WithLabelValues(namespace, status).Inc()
	ExecutionDuration.WithLabelValues(namespace).Observe(duration.Seconds())
}
