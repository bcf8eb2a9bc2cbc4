// Package metrics registers the Prometheus instruments exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PaymentsProcessed counts orchestrator outcomes by provider, intent and
	// resulting status
	PaymentsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_engine_payments_total",
		Help: "Payment operations processed, by provider, intent and resulting status",
	}, []string{"provider", "intent", "status"})

	// ProviderCallDuration observes the latency of provider interactions
	ProviderCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_engine_provider_call_seconds",
		Help:    "Latency of provider calls, by provider and operation",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "operation"})

	// ReconciliationRuns counts reconciliation executions by outcome
	ReconciliationRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_engine_reconciliation_runs_total",
		Help: "Reconciliation runs, by outcome",
	}, []string{"outcome"})

	// ReconciliationUpdated counts records corrected by reconciliation
	ReconciliationUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_engine_reconciliation_updated_total",
		Help: "Ledger records whose status was corrected by reconciliation",
	})

	// StaleHoldsReleased counts holds released by the stale-hold sweep
	StaleHoldsReleased = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_engine_stale_holds_released_total",
		Help: "Stale holds released by the sweep",
	})
)
