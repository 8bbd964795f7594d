package settlement

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the engine's Prometheus collectors.
type Metrics struct {
	Created              *prometheus.CounterVec
	Approved             *prometheus.CounterVec
	Completed            *prometheus.CounterVec
	Failed               *prometheus.CounterVec
	AmountMismatches     prometheus.Counter
	DuplicateCompletions prometheus.Counter
	SettlementLatency    prometheus.Histogram
	AdRevenueDistributed prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Created: f.NewCounterVec(prometheus.CounterOpts{
			Name: "settlement_transactions_created_total",
			Help: "Transactions created, by type.",
		}, []string{"type"}),
		Approved: f.NewCounterVec(prometheus.CounterOpts{
			Name: "settlement_transactions_approved_total",
			Help: "Transactions approved, by type.",
		}, []string{"type"}),
		Completed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "settlement_transactions_completed_total",
			Help: "Transactions settled, by type.",
		}, []string{"type"}),
		Failed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "settlement_transactions_failed_total",
			Help: "Transactions failed, by type and reason.",
		}, []string{"type", "reason"}),
		AmountMismatches: f.NewCounter(prometheus.CounterOpts{
			Name: "settlement_amount_mismatch_total",
			Help: "Gateway payments whose amount differed from the transaction.",
		}),
		DuplicateCompletions: f.NewCounter(prometheus.CounterOpts{
			Name: "settlement_duplicate_completions_total",
			Help: "Complete calls for transactions that were already completed.",
		}),
		SettlementLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "settlement_latency_seconds",
			Help:    "Time from transaction creation to completion.",
			Buckets: []float64{1, 5, 15, 30, 60, 300, 900, 3600, 21600, 86400},
		}),
		AdRevenueDistributed: f.NewCounter(prometheus.CounterOpts{
			Name: "settlement_ad_revenue_distributed_minor_units_total",
			Help: "Ad revenue credited to creators, in minor units.",
		}),
	}
}
