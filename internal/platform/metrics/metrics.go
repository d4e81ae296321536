package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the pricing engine. Provider failures are deliberately not
// surfaced to callers; snapshot age and refresh failures here are how
// staleness becomes visible.
type Metrics struct {
	SnapshotAgeSeconds   *prometheus.GaugeVec
	RefreshTotal         *prometheus.CounterVec
	RefreshFailuresTotal *prometheus.CounterVec

	RecomputeRunsTotal     prometheus.Counter
	RecomputeSkippedTotal  prometheus.Counter
	RecomputeEntitiesTotal prometheus.Counter
	RecomputeRunDuration   prometheus.Histogram

	AuditFindingsTotal *prometheus.CounterVec
	RepairsTotal       prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SnapshotAgeSeconds: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pricing_rate_snapshot_age_seconds",
			Help: "Age of the current exchange-rate snapshot per base currency",
		}, []string{"base"}),
		RefreshTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pricing_rate_refresh_total",
			Help: "Exchange-rate refresh attempts per base currency",
		}, []string{"base"}),
		RefreshFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pricing_rate_refresh_failures_total",
			Help: "Failed exchange-rate refreshes per base currency (prior snapshot retained)",
		}, []string{"base"}),
		RecomputeRunsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "pricing_markup_recompute_runs_total",
			Help: "Completed markup recompute batch runs",
		}),
		RecomputeSkippedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "pricing_markup_recompute_skipped_total",
			Help: "Entities skipped during markup recompute batches",
		}),
		RecomputeEntitiesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "pricing_markup_recompute_entities_total",
			Help: "Entities successfully recomputed",
		}),
		RecomputeRunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pricing_markup_recompute_run_seconds",
			Help:    "Duration of markup recompute batch runs",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		AuditFindingsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pricing_audit_findings_total",
			Help: "Audit findings by reason",
		}, []string{"reason"}),
		RepairsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "pricing_audit_repairs_total",
			Help: "Entities rescaled by scoped repair operations",
		}),
	}
}
