package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// weather fusion pipeline.
type Metrics struct {
	FusionCycles       prometheus.Counter
	EmergencyFallbacks prometheus.Counter
	PipelineRunning    prometheus.Gauge

	// Per-cycle outcome metrics.
	CycleDuration    prometheus.Histogram
	FusionConfidence prometheus.Gauge
	PlatformRisk     *prometheus.GaugeVec // labels: platform

	// Source adapter metrics.
	SourceFetches  *prometheus.CounterVec   // labels: source, outcome={success,error}
	SourceDuration *prometheus.HistogramVec // labels: source

	// Trigger and simulation metrics.
	ManualRefreshRejected prometheus.Counter
	SimulationActive      prometheus.Gauge

	// Snapshot publisher metrics.
	SnapshotsPublished prometheus.Counter
	PublishErrors      prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FusionCycles,
		m.EmergencyFallbacks,
		m.PipelineRunning,
		m.CycleDuration,
		m.FusionConfidence,
		m.PlatformRisk,
		m.SourceFetches,
		m.SourceDuration,
		m.ManualRefreshRejected,
		m.SimulationActive,
		m.SnapshotsPublished,
		m.PublishErrors,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FusionCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "platform_risk",
			Name:      "fusion_cycles_total",
			Help:      "Total completed fusion cycles (periodic, manual, and startup).",
		}),
		EmergencyFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "platform_risk",
			Name:      "emergency_fallbacks_total",
			Help:      "Cycles where all sources and the baseline failed.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "platform_risk",
			Name:      "pipeline_running",
			Help:      "1 when the refresh loop is active, 0 when shut down.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "platform_risk",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete fetch-baseline-fuse-score cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),
		FusionConfidence: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "platform_risk",
			Name:      "fusion_confidence",
			Help:      "Confidence of the most recent fused reading (20-95).",
		}),
		PlatformRisk: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "platform_risk",
			Name:      "platform_risk_score",
			Help:      "Current risk score per platform (0-100).",
		}, []string{"platform"}),
		SourceFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "platform_risk",
			Name:      "source_fetches_total",
			Help:      "Source adapter fetches by source and outcome.",
		}, []string{"source", "outcome"}),
		SourceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "platform_risk",
			Name:      "source_fetch_duration_seconds",
			Help:      "Source adapter fetch duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		ManualRefreshRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "platform_risk",
			Name:      "manual_refresh_rejected_total",
			Help:      "Manual refresh requests rejected by the cool-down gate or simulation mode.",
		}),
		SimulationActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "platform_risk",
			Name:      "simulation_active",
			Help:      "1 while an injected simulation reading is in effect.",
		}),
		SnapshotsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "platform_risk",
			Name:      "snapshots_published_total",
			Help:      "Fused snapshots published to the analytics topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "platform_risk",
			Name:      "snapshot_publish_errors_total",
			Help:      "Failed snapshot publish attempts.",
		}),
	}
}
