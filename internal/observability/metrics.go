package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cropet"

// Metrics holds the Prometheus counters, histograms, and gauges for a simulation run.
type Metrics struct {
	DaysSimulated prometheus.Counter
	SeasonResets  prometheus.Counter
	RunnerActive  prometheus.Gauge

	// Per (cell, crop) pair metrics.
	PairRuns     *prometheus.CounterVec // labels: outcome={success,error}
	PairDuration prometheus.Histogram

	// Sink metrics.
	RecordsWritten *prometheus.CounterVec // labels: sink={datfile,sqlite,kafka}

	// Climate cache metrics.
	ClimateCache     *prometheus.CounterVec // labels: result={hit,miss,evict}
	ClimateCacheDays prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		DaysSimulated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "days_simulated_total",
			Help:      "Total crop-days simulated across all pairs.",
		}),
		SeasonResets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "season_resets_total",
			Help:      "Total season resets detected across all pairs.",
		}),
		RunnerActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runner_active",
			Help:      "1 while a simulation run is in progress, 0 otherwise.",
		}),
		PairRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pair_runs_total",
			Help:      "Completed (cell, crop) runs by outcome.",
		}, []string{"outcome"}),
		PairDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pair_duration_seconds",
			Help:      "Wall time of a single (cell, crop) run.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		RecordsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_written_total",
			Help:      "Daily records written by sink.",
		}, []string{"sink"}),
		ClimateCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "climate_cache_total",
			Help:      "Normalized climate cache lookups by result.",
		}, []string{"result"}),
		ClimateCacheDays: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "climate_cache_days",
			Help:      "Days of normalized climate held in the cache.",
		}),
	}

	prometheus.MustRegister(
		m.DaysSimulated,
		m.SeasonResets,
		m.RunnerActive,
		m.PairRuns,
		m.PairDuration,
		m.RecordsWritten,
		m.ClimateCache,
		m.ClimateCacheDays,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		DaysSimulated:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "days_simulated_total"}),
		SeasonResets:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "season_resets_total"}),
		RunnerActive:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "runner_active"}),
		PairRuns:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "pair_runs_total"}, []string{"outcome"}),
		PairDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "pair_duration_seconds"}),
		RecordsWritten:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "records_written_total"}, []string{"sink"}),
		ClimateCache:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "climate_cache_total"}, []string{"result"}),
		ClimateCacheDays: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "climate_cache_days"}),
	}
}
