package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the refresh loop and the
// rendered layer.
type Metrics struct {
	Refreshes     *prometheus.CounterVec // labels: outcome={success,error,superseded}
	FetchDuration prometheus.Histogram
	GridCells     prometheus.Gauge
	FilledCells   prometheus.Gauge
	Segments      prometheus.Gauge
	LayerReady    prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Refreshes,
		m.FetchDuration,
		m.GridCells,
		m.FilledCells,
		m.Segments,
		m.LayerReady,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as
// many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "isogrid",
			Name:      "refreshes_total",
			Help:      "Refresh cycles by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "isogrid",
			Name:      "fetch_duration_seconds",
			Help:      "Time to fetch and decode geometry and measurements.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		GridCells: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "isogrid",
			Name:      "grid_cells",
			Help:      "Cells in the current grid.",
		}),
		FilledCells: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "isogrid",
			Name:      "grid_filled_cells",
			Help:      "Non-empty cells in the current grid.",
		}),
		Segments: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "isogrid",
			Name:      "isoline_segments",
			Help:      "Isoline segments across all levels of the current layer.",
		}),
		LayerReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "isogrid",
			Name:      "layer_ready",
			Help:      "1 once a layer has been built, 0 before or after Clear.",
		}),
	}
}
