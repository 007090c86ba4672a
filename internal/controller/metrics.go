package controller

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector is a prometheus.Collector exposing a running
// Controller's progress: precomputed *prometheus.Desc fields and a
// Collect method that pulls fresh values on every scrape rather than
// pushing updates, reporting RMP objective, column count, and best
// relative gap as gauges.
type MetricsCollector struct {
	objective  *prometheus.Desc
	columns    *prometheus.Desc
	bestRelGap *prometheus.Desc
	snapshot   func() Snapshot
}

// NewMetricsCollector builds a collector that calls snapshot on every
// Collect. Passing (*Controller).Snapshot lets a caller register the
// collector once and scrape it throughout a long-running embed without
// holding a lock over the controller itself.
func NewMetricsCollector(namespace, subsystem string, snapshot func() Snapshot) *MetricsCollector {
	return &MetricsCollector{
		objective: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "rmp_objective"),
			"Current restricted master problem objective value",
			nil, nil,
		),
		columns: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "rmp_columns"),
			"Number of columns currently in the restricted master problem",
			nil, nil,
		),
		bestRelGap: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "best_relative_gap"),
			"Best (lowest) relative optimality gap observed so far",
			nil, nil,
		),
		snapshot: snapshot,
	}
}

// Describe implements prometheus.Collector.
func (c *MetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.objective
	ch <- c.columns
	ch <- c.bestRelGap
}

// Collect implements prometheus.Collector.
func (c *MetricsCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.snapshot()
	ch <- prometheus.MustNewConstMetric(c.objective, prometheus.GaugeValue, snap.Objective)
	ch <- prometheus.MustNewConstMetric(c.columns, prometheus.GaugeValue, float64(snap.Columns))
	ch <- prometheus.MustNewConstMetric(c.bestRelGap, prometheus.GaugeValue, snap.BestRelGap)
}
