package tracker

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	durationDesc = prometheus.NewDesc(
		"fnenhance_operation_last_duration_seconds",
		"Duration of the most recent traced invocation per operation",
		[]string{"operation"}, nil,
	)
	errorsDesc = prometheus.NewDesc(
		"fnenhance_operation_errors_total",
		"Total number of failing traced invocations",
		nil, nil,
	)
)

// Collector exposes tracker state to Prometheus. Values are read at scrape
// time so the tracker stays the single source of truth.
type Collector struct {
	tracker *Tracker
}

// Collector returns a prometheus.Collector for this tracker
func (t *Tracker) Collector() *Collector {
	return &Collector{tracker: t}
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- durationDesc
	ch <- errorsDesc
}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for name, sample := range c.tracker.Snapshot() {
		ch <- prometheus.MustNewConstMetric(durationDesc, prometheus.GaugeValue, sample.Duration.Seconds(), name)
	}
	ch <- prometheus.MustNewConstMetric(errorsDesc, prometheus.CounterValue, float64(c.tracker.Errors()))
}
