package ioengine

import "github.com/prometheus/client_golang/prometheus"

// MetricsCollector exposes a handle's cumulative transfer metrics as
// Prometheus gauges, labeled by device path. Registration is the
// caller's choice; one collector observes one Metrics instance.
type MetricsCollector struct {
	m *Metrics

	bytesDesc *prometheus.Desc
	p99Desc   *prometheus.Desc
	meanDesc  *prometheus.Desc
}

// NewMetricsCollector builds a collector over m for the given device.
func NewMetricsCollector(device string, m *Metrics) *MetricsCollector {
	labels := prometheus.Labels{"device": device}
	return &MetricsCollector{
		m: m,
		bytesDesc: prometheus.NewDesc(
			"wipecore_io_bytes_total",
			"Cumulative bytes transferred through the handle.",
			nil, labels),
		p99Desc: prometheus.NewDesc(
			"wipecore_io_latency_p99_seconds",
			"Streaming-estimated 99th percentile per-operation latency.",
			nil, labels),
		meanDesc: prometheus.NewDesc(
			"wipecore_io_latency_mean_seconds",
			"Mean per-operation latency.",
			nil, labels),
	}
}

func (c *MetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.bytesDesc
	ch <- c.p99Desc
	ch <- c.meanDesc
}

func (c *MetricsCollector) Collect(ch chan<- prometheus.Metric) {
	p := c.m.Percentiles()
	ch <- prometheus.MustNewConstMetric(c.bytesDesc, prometheus.GaugeValue, float64(c.m.BytesTotal()))
	ch <- prometheus.MustNewConstMetric(c.p99Desc, prometheus.GaugeValue, p.P99.Seconds())
	ch <- prometheus.MustNewConstMetric(c.meanDesc, prometheus.GaugeValue, p.Mean.Seconds())
}
