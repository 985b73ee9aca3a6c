package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Load results
const (
	LoadSuccess = "success"
	LoadFailure = "failure"
)

// Metrics holds all Prometheus metrics for the holiday server.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	DatasetLoads        *prometheus.CounterVec // labels: result
	DatasetRecords      prometheus.Gauge
	DatasetMonths       prometheus.Gauge
	DatasetLoadDuration prometheus.Histogram

	ToolCalls *prometheus.CounterVec // labels: tool, outcome
}

// NewMetrics creates and registers all metrics on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		DatasetLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jpholiday_dataset_loads_total",
			Help: "Dataset load attempts by result",
		}, []string{"result"}),
		DatasetRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "jpholiday_dataset_records",
			Help: "Day records in the loaded dataset",
		}),
		DatasetMonths: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "jpholiday_dataset_months",
			Help: "Months in the month index",
		}),
		DatasetLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "jpholiday_dataset_load_duration_seconds",
			Help:    "Time spent reading and indexing the dataset",
			Buckets: prometheus.DefBuckets,
		}),
		ToolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jpholiday_tool_calls_total",
			Help: "Tool calls by tool and outcome",
		}, []string{"tool", "outcome"}),
	}

	m.registry.MustRegister(
		m.DatasetLoads,
		m.DatasetRecords,
		m.DatasetMonths,
		m.DatasetLoadDuration,
		m.ToolCalls,
	)

	return m
}

// ObserveLoad records the outcome of a dataset load
func (m *Metrics) ObserveLoad(result string, took time.Duration, records, months int) {
	if m == nil {
		return
	}
	m.DatasetLoads.WithLabelValues(result).Inc()
	m.DatasetLoadDuration.Observe(took.Seconds())
	if result == LoadSuccess {
		m.DatasetRecords.Set(float64(records))
		m.DatasetMonths.Set(float64(months))
	}
}

// ObserveToolCall counts one tool call
func (m *Metrics) ObserveToolCall(tool, outcome string) {
	if m == nil {
		return
	}
	m.ToolCalls.WithLabelValues(tool, outcome).Inc()
}

// Registry exposes the underlying registry (used by tests)
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the HTTP handler serving the metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
