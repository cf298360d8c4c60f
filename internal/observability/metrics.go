package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hra_dashboard"

// Metrics holds the Prometheus counters, histograms, and gauges for the dashboard service.
type Metrics struct {
	// Dataset loading metrics.
	TableLoads        *prometheus.CounterVec   // labels: table={label,pair,integrated}, outcome={success,error}
	RowsKept          *prometheus.GaugeVec     // labels: table
	RowsSkipped       *prometheus.GaugeVec     // labels: table, reason
	TableEncoding     *prometheus.GaugeVec     // labels: table, encoding; 1 for the encoding in use
	LoadDuration      prometheus.Histogram     // full snapshot build
	SnapshotTimestamp prometheus.Gauge         // unix seconds of the live snapshot
	Reloads           *prometheus.CounterVec   // labels: outcome={success,error,unchanged}
	QueryDuration     *prometheus.HistogramVec // labels: operation

	// Base-map metrics.
	BaseMapRequests *prometheus.CounterVec // labels: source={network,cache,stale,static}, outcome={success,error}

	// Export metrics.
	ReportsPublished prometheus.Counter
	PublishErrors    prometheus.Counter
}

// NewMetrics creates and registers all dashboard metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.TableLoads,
		m.RowsKept,
		m.RowsSkipped,
		m.TableEncoding,
		m.LoadDuration,
		m.SnapshotTimestamp,
		m.Reloads,
		m.QueryDuration,
		m.BaseMapRequests,
		m.ReportsPublished,
		m.PublishErrors,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		TableLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "table_loads_total",
			Help:      "Source table load attempts by table and outcome.",
		}, []string{"table", "outcome"}),
		RowsKept: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rows_kept",
			Help:      "Canonical rows in the live snapshot by table.",
		}, []string{"table"}),
		RowsSkipped: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rows_skipped",
			Help:      "Source rows dropped during normalization by table and reason.",
		}, []string{"table", "reason"}),
		TableEncoding: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "table_encoding",
			Help:      "1 for the text encoding that decoded each table.",
		}, []string{"table", "encoding"}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Duration of a complete load of all source tables.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		SnapshotTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_timestamp_seconds",
			Help:      "Unix time at which the live snapshot was loaded.",
		}),
		Reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total",
			Help:      "Reload checks by outcome.",
		}, []string{"outcome"}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Dashboard query duration by operation.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"operation"}),
		BaseMapRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "basemap_requests_total",
			Help:      "Base-map lookups by serving source and outcome.",
		}, []string{"source", "outcome"}),
		ReportsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_published_total",
			Help:      "Period reports written to Kafka.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_publish_errors_total",
			Help:      "Failed attempts to write period reports to Kafka.",
		}),
	}
}
