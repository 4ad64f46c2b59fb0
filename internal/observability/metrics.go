package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weather_station"

// Metrics holds the Prometheus counters, histograms, and gauges for the logger pipeline.
type Metrics struct {
	LinesRead      prometheus.Counter
	RecordsEmitted prometheus.Counter
	LinesSkipped   prometheus.Counter
	FieldsDropped  prometheus.Counter
	SinkErrors     *prometheus.CounterVec // labels: sink={file,kafka,mqtt,sqlite}

	PipelineRunning    prometheus.Gauge
	RecordLoadDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.LinesRead,
		m.RecordsEmitted,
		m.LinesSkipped,
		m.FieldsDropped,
		m.SinkErrors,
		m.PipelineRunning,
		m.RecordLoadDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		LinesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_read_total",
			Help:      "Total lines read from the station.",
		}),
		RecordsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_emitted_total",
			Help:      "Total weather records written to the sinks.",
		}),
		LinesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_skipped_total",
			Help:      "Lines that carried no recognized field.",
		}),
		FieldsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fields_dropped_total",
			Help:      "Recognized fields dropped because their value did not parse.",
		}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Failed record writes by sink.",
		}, []string{"sink"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		RecordLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "record_load_duration_seconds",
			Help:      "Time spent writing one record to all sinks.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}
}
