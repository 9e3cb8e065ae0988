package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// TreeMetrics observes directory tree operations.
//
// A nil TreeMetrics is never passed around: use NewTreeMetrics(nil) to get the
// no-op implementation.
type TreeMetrics interface {
	// RecordOperation records a completed operation (e.g. "link", "remove",
	// "move") with its duration and outcome.
	RecordOperation(operation string, duration time.Duration, err error)

	// SetFileCount updates the number of files reachable from the roots.
	SetFileCount(count int64)

	// SetDirectoryCount updates the number of directories reachable from the roots.
	SetDirectoryCount(count int64)
}

type treeMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	files             prometheus.Gauge
	directories       prometheus.Gauge
}

// NewTreeMetrics registers the tree metrics on reg. A nil reg yields a no-op
// implementation.
func NewTreeMetrics(reg prometheus.Registerer) TreeMetrics {
	if reg == nil {
		return noopTreeMetrics{}
	}

	return &treeMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "treefs_operations_total",
				Help: "Total number of directory tree operations by operation and status",
			},
			[]string{"operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "treefs_operation_duration_seconds",
				Help: "Duration of directory tree operations in seconds",
				Buckets: []float64{
					0.000001, // 1µs
					0.00001,  // 10µs
					0.0001,   // 100µs
					0.001,    // 1ms
					0.01,     // 10ms
					0.1,      // 100ms
				},
			},
			[]string{"operation"},
		),
		files: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "treefs_files",
				Help: "Number of files reachable from the roots",
			},
		),
		directories: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "treefs_directories",
				Help: "Number of directories reachable from the roots",
			},
		),
	}
}

func (m *treeMetrics) RecordOperation(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *treeMetrics) SetFileCount(count int64) {
	m.files.Set(float64(count))
}

func (m *treeMetrics) SetDirectoryCount(count int64) {
	m.directories.Set(float64(count))
}

// noopTreeMetrics discards everything.
type noopTreeMetrics struct{}

func (noopTreeMetrics) RecordOperation(string, time.Duration, error) {}
func (noopTreeMetrics) SetFileCount(int64)                           {}
func (noopTreeMetrics) SetDirectoryCount(int64)                      {}
