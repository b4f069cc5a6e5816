package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all Terrastories metrics
const namespace = "terrastories"

// Registry is the global Prometheus registry for all metrics
var Registry = prometheus.NewRegistry()

// AppInfo is a gauge that exposes application version information as labels
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "commit", "build_date"},
)

// FileOperationsTotal counts media file operations by kind and outcome.
// Mirrors the in-memory file-operations collector for dashboards.
var FileOperationsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "file_operations_total",
		Help:      "Total number of media file operations",
	},
	[]string{"operation", "status"}, // operation: upload|access|delete|dual_read, status: success|failure
)

// FileOperationBytes counts bytes transferred by media file operations.
var FileOperationBytes = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "file_operation_bytes_total",
		Help:      "Total bytes transferred by media file operations",
	},
	[]string{"operation"},
)

// FileOperationDuration records media file operation latency in seconds.
var FileOperationDuration = promauto.With(Registry).NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "file_operation_duration_seconds",
		Help:      "Media file operation latency in seconds",
		Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
	},
	[]string{"operation"},
)

// Init initializes the metrics registry and sets version information
func Init(version, commit, buildDate string) {
	// Register default Go metrics (memory, goroutines, GC, etc.)
	Registry.MustRegister(collectors.NewGoCollector())

	// Register process metrics (CPU, memory, file descriptors)
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Set application version info (value is always 1, info is in labels)
	AppInfo.WithLabelValues(version, commit, buildDate).Set(1)
}
