package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP请求计数
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photometa",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// HTTP请求耗时
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "photometa",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// 记录写入结果: inserted / duplicate / rejected
	RecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photometa",
			Subsystem: "records",
			Name:      "create_total",
			Help:      "Record create attempts by outcome",
		},
		[]string{"source", "outcome"},
	)

	// 导入文件结果: valid / invalid
	ImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photometa",
			Subsystem: "imports",
			Name:      "files_total",
			Help:      "Imported JSON files by verdict",
		},
		[]string{"verdict"},
	)

	// 导入文件字节数
	ImportBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "photometa",
			Subsystem: "imports",
			Name:      "bytes_total",
			Help:      "Total bytes of imported JSON files",
		},
	)

	// 导出镜像上传
	MirrorUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photometa",
			Subsystem: "mirror",
			Name:      "uploads_total",
			Help:      "Export mirror uploads by provider and status",
		},
		[]string{"provider", "status"},
	)

	MirrorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "photometa",
			Subsystem: "mirror",
			Name:      "upload_duration_seconds",
			Help:      "Export mirror upload duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"provider"},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordCreate records the outcome of a record create attempt
func RecordCreate(source, outcome string) {
	RecordsTotal.WithLabelValues(source, outcome).Inc()
}

// RecordImport records an uploaded file and its verdict
func RecordImport(verdict string, bytes int64) {
	ImportsTotal.WithLabelValues(verdict).Inc()
	ImportBytesTotal.Add(float64(bytes))
}

// RecordMirrorUpload records an export mirror upload
func RecordMirrorUpload(provider, status string, durationSec float64) {
	MirrorUploadsTotal.WithLabelValues(provider, status).Inc()
	MirrorDuration.WithLabelValues(provider).Observe(durationSec)
}
