package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/servr/pkg/blob"
	"github.com/marmos91/servr/pkg/metrics"
)

// blobMetrics is the Prometheus implementation of blob.Metrics.
type blobMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesTransferred  *prometheus.CounterVec
}

// NewBlobMetrics creates the blob gateway metrics. backend labels every
// series, e.g. "s3" or "memory".
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewBlobMetrics(backend string) blob.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := prometheus.WrapRegistererWith(prometheus.Labels{"backend": backend}, metrics.GetRegistry())

	return &blobMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "servr_blob_operations_total",
				Help: "Total number of blob store operations by operation and status",
			},
			[]string{"operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "servr_blob_operation_duration_milliseconds",
				Help: "Duration of blob store operations in milliseconds",
				Buckets: []float64{
					10,    // 10ms - bucket lookups and presigning
					50,    // 50ms - small objects
					100,   // 100ms
					500,   // 500ms
					1000,  // 1s - medium objects
					5000,  // 5s - large objects
					10000, // 10s
					30000, // 30s
				},
			},
			[]string{"operation"},
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "servr_blob_bytes_transferred_total",
				Help: "Total bytes written to the blob store",
			},
			[]string{"operation"},
		),
	}
}

func (m *blobMetrics) ObserveOperation(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(operation, metrics.Status(err)).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(float64(duration.Microseconds()) / 1000.0)
}

func (m *blobMetrics) RecordBytes(operation string, bytes int64) {
	if m == nil {
		return
	}
	m.bytesTransferred.WithLabelValues(operation).Add(float64(bytes))
}
