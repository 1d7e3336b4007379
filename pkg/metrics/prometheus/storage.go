// Package prometheus implements the metrics interfaces of the storage,
// blob, urlcache and api packages on top of the shared registry.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/servr/pkg/metrics"
	"github.com/marmos91/servr/pkg/storage"
)

// latencyBuckets are shared by every operation histogram, in milliseconds.
var latencyBuckets = []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 30000}

// storageMetrics is the Prometheus implementation of storage.Metrics.
type storageMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	quotaRejections   prometheus.Counter
	orphans           *prometheus.CounterVec
	presignFailures   prometheus.Counter
}

// NewStorageMetrics creates the orchestrator metrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewStorageMetrics() storage.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &storageMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "servr_storage_operations_total",
				Help: "Total number of storage operations by operation and status",
			},
			[]string{"operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "servr_storage_operation_duration_milliseconds",
				Help:    "Duration of storage operations in milliseconds",
				Buckets: latencyBuckets,
			},
			[]string{"operation"},
		),
		quotaRejections: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "servr_storage_quota_rejections_total",
				Help: "Total number of uploads rejected by the quota guard",
			},
		),
		orphans: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "servr_storage_orphans_total",
				Help: "Total number of blob store and node store inconsistencies by kind",
			},
			[]string{"kind"}, // "orphan_blob", "dangling_blob"
		),
		presignFailures: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "servr_storage_presign_failures_total",
				Help: "Total number of download URLs that could not be signed during a listing",
			},
		),
	}
}

func (m *storageMetrics) ObserveOperation(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(operation, metrics.Status(err)).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(float64(duration.Microseconds()) / 1000.0)
}

func (m *storageMetrics) QuotaRejected() {
	if m == nil {
		return
	}
	m.quotaRejections.Inc()
}

func (m *storageMetrics) Orphan(kind string) {
	if m == nil {
		return
	}
	m.orphans.WithLabelValues(kind).Inc()
}

func (m *storageMetrics) PresignFailed() {
	if m == nil {
		return
	}
	m.presignFailures.Inc()
}
