package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/servr/pkg/metrics"
	"github.com/marmos91/servr/pkg/urlcache"
)

// cacheMetrics is the Prometheus implementation of urlcache.Metrics.
type cacheMetrics struct {
	lookups   *prometheus.CounterVec
	evictions prometheus.Counter
}

// NewCacheMetrics creates the URL cache metrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewCacheMetrics() urlcache.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &cacheMetrics{
		lookups: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "servr_urlcache_lookups_total",
				Help: "Total number of listing cache lookups by result",
			},
			[]string{"result"}, // "hit", "miss"
		),
		evictions: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "servr_urlcache_evictions_total",
				Help: "Total number of listings evicted to make room for another owner",
			},
		),
	}
}

// RegisterCacheSize exposes the number of cached listings as a gauge.
func RegisterCacheSize(c *urlcache.Cache) {
	if !metrics.IsEnabled() || c == nil {
		return
	}
	promauto.With(metrics.GetRegistry()).NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "servr_urlcache_entries",
			Help: "Number of owners with a cached listing",
		},
		func() float64 { return float64(c.Len()) },
	)
}

func (m *cacheMetrics) CacheHit() {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues("hit").Inc()
}

func (m *cacheMetrics) CacheMiss() {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues("miss").Inc()
}

func (m *cacheMetrics) CacheEviction() {
	if m == nil {
		return
	}
	m.evictions.Inc()
}
