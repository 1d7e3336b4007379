package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/servr/pkg/metrics"
)

// Sizer reports the on-disk footprint of a Badger node store.
type Sizer interface {
	Size() (lsm, vlog int64)
}

// RegisterBadgerMetrics exposes the LSM tree and value log sizes of db.
// A no-op when metrics are not enabled.
func RegisterBadgerMetrics(db Sizer) {
	if !metrics.IsEnabled() || db == nil {
		return
	}

	sizes := promauto.With(metrics.GetRegistry())
	sizes.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name:        "servr_badger_size_bytes",
			Help:        "On-disk size of the Badger node store by component",
			ConstLabels: prometheus.Labels{"component": "lsm"},
		},
		func() float64 {
			lsm, _ := db.Size()
			return float64(lsm)
		},
	)
	sizes.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name:        "servr_badger_size_bytes",
			Help:        "On-disk size of the Badger node store by component",
			ConstLabels: prometheus.Labels{"component": "vlog"},
		},
		func() float64 {
			_, vlog := db.Size()
			return float64(vlog)
		},
	)
}
