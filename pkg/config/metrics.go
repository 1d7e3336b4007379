package config

import (
	"github.com/marmos91/servr/internal/logger"
	"github.com/marmos91/servr/pkg/api"
	"github.com/marmos91/servr/pkg/metrics"
	promstore "github.com/marmos91/servr/pkg/metrics/prometheus"
	"github.com/marmos91/servr/pkg/storage"
	"github.com/marmos91/servr/pkg/urlcache"
)

// MetricsResult holds the collectors created by InitializeMetrics. Every
// field is nil when metrics are disabled.
type MetricsResult struct {
	Storage storage.Metrics
	Cache   urlcache.Metrics
	HTTP    api.Metrics
}

// InitializeMetrics creates the Prometheus registry and the collectors of
// every component when cfg.Metrics.Enabled is set. Blob and Badger metrics
// are registered by their factories.
func InitializeMetrics(cfg *Config) MetricsResult {
	if !cfg.Metrics.Enabled {
		logger.Info("Metrics collection disabled")
		return MetricsResult{}
	}

	metrics.InitRegistry()
	logger.Info("Metrics collection enabled", "port", cfg.Metrics.Port)

	return MetricsResult{
		Storage: promstore.NewStorageMetrics(),
		Cache:   promstore.NewCacheMetrics(),
		HTTP:    promstore.NewHTTPMetrics(),
	}
}
