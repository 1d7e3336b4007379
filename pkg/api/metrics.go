package api

import "time"

// Metrics receives HTTP server metrics. The Prometheus implementation lives
// in pkg/metrics/prometheus; a nil Metrics disables collection.
type Metrics interface {
	RequestStarted()
	ObserveRequest(method, route string, code int, duration time.Duration)
	RateLimited()
}
