package handlers

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"
)

// HealthCheckTimeout bounds every dependency check of a readiness probe.
const HealthCheckTimeout = 5 * time.Second

// Checker is a dependency probed by the readiness endpoint.
type Checker interface {
	Healthcheck(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Healthcheck(ctx context.Context) error { return f(ctx) }

// HealthHandler handles health check endpoints.
//
// Health endpoints are unauthenticated:
//   - Liveness: is the process serving HTTP?
//   - Readiness: are the node store and the blob store reachable?
type HealthHandler struct {
	checks    map[string]Checker
	startTime time.Time
}

// NewHealthHandler creates a health handler probing checks on readiness.
func NewHealthHandler(checks map[string]Checker) *HealthHandler {
	return &HealthHandler{checks: checks, startTime: time.Now()}
}

// DependencyHealth is the readiness result of one dependency.
type DependencyHealth struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency"`
}

// Liveness handles GET /health.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startTime)
	WriteJSONOK(w, healthyResponse(map[string]any{
		"service":    "servr",
		"started_at": h.startTime.UTC().Format(time.RFC3339),
		"uptime":     uptime.Round(time.Second).String(),
		"uptime_sec": int64(uptime.Seconds()),
	}))
}

// Readiness handles GET /health/ready. Checks run concurrently; any failure
// answers 503 with per-dependency results.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), HealthCheckTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make([]DependencyHealth, 0, len(h.checks))
		healthy = true
	)
	for name, check := range h.checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			err := check.Healthcheck(ctx)

			res := DependencyHealth{Name: name, Status: "healthy", Latency: time.Since(start).String()}
			if err != nil {
				res.Status = "unhealthy"
				res.Error = err.Error()
			}

			mu.Lock()
			defer mu.Unlock()
			results = append(results, res)
			if err != nil {
				healthy = false
			}
		}()
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })

	data := map[string]any{"dependencies": results}
	if !healthy {
		WriteJSON(w, http.StatusServiceUnavailable, unhealthyResponse(data))
		return
	}
	WriteJSONOK(w, healthyResponse(data))
}
