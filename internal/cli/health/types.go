// Package health renders server health reports for the CLI.
package health

import (
	"github.com/marmos91/servr/internal/cli/timeutil"
	"github.com/marmos91/servr/pkg/apiclient"
)

// Report combines liveness and readiness of one server.
type Report struct {
	URL          string                 `json:"url" yaml:"url"`
	Status       string                 `json:"status" yaml:"status"`
	StartedAt    string                 `json:"started_at" yaml:"started_at"`
	Uptime       string                 `json:"uptime" yaml:"uptime"`
	Dependencies []apiclient.Dependency `json:"dependencies" yaml:"dependencies"`
}

// NewReport builds a report. ready may be nil when the readiness probe
// could not be reached.
func NewReport(url string, live *apiclient.Liveness, ready *apiclient.Readiness) *Report {
	r := &Report{
		URL:       url,
		Status:    live.Status,
		StartedAt: timeutil.FormatTime(live.Data.StartedAt),
		Uptime:    timeutil.FormatUptime(live.Data.Uptime),
	}
	if ready != nil {
		r.Status = ready.Status
		r.Dependencies = ready.Data.Dependencies
	}
	return r
}

// Healthy reports whether the server and every dependency are healthy.
func (r *Report) Healthy() bool {
	return r.Status == "healthy"
}

// Headers implements output.TableRenderer.
func (r *Report) Headers() []string {
	return []string{"Dependency", "Status", "Latency", "Error"}
}

// Rows implements output.TableRenderer.
func (r *Report) Rows() [][]string {
	rows := make([][]string, 0, len(r.Dependencies))
	for _, d := range r.Dependencies {
		rows = append(rows, []string{d.Name, d.Status, d.Latency, d.Error})
	}
	return rows
}
