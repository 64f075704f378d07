package vectordb

import (
	"context"

	"github.com/kailas-cloud/vectordb/internal/embedding"
	"github.com/kailas-cloud/vectordb/internal/health"
)

// pinger is implemented by cache stores that can report availability.
type pinger interface {
	Ping(ctx context.Context) error
}

// HealthStatus represents the aggregated client health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component → "ok"/"error"
	Errors map[string]error  // component → failure, only for failed checks
}

// Health checks the server and, when configured, the embedding provider and cache.
func (c *Client) Health(ctx context.Context) HealthStatus {
	checks := []health.Check{{Name: "server", Fn: c.Ping}}

	if hc, ok := c.embedder.(embedding.HealthChecker); ok {
		checks = append(checks, health.Check{Name: "embedding", Fn: hc.HealthCheck})
	}
	if p, ok := c.cacheStore.(pinger); ok {
		checks = append(checks, health.Check{Name: "cache", Fn: p.Ping})
	}

	report := health.New(checks...).Check(ctx)
	out := HealthStatus{
		Status: string(report.Status),
		Checks: make(map[string]string, len(report.Checks)),
		Errors: report.Errors,
	}
	for k, v := range report.Checks {
		out.Checks[k] = string(v)
	}
	return out
}
