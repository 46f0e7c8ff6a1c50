package dinewise

import (
	"context"

	healthuc "github.com/kailas-cloud/dinewise/internal/usecase/health"
)

// HealthStatus is the aggregated client health.
//
// Status is "ok" while live calls are admitted, "degraded" in cache-only
// mode and "error" when the store is unreachable. Checks holds per-component
// results under "store" and "places".
type HealthStatus struct {
	Status string
	Mode   Mode
	Checks map[string]string
}

// Healthy reports whether Discover can currently answer, live or from cache.
func (h HealthStatus) Healthy() bool {
	return h.Status != string(healthuc.Unhealthy)
}

// Health probes the store and reports the provider mode.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Mode:   Mode(report.Mode),
		Checks: checks,
	}
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
