// Package health aggregates component checks into a single report.
package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates every component failed.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// CheckFunc probes one component.
type CheckFunc func(ctx context.Context) error

// Check is a named component probe.
type Check struct {
	Name string
	Fn   CheckFunc
}

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
	Errors map[string]error
}

// Service coordinates health checks.
type Service struct {
	checks []Check
}

// New creates a Service. Checks with a nil Fn are skipped.
func New(checks ...Check) *Service {
	s := &Service{}
	for _, c := range checks {
		if c.Fn != nil {
			s.checks = append(s.checks, c)
		}
	}
	return s
}

// Check runs health checks against all components, sequentially in registration order.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, len(s.checks))
	errs := make(map[string]error)

	failed := 0
	for _, c := range s.checks {
		if err := c.Fn(ctx); err != nil {
			checks[c.Name] = CheckError
			errs[c.Name] = err
			failed++
			continue
		}
		checks[c.Name] = CheckOK
	}

	status := Healthy
	switch {
	case failed > 0 && failed == len(s.checks):
		status = Unhealthy
	case failed > 0:
		status = Degraded
	}

	return Report{Status: status, Checks: checks, Errors: errs}
}
