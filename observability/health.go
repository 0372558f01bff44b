package observability

import "context"

// HealthStatus is the state of a component or service.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "up"
	HealthStatusDown     HealthStatus = "down"
	HealthStatusDegraded HealthStatus = "degraded"
)

// Health describes one component.
type Health struct {
	Name    string            `json:"name"`
	Status  HealthStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// ServiceHealth is the body of the /health endpoint.
type ServiceHealth struct {
	Service    string       `json:"service"`
	Status     HealthStatus `json:"status"`
	Version    string       `json:"version,omitempty"`
	Components []Health     `json:"components,omitempty"`
}

// HealthChecker is implemented by components that report their health.
type HealthChecker interface {
	CheckHealth(ctx context.Context) Health
}

// NewServiceHealth creates a ServiceHealth with status up.
func NewServiceHealth(service, version string) *ServiceHealth {
	return &ServiceHealth{Service: service, Status: HealthStatusUp, Version: version}
}

// Check runs every checker and folds the results into the service status.
func (sh *ServiceHealth) Check(ctx context.Context, checkers ...HealthChecker) *ServiceHealth {
	for _, c := range checkers {
		sh.AddComponent(c.CheckHealth(ctx))
	}
	return sh
}

// AddComponent records a component result. A down component takes the
// service down; a degraded one degrades it unless it is already down.
func (sh *ServiceHealth) AddComponent(h Health) {
	sh.Components = append(sh.Components, h)
	switch h.Status {
	case HealthStatusDown:
		sh.Status = HealthStatusDown
	case HealthStatusDegraded:
		if sh.Status != HealthStatusDown {
			sh.Status = HealthStatusDegraded
		}
	}
}
