package application

import (
	"context"

	"github.com/alorle/tv-channels/internal/logo"
	"github.com/alorle/tv-channels/internal/port/driven"
	"github.com/alorle/tv-channels/metrics"
)

// HealthService orchestrates health checks for the application and its dependencies.
type HealthService struct {
	db       driven.ChannelRepository
	backends map[logo.BackendKind]driven.RemoteLogoSource
	backend  logo.BackendConfig
}

// NewHealthService creates a new health check service. Only the backend
// selected by backend is checked.
func NewHealthService(db driven.ChannelRepository, backends []RemoteBackend, backend logo.BackendConfig) *HealthService {
	m := make(map[logo.BackendKind]driven.RemoteLogoSource, len(backends))
	for _, b := range backends {
		m[b.Kind] = b.Source
	}
	return &HealthService{
		db:       db,
		backends: m,
		backend:  backend,
	}
}

// ComponentHealth represents the health status of a single component.
type ComponentHealth struct {
	Status string // "ok", "error" or "disabled"
	Error  string // empty unless status is "error"
}

// HealthStatus represents the overall health status of the application.
type HealthStatus struct {
	Status  string          // "ok" if all components are healthy, "degraded" otherwise
	Catalog ComponentHealth // channel catalog health
	Backend ComponentHealth // active logo backend health
}

// Check performs health checks on all dependencies.
// A disabled backend does not degrade the overall status.
func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:  "ok",
		Catalog: ComponentHealth{Status: "ok"},
		Backend: ComponentHealth{Status: "disabled"},
	}

	if err := s.db.Ping(ctx); err != nil {
		status.Catalog = ComponentHealth{Status: "error", Error: err.Error()}
		status.Status = "degraded"
	}

	if source, ok := s.backends[s.backend.Kind]; ok {
		if err := source.Ping(ctx, s.backend.Endpoint()); err != nil {
			status.Backend = ComponentHealth{Status: "error", Error: err.Error()}
			status.Status = "degraded"
		} else {
			status.Backend = ComponentHealth{Status: "ok"}
		}
	}

	if status.Status != "ok" {
		metrics.RecordHealthCheckFailure()
	}
	return status
}
