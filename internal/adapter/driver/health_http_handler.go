package driver

import (
	"context"
	"net/http"
	"time"

	"github.com/alorle/tv-channels/internal/application"
)

// HealthHTTPHandler handles HTTP requests for health checks.
type HealthHTTPHandler struct {
	service *application.HealthService
	timeout time.Duration
}

// NewHealthHTTPHandler creates a new HTTP handler for health checks.
// A positive timeout bounds the whole check.
func NewHealthHTTPHandler(service *application.HealthService, timeout time.Duration) *HealthHTTPHandler {
	return &HealthHTTPHandler{service: service, timeout: timeout}
}

// componentResponse represents the health of one dependency.
type componentResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// healthResponse represents the JSON response for health check endpoint.
type healthResponse struct {
	Status  string            `json:"status"`
	Catalog componentResponse `json:"catalog"`
	Backend componentResponse `json:"backend"`
}

// ServeHTTP handles GET /health
func (h *HealthHTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	status := h.service.Check(ctx)

	resp := healthResponse{
		Status:  status.Status,
		Catalog: componentResponse{Status: status.Catalog.Status, Error: status.Catalog.Error},
		Backend: componentResponse{Status: status.Backend.Status, Error: status.Backend.Error},
	}

	httpStatus := http.StatusOK
	if status.Status != "ok" {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, resp)
}
