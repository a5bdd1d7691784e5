package handler

import (
	"context"
	"net/http"

	"github.com/teamdeck/teamdeck/internal/api/middleware"
	"github.com/teamdeck/teamdeck/internal/api/response"
)

// BackendPinger verifies connectivity to the backend row store.
type BackendPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles the GET /health endpoint.
type HealthHandler struct {
	pinger  BackendPinger
	version string
}

// NewHealthHandler creates a new HealthHandler. pinger may be nil when no
// backend connection exists; health then reports degraded.
func NewHealthHandler(pinger BackendPinger, version string) *HealthHandler {
	return &HealthHandler{
		pinger:  pinger,
		version: version,
	}
}

type backendStatus struct {
	Connected bool `json:"connected"`
}

type healthData struct {
	Status  string        `json:"status"`
	Version string        `json:"version"`
	Backend backendStatus `json:"backend"`
}

// ServeHTTP handles the health check request.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	connected := h.pinger != nil && h.pinger.Ping(r.Context()) == nil

	status := "healthy"
	if !connected {
		status = "degraded"
	}

	data := healthData{
		Status:  status,
		Version: h.version,
		Backend: backendStatus{Connected: connected},
	}

	response.Success(w, http.StatusOK, data, requestID)
}
