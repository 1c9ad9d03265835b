package handlers

import (
	"net/http"
	"time"
)

// healthEnvelope is a local response envelope. It can't live in pkg/api
// since pkg/api imports this package for routing, and the reverse import
// would cycle.
type healthEnvelope struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// HealthHandler handles the unauthenticated liveness and readiness probes.
type HealthHandler struct {
	ready func() bool
}

// NewHealthHandler creates a health handler. ready reports whether the
// coordinator and its dependencies are wired and usable; it may be nil, in
// which case readiness always succeeds.
func NewHealthHandler(ready func() bool) *HealthHandler {
	return &HealthHandler{ready: ready}
}

// Liveness handles GET /health.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthEnvelope{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Data:      map[string]string{"service": "debuginfo-ingestd"},
	})
}

// Readiness handles GET /health/ready.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil && !h.ready() {
		writeJSON(w, http.StatusServiceUnavailable, healthEnvelope{
			Status:    "unhealthy",
			Timestamp: time.Now().UTC(),
			Error:     "coordinator not ready",
		})
		return
	}
	writeJSON(w, http.StatusOK, healthEnvelope{Status: "healthy", Timestamp: time.Now().UTC()})
}
