// Package handlers implements the HTTP handlers for the taste hub API.
package handlers

import "net/http"

// HealthHandler answers liveness probes. It deliberately has no dependencies:
// a database or embedding outage should surface as request failures, not as a
// dead process.
type HealthHandler struct{}

// NewHealthHandler creates a new health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Check handles GET /health.
func (h *HealthHandler) Check(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
