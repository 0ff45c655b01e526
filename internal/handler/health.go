package handler

import (
	"net/http"

	"github.com/manoa-its/helpdesk-assistant/internal/analytics"
	"github.com/manoa-its/helpdesk-assistant/internal/kv"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	kvClient *kv.Client
	store    *analytics.Store
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(kvClient *kv.Client, store *analytics.Store) *HealthHandler {
	return &HealthHandler{
		kvClient: kvClient,
		store:    store,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.kvClient == nil || !h.kvClient.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "key-value store not connected",
		})
		return
	}

	if h.store == nil || h.store.Ping(r.Context()) != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "analytics store unreachable",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
