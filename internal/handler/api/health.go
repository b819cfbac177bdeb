package api

import (
	"context"
	"net/http"
	"time"

	"github.com/dukerupert/epharmacy/internal/domain"
	"github.com/dukerupert/epharmacy/internal/handler"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	store Pinger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	handler.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		handler.ErrorResponse(w, r, domain.Unavailable(err, "health.ready"))
		return
	}
	handler.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
