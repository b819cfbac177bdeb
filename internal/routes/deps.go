package routes

import (
	"net/http"

	"github.com/dukerupert/epharmacy/internal/handler/api"
)

// APIDeps contains dependencies for the JSON API routes
type APIDeps struct {
	Auth     *api.AuthHandler
	Users    *api.UserHandler
	Products *api.ProductHandler
	Stores   *api.StoreHandler
	Cart     *api.CartHandler
	Orders   *api.OrderHandler
	Reviews  *api.ReviewHandler
}

// OpsDeps contains dependencies for probe and metrics routes
type OpsDeps struct {
	Health *api.HealthHandler

	// Metrics is nil when METRICS_ENABLED is false.
	Metrics http.Handler
}
