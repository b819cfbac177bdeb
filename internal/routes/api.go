package routes

import (
	"github.com/dukerupert/epharmacy/internal/domain"
	"github.com/dukerupert/epharmacy/internal/middleware"
	"github.com/dukerupert/epharmacy/internal/router"
)

// RegisterAPIRoutes registers the /api routes. The router's global chain
// must already include WithIdentity so the guards below can see the caller.
func RegisterAPIRoutes(r *router.Router, deps APIDeps) {
	// Auth (stricter rate limit is applied globally by path prefix)
	r.Post("/api/auth/register", deps.Auth.Register)
	r.Post("/api/auth/login", deps.Auth.Login)
	r.Post("/api/auth/refresh", deps.Auth.Refresh)

	// Catalog and stores are public
	r.Get("/api/products", deps.Products.List)
	r.Get("/api/products/{id}", deps.Products.Get)
	r.Get("/api/stores", deps.Stores.List)
	r.Get("/api/stores/nearest", deps.Stores.Nearest)
	r.Get("/api/reviews", deps.Reviews.List)

	// Signed-in customers
	authed := r.Group(middleware.RequireAuth)
	authed.Post("/api/auth/logout", deps.Auth.Logout)
	authed.Get("/api/auth/me", deps.Auth.Me)
	authed.Get("/api/users/me", deps.Users.Me)
	authed.Patch("/api/users/me", deps.Users.UpdateMe)
	authed.Get("/api/cart", deps.Cart.Get)
	authed.Put("/api/cart", deps.Cart.Update)
	authed.Post("/api/orders/checkout", deps.Orders.Checkout)
	authed.Get("/api/orders/me", deps.Orders.Mine)
	authed.Get("/api/orders/{id}", deps.Orders.Get)
	authed.Post("/api/reviews", deps.Reviews.Create)

	// Admin
	admin := r.Group(middleware.RequireRole(domain.RoleAdmin))
	admin.Get("/api/users", deps.Users.List)
	admin.Get("/api/orders", deps.Orders.List)
	admin.Patch("/api/orders/{id}/status", deps.Orders.UpdateStatus)
}

// RegisterOpsRoutes registers health probes and, when enabled, /metrics.
func RegisterOpsRoutes(r *router.Router, deps OpsDeps) {
	r.Get("/health", deps.Health.Health)
	r.Get("/ready", deps.Health.Ready)
	if deps.Metrics != nil {
		r.Handle("GET", "/metrics", deps.Metrics)
	}
}
