package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/movie-service/internal/api/http/handlers"
	"github.com/spec-kit/movie-service/internal/auth"
	"github.com/spec-kit/movie-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Auth    *handlers.AuthHandler
	Gate    *auth.PermissionGate
	Metrics *observability.Metrics
	// Catalog maps catalog operation ids to their handlers. Missing entries are not mounted.
	Catalog map[string]fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	v1 := app.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Get("/verify-email", cfg.Auth.VerifyEmail)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	mount(authGroup, cfg.Gate, AccountRoutes, map[string]fiber.Handler{
		"auth.logout": cfg.Auth.Logout,
		"auth.me":     cfg.Auth.Me,
	})

	mount(v1, cfg.Gate, CatalogRoutes, cfg.Catalog)
}
