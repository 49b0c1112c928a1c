package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/milestone-tracker/internal/api/http/handlers"
	"github.com/spec-kit/milestone-tracker/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Replays        *handlers.ReplayHandler
	Metrics        *handlers.MetricsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	v1 := app.Group("/v1", cfg.AuthMiddleware.Handle)
	v1.Post("/replays", auth.RequireScope(auth.ScopeReplayWrite), cfg.Replays.Replay)
	v1.Get("/replays/:id", auth.RequireScope(auth.ScopeReplayRead), cfg.Replays.GetRun)
	v1.Get("/metrics", auth.RequireScope(auth.ScopeMetricsRead), cfg.Metrics.Snapshot)
}
