package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/kelas-go-api/internal/config"
	"github.com/noah-isme/kelas-go-api/internal/handler"
	"github.com/noah-isme/kelas-go-api/internal/middleware"
	"github.com/noah-isme/kelas-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	HelpHandler    *handler.HelpHandler
	GradingHandler *handler.GradingHandler
	JWTMiddleware  fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.HelpHandler != nil {
		help := api.Group("/help", jwtMiddleware, middleware.RequireRole("teacher", "admin"))
		help.Use(middleware.RateLimit("help", 30, time.Minute))
		deps.HelpHandler.Register(help, middleware.RequireRole("admin"))
	}

	if deps.GradingHandler != nil {
		grades := api.Group("/grades", jwtMiddleware, middleware.RequireRole("teacher", "admin"))
		deps.GradingHandler.Register(grades)
	}
}
