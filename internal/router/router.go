package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-interview-api/internal/config"
	"github.com/noah-isme/gema-interview-api/internal/handler"
	"github.com/noah-isme/gema-interview-api/internal/middleware"
	"github.com/noah-isme/gema-interview-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	InterviewHandler *handler.InterviewHandler
	SocketHandler    *handler.InterviewSocketHandler
	ReportHandler    *handler.ReportHandler
	Sessions         handler.SessionCounter
	JWTMiddleware    fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.Sessions))
	api.Get("/metrics", observability.MetricsHandler())

	interviews := api.Group("/interviews")
	if deps.InterviewHandler != nil {
		deps.InterviewHandler.Register(interviews)
	}
	if deps.SocketHandler != nil {
		deps.SocketHandler.Register(interviews)
	}

	// Reports carry candidate answers and are only exposed behind authentication.
	if deps.ReportHandler != nil && deps.JWTMiddleware != nil {
		reports := api.Group("/reports", deps.JWTMiddleware, middleware.RequireRole(middleware.RoleInterviewer, middleware.RoleAdmin))
		deps.ReportHandler.Register(reports)
	}
}
