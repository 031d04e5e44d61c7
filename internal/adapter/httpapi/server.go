// Package httpapi serves the dashboard JSON API consumed by the UI layer.
package httpapi

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/railmet/platform-risk-service/internal/domain"
	"github.com/railmet/platform-risk-service/internal/pipeline"
)

// Pipeline is the slice of the engine the API layer needs.
type Pipeline interface {
	Snapshot() pipeline.Snapshot
	Refresh() error
	Simulate(r domain.WeatherReading) error
	Reset() error
}

// Server wraps the Fiber app and its listen address.
type Server struct {
	app    *fiber.App
	addr   string
	logger *slog.Logger
}

// NewServer builds the API server and mounts all routes.
func NewServer(addr string, p Pipeline, logger *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "platform-risk",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New())

	h := &handler{pipeline: p, logger: logger}

	v1 := app.Group("/api/v1")
	v1.Get("/weather", h.getWeather)
	v1.Get("/platforms", h.getPlatforms)
	v1.Get("/recommendations", h.getRecommendations)
	v1.Post("/refresh", h.postRefresh)
	v1.Post("/simulate", h.postSimulate)
	v1.Post("/simulate/reset", h.postReset)

	return &Server{app: app, addr: addr, logger: logger}
}

// Start begins listening and blocks until shutdown.
func (s *Server) Start() error {
	s.logger.Info("api server starting", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// Shutdown gracefully drains connections within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the Fiber app for handler tests.
func (s *Server) App() *fiber.App {
	return s.app
}
