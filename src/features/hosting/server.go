package hosting

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vigil/src/features/config"
	"vigil/src/integrity"
)

// StateReader exposes the tracked state to HTTP readers without letting
// them near the detector's mutation path.
type StateReader interface {
	Snapshot() *integrity.Store
	TrackedCount() int
}

// Server is the status and metrics HTTP server.
type Server struct {
	app  *fiber.App
	port uint32
}

// NewServer creates a new HTTP server.
func NewServer(cfg *config.Manager, state StateReader, registry *prometheus.Registry) *Server {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			slog.Error("Internal Server Error", "error", err)
			return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
		},
		AppName:               "Vigil",
		DisableStartupMessage: true,
		EnablePrintRoutes:     cfg.Get().Server.PrintRoutes,
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	app.Get("/api/status", func(c *fiber.Ctx) error {
		snap := state.Snapshot()
		return c.JSON(fiber.Map{
			"tracked":    len(snap.Files),
			"created_at": snap.CreatedAt,
			"state_path": cfg.Get().State.Path,
			"targets":    cfg.Get().Targets,
		})
	})
	app.Get("/api/state", func(c *fiber.Ctx) error {
		return c.JSON(state.Snapshot())
	})
	app.Get("/api/config", func(c *fiber.Ctx) error {
		return c.JSON(cfg.Get())
	})

	return &Server{app: app, port: cfg.Get().Server.Port}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.app.Listen(":" + fmt.Sprint(s.port))
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
