package handler

import (
	"log/slog"

	"github.com/andressep95/session-auth/internal/config"
	"github.com/andressep95/session-auth/internal/handler/middleware"
	"github.com/andressep95/session-auth/internal/metrics"
	"github.com/gofiber/fiber/v2"
)

// NewApp creates the fiber app with the global middleware chain installed.
func NewApp(cfg *config.Config, log *slog.Logger, rec *metrics.Recorder) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "session-auth",
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler(log),
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
	})

	app.Use(middleware.RequestID())
	app.Use(middleware.LoggerMiddleware(log, rec))
	app.Use(middleware.RecoveryMiddleware(log))
	app.Use(middleware.CORSMiddleware(cfg.Server.CORSOrigins))

	return app
}
