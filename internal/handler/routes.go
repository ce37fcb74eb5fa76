package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(
	app *fiber.App,
	authHandler *AuthHandler,
	sessionHandler *SessionHandler,
	healthHandler *HealthHandler,
	authMiddleware fiber.Handler,
	rateLimit fiber.Handler,
	gatherer prometheus.Gatherer,
) {
	// Health checks (public)
	app.Get("/health", healthHandler.Health)
	app.Get("/ready", healthHandler.Ready)

	if gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	auth := app.Group("/auth")

	// Throttled public routes
	auth.Post("/signup", rateLimit, authHandler.SignUp)
	auth.Post("/signin", rateLimit, authHandler.SignIn)
	auth.Post("/refresh", rateLimit, authHandler.Refresh)
	auth.Post("/logout", authHandler.Logout)

	// Bearer protected routes
	auth.Post("/logout-all", authMiddleware, authHandler.LogoutAll)
	auth.Get("/profile", authMiddleware, authHandler.Profile)
	auth.Get("/sessions", authMiddleware, sessionHandler.List)
	auth.Delete("/sessions/:id", authMiddleware, sessionHandler.Revoke)
}
