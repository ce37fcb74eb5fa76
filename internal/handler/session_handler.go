package handler

import (
	"github.com/andressep95/session-auth/internal/handler/middleware"
	"github.com/andressep95/session-auth/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// SessionHandler exposes the caller's own sessions.
type SessionHandler struct {
	authService *service.AuthService
}

func NewSessionHandler(authService *service.AuthService) *SessionHandler {
	return &SessionHandler{authService: authService}
}

// List returns the caller's live sessions; the one bound to the refresh
// cookie is flagged as current.
// GET /auth/sessions
func (h *SessionHandler) List(c *fiber.Ctx) error {
	userID, err := service.UserID(middleware.Claims(c))
	if err != nil {
		return err
	}

	sessions, err := h.authService.ListSessions(c.UserContext(), userID, refreshTokenFrom(c))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// Revoke closes a specific session by ID
// DELETE /auth/sessions/:id
func (h *SessionHandler) Revoke(c *fiber.Ctx) error {
	userID, err := service.UserID(middleware.Claims(c))
	if err != nil {
		return err
	}

	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid session ID")
	}

	if err := h.authService.RevokeSession(c.UserContext(), userID, sessionID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Session closed successfully",
	})
}
