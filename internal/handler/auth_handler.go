package handler

import (
	"log/slog"

	"github.com/andressep95/session-auth/internal/config"
	"github.com/andressep95/session-auth/internal/domain"
	"github.com/andressep95/session-auth/internal/handler/middleware"
	"github.com/andressep95/session-auth/internal/service"
	"github.com/andressep95/session-auth/pkg/validator"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *service.AuthService
	validator   *validator.Validator
	cookie      refreshCookie
	log         *slog.Logger
}

type authBody struct {
	AccessToken string         `json:"accessToken"`
	User        domain.Profile `json:"user"`
}

func NewAuthHandler(authService *service.AuthService, validator *validator.Validator, cfg *config.Config, log *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validator:   validator,
		cookie: refreshCookie{
			secure: cfg.IsProduction(),
			maxAge: cfg.JWT.RefreshTokenLife.Duration(),
		},
		log: log.With("component", "auth_handler"),
	}
}

// SignUp registers a user and opens their first session
// POST /auth/signup
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req service.SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := h.validator.Validate(req); err != nil {
		return err
	}

	resp, err := h.authService.SignUp(c.UserContext(), req, deviceFromRequest(c))
	if err != nil {
		return err
	}

	h.cookie.set(c, resp.Tokens.RefreshToken)
	return c.Status(fiber.StatusCreated).JSON(authBody{
		AccessToken: resp.Tokens.AccessToken,
		User:        resp.User,
	})
}

// SignIn checks credentials and opens a session
// POST /auth/signin
func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var req service.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := h.validator.Validate(req); err != nil {
		return err
	}

	user, err := h.authService.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	resp, err := h.authService.SignIn(c.UserContext(), user, deviceFromRequest(c))
	if err != nil {
		return err
	}

	h.cookie.set(c, resp.Tokens.RefreshToken)
	return c.JSON(authBody{
		AccessToken: resp.Tokens.AccessToken,
		User:        resp.User,
	})
}

// Refresh rotates the refresh cookie and returns a new access token
// POST /auth/refresh
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	pair, err := h.authService.Refresh(c.UserContext(), refreshTokenFrom(c), deviceFromRequest(c))
	if err != nil {
		return err
	}

	h.cookie.set(c, pair.RefreshToken)
	return c.JSON(fiber.Map{
		"accessToken": pair.AccessToken,
	})
}

// Logout always succeeds from the client's point of view
// POST /auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.authService.Logout(c.UserContext(), refreshTokenFrom(c)); err != nil {
		h.log.Error("failed to delete session on logout", "error", err)
	}

	h.cookie.clear(c)
	return c.JSON(fiber.Map{
		"message": "Logged out successfully",
	})
}

// LogoutAll revokes every other session of the caller. Without a refresh
// cookie every session goes and the cookie is cleared.
// POST /auth/logout-all
func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	userID, err := service.UserID(middleware.Claims(c))
	if err != nil {
		return err
	}

	current := refreshTokenFrom(c)
	revoked, err := h.authService.LogoutAllDevices(c.UserContext(), userID, current)
	if err != nil {
		return err
	}

	if current == "" {
		h.cookie.clear(c)
	}

	return c.JSON(fiber.Map{
		"message":         "Logged out from all other devices",
		"sessionsRevoked": revoked,
	})
}

// Profile returns the identity carried by the access token
// GET /auth/profile
func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	return c.JSON(h.authService.GetProfile(middleware.Claims(c)))
}
