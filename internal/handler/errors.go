package handler

import (
	"errors"
	"log/slog"

	"github.com/andressep95/session-auth/internal/domain"
	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error      bool                `json:"error"`
	StatusCode int                 `json:"statusCode"`
	Message    string              `json:"message"`
	Errors     []domain.FieldError `json:"errors,omitempty"`
}

// ErrorHandler maps domain errors to HTTP responses. Every 401 carries the
// same message so clients cannot tell which check failed.
func ErrorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		resp := ErrorResponse{
			Error:      true,
			StatusCode: fiber.StatusInternalServerError,
			Message:    "Internal server error",
		}

		var (
			validationErr   *domain.ValidationError
			unauthorizedErr *domain.UnauthorizedError
			fiberErr        *fiber.Error
		)

		switch {
		case errors.As(err, &validationErr):
			resp.StatusCode = fiber.StatusBadRequest
			resp.Message = "Validation failed"
			resp.Errors = validationErr.Fields
		case errors.Is(err, domain.ErrEmailTaken):
			resp.StatusCode = fiber.StatusConflict
			resp.Message = domain.ErrEmailTaken.Error()
		case errors.Is(err, domain.ErrSessionNotFound):
			resp.StatusCode = fiber.StatusNotFound
			resp.Message = "Session not found"
		case errors.As(err, &unauthorizedErr):
			resp.StatusCode = fiber.StatusUnauthorized
			resp.Message = "Unauthorized"
			log.Debug("request unauthorized", "path", c.Path(), "reason", unauthorizedErr.Reason)
		case errors.As(err, &fiberErr):
			resp.StatusCode = fiberErr.Code
			resp.Message = fiberErr.Message
		default:
			log.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		}

		return c.Status(resp.StatusCode).JSON(resp)
	}
}
