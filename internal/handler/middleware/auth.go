package middleware

import (
	"strings"

	"github.com/andressep95/session-auth/internal/domain"
	"github.com/gofiber/fiber/v2"
)

const claimsKey = "claims"

// TokenValidator verifies bearer access tokens.
type TokenValidator interface {
	ValidateAccessToken(token string) (*domain.Claims, error)
}

// AuthMiddleware validates the bearer access token and stores its claims
// for downstream handlers. Failures are returned to the error handler so
// that every 401 looks the same.
func AuthMiddleware(validator TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return domain.ErrMissingToken
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return domain.ErrInvalidToken
		}

		claims, err := validator.ValidateAccessToken(strings.TrimSpace(token))
		if err != nil {
			return err
		}

		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// Claims returns the claims stored by AuthMiddleware, or nil.
func Claims(c *fiber.Ctx) *domain.Claims {
	claims, _ := c.Locals(claimsKey).(*domain.Claims)
	return claims
}
