package middleware

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andressep95/session-auth/internal/domain"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubValidator map[string]*domain.Claims

func (s stubValidator) ValidateAccessToken(token string) (*domain.Claims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, domain.ErrInvalidToken
}

// reasonApp reports the unauthorized reason as the body so tests can see it.
func reasonApp(h fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var unauthorized *domain.UnauthorizedError
			if errors.As(err, &unauthorized) {
				return c.Status(fiber.StatusUnauthorized).SendString(string(unauthorized.Reason))
			}
			return c.SendStatus(fiber.StatusInternalServerError)
		},
	})
	app.Get("/", h, func(c *fiber.Ctx) error {
		return c.SendString(Claims(c).Email)
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	claims := &domain.Claims{Email: "alice@example.com"}
	app := reasonApp(AuthMiddleware(stubValidator{"good": claims}))

	cases := map[string]struct {
		header string
		status int
		body   string
	}{
		"missing":    {"", 401, string(domain.ReasonMissingToken)},
		"bad scheme": {"Basic good", 401, string(domain.ReasonInvalidToken)},
		"no space":   {"Bearergood", 401, string(domain.ReasonInvalidToken)},
		"invalid":    {"Bearer bad", 401, string(domain.ReasonInvalidToken)},
		"valid":      {"Bearer good", 200, "alice@example.com"},
		"lowercase":  {"bearer good", 200, "alice@example.com"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)

			buf := make([]byte, 64)
			n, _ := resp.Body.Read(buf)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.body, string(buf[:n]))
		})
	}
}

func TestRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
	require.NoError(t, err)
	assert.Len(t, resp.Header.Get(HeaderRequestID), 26)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(HeaderRequestID, "upstream-id")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "upstream-id", resp.Header.Get(HeaderRequestID))
}

func TestCORS_CredentialsForExplicitOrigins(t *testing.T) {
	app := fiber.New()
	app.Use(CORSMiddleware("http://localhost:5173"))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}

func TestRateLimit_WindowPerRoute(t *testing.T) {
	app := fiber.New()
	limit := RateLimit(1, time.Minute, nil)
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) }
	app.Post("/a", limit, ok)
	app.Post("/b", limit, ok)

	status := func(path string) int {
		resp, err := app.Test(httptest.NewRequest("POST", path, nil))
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusNoContent, status("/a"))
	assert.Equal(t, fiber.StatusTooManyRequests, status("/a"))
	assert.Equal(t, fiber.StatusNoContent, status("/b"))
	assert.Equal(t, fiber.StatusTooManyRequests, status("/b"))
}
