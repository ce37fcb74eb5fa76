package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

const refreshCookieName = "refreshToken"

// refreshCookie writes and clears the http-only refresh token cookie.
type refreshCookie struct {
	secure bool
	maxAge time.Duration
}

func (rc refreshCookie) set(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(rc.maxAge.Seconds()),
		Secure:   rc.secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func (rc refreshCookie) clear(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		Secure:   rc.secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func refreshTokenFrom(c *fiber.Ctx) string {
	return c.Cookies(refreshCookieName)
}
