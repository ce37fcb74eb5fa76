package handler

import (
	"github.com/andressep95/session-auth/internal/domain"
	"github.com/gofiber/fiber/v2"
)

const unknownDevice = "unknown"

// deviceFromRequest captures the client fingerprint stored with a session.
func deviceFromRequest(c *fiber.Ctx) domain.DeviceContext {
	device := domain.DeviceContext{
		UserAgent: c.Get(fiber.HeaderUserAgent),
		IPAddress: c.IP(),
	}
	if device.UserAgent == "" {
		device.UserAgent = unknownDevice
	}
	if device.IPAddress == "" {
		device.IPAddress = unknownDevice
	}
	return device
}
