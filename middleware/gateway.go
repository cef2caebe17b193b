// middleware/gateway.go
package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// ServiceToken guards internal endpoints (metrics scraping) with a shared
// token. The token may be sent as "Bearer <token>" or raw. An empty expected
// token disables the check.
func ServiceToken(expected string) fiber.Handler {
	if expected == "" {
		logrus.WithField("component", "service-token").Warn("⚠️ no service token configured, internal endpoints are open")
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "service token missing"})
		}

		token := strings.TrimPrefix(header, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
			logrus.WithFields(logrus.Fields{"component": "service-token", "path": c.Path(), "ip": c.IP()}).
				Warn("🚫 invalid service token")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid service token"})
		}
		return c.Next()
	}
}
