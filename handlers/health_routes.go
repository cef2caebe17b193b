// handlers/health_routes.go
package handlers

import (
	"crdo-backend/services"

	"github.com/gofiber/fiber/v2"
)

type HealthReporter interface {
	Status() services.HealthStatus
}

// SetupHealthRoutes serves /health without authentication.
func SetupHealthRoutes(app fiber.Router, health HealthReporter) {
	app.Get("/health", func(c *fiber.Ctx) error {
		h := health.Status()
		if !h.Healthy() {
			return c.Status(fiber.StatusServiceUnavailable).JSON(h)
		}
		return c.JSON(h)
	})
}
