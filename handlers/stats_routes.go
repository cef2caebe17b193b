// handlers/stats_routes.go
package handlers

import (
	"context"

	"crdo-backend/middleware"
	"crdo-backend/services"

	"github.com/gofiber/fiber/v2"
)

type StatsReader interface {
	Dashboard(ctx context.Context, userID string) (*services.Dashboard, error)
	UserStats(ctx context.Context, user services.UserRef) (*services.UserStats, error)
}

func SetupStatsRoutes(app fiber.Router, auth fiber.Handler, stats StatsReader) {
	app.Get("/getDashboard", auth, func(c *fiber.Ctx) error {
		d, err := stats.Dashboard(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(d)
	})

	app.Get("/getUserStats", auth, func(c *fiber.Ctx) error {
		s, err := stats.UserStats(c.UserContext(), services.UserRef{
			ID:    middleware.UserID(c),
			Email: middleware.UserEmail(c),
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(s)
	})
}
