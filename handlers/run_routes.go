// handlers/run_routes.go
package handlers

import (
	"context"

	"crdo-backend/engine"
	"crdo-backend/middleware"
	"crdo-backend/services"

	"github.com/gofiber/fiber/v2"
)

type RunStarter interface {
	StartRun(ctx context.Context, userID string) (*services.StartRunResult, error)
	SeedRun(ctx context.Context, userID string, req services.SeedRunRequest) (*services.SeedRunResult, error)
}

type RunCompleter interface {
	FinishRun(ctx context.Context, userID string, req services.FinishRunRequest) (*services.FinishRunResult, error)
}

type SpeedValidator interface {
	Validate(ctx context.Context, userID string, req services.SpeedValidationRequest) (*engine.RiskAssessment, error)
}

// SetupRunRoutes registers the run lifecycle endpoints. finishLimiter may be
// nil to disable rate limiting.
func SetupRunRoutes(app fiber.Router, auth fiber.Handler, finishLimiter fiber.Handler, runs RunStarter, completion RunCompleter, validator SpeedValidator) {
	app.Post("/startRun", auth, func(c *fiber.Ctx) error {
		res, err := runs.StartRun(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	})

	finish := []fiber.Handler{auth}
	if finishLimiter != nil {
		finish = append(finish, finishLimiter)
	}
	finish = append(finish, func(c *fiber.Ctx) error {
		var req services.FinishRunRequest
		if err := c.BodyParser(&req); err != nil {
			return badBody(c)
		}
		res, err := completion.FinishRun(c.UserContext(), middleware.UserID(c), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	})
	app.Post("/finishRun", finish...)

	app.Post("/speedValidation", auth, func(c *fiber.Ctx) error {
		var req services.SpeedValidationRequest
		if err := c.BodyParser(&req); err != nil {
			return badBody(c)
		}
		a, err := validator.Validate(c.UserContext(), middleware.UserID(c), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(a)
	})

	app.Post("/seedTestRun", auth, func(c *fiber.Ctx) error {
		var req services.SeedRunRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return badBody(c)
			}
		}
		res, err := runs.SeedRun(c.UserContext(), middleware.UserID(c), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	})
}
