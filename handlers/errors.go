// handlers/errors.go
package handlers

import (
	"errors"

	"crdo-backend/services"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type errorResponse struct {
	status  int
	message string
}

var knownErrors = map[error]errorResponse{
	services.ErrUnauthorized:          {fiber.StatusUnauthorized, "Unauthorized"},
	services.ErrRunNotFound:           {fiber.StatusNotFound, "Run not found"},
	services.ErrUserNotFound:          {fiber.StatusNotFound, "User not found with this email"},
	services.ErrSelfFriendRequest:     {fiber.StatusBadRequest, "Cannot send friend request to yourself"},
	services.ErrAlreadyFriends:        {fiber.StatusBadRequest, "Already friends with this user"},
	services.ErrFriendRequestPending:  {fiber.StatusBadRequest, "Friend request already pending"},
	services.ErrFriendRequestNotFound: {fiber.StatusNotFound, "Friend request not found or already processed"},
	services.ErrSeedingDisabled:       {fiber.StatusForbidden, "Test data seeding is disabled"},
}

// respondError writes the JSON error body for err. Validation errors carry
// their code and details; unknown errors never leak internals.
func respondError(c *fiber.Ctx, err error) error {
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		body := fiber.Map{"error": ve.Message}
		if ve.Details != "" {
			body["details"] = ve.Details
		}
		if ve.Code != "" {
			body["code"] = ve.Code
		}
		return c.Status(fiber.StatusBadRequest).JSON(body)
	}

	for target, resp := range knownErrors {
		if errors.Is(err, target) {
			return c.Status(resp.status).JSON(fiber.Map{"error": resp.message})
		}
	}

	logrus.WithFields(logrus.Fields{"path": c.Path(), "user_id": c.Locals("user_id")}).WithError(err).Error("request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}

// ErrorHandler is the app-wide fallback for errors returned by handlers and
// middleware.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
	return respondError(c, err)
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
}
