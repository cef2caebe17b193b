// middleware/auth.go
package middleware

import (
	"context"
	"errors"
	"strings"

	"crdo-backend/services"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const (
	userIDKey    = "user_id"
	userEmailKey = "user_email"
)

// IdentityResolver turns a bearer token into the caller's identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, accessToken string) (*services.Identity, error)
}

// BearerAuth rejects requests without a valid bearer token and stores the
// caller in c.Locals for handlers.
func BearerAuth(resolver IdentityResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := strings.TrimSpace(strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer "))
		if token == "" {
			return unauthorized(c)
		}

		id, err := resolver.Resolve(c.UserContext(), token)
		if err != nil {
			if !errors.Is(err, services.ErrUnauthorized) {
				logrus.WithField("component", "auth").WithError(err).Warnf("identity lookup failed for %s", c.Path())
			}
			return unauthorized(c)
		}

		c.Locals(userIDKey, id.UserID)
		c.Locals(userEmailKey, id.Email)
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
}

// UserID returns the authenticated user id, or "" outside BearerAuth.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(userIDKey).(string)
	return id
}

func UserEmail(c *fiber.Ctx) string {
	email, _ := c.Locals(userEmailKey).(string)
	return email
}
