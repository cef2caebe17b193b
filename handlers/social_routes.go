// handlers/social_routes.go
package handlers

import (
	"context"

	"crdo-backend/middleware"
	"crdo-backend/models"
	"crdo-backend/services"

	"github.com/gofiber/fiber/v2"
)

type FriendManager interface {
	SendRequest(ctx context.Context, userID, friendEmail string) (*models.Friend, error)
	Respond(ctx context.Context, userID, requestID string, action services.FriendAction) (models.FriendStatus, error)
	List(ctx context.Context, userID string) (*services.FriendList, error)
}

func SetupSocialRoutes(app fiber.Router, auth fiber.Handler, friends FriendManager) {
	app.Post("/sendFriendRequest", auth, func(c *fiber.Ctx) error {
		var body struct {
			FriendEmail string `json:"friendEmail"`
		}
		if err := c.BodyParser(&body); err != nil {
			return badBody(c)
		}
		req, err := friends.SendRequest(c.UserContext(), middleware.UserID(c), body.FriendEmail)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"message":       "Friend request sent successfully",
			"friendRequest": req,
		})
	})

	app.Post("/respondToFriendRequest", auth, func(c *fiber.Ctx) error {
		var body struct {
			RequestID string               `json:"requestId"`
			Action    services.FriendAction `json:"action"`
		}
		if err := c.BodyParser(&body); err != nil {
			return badBody(c)
		}
		status, err := friends.Respond(c.UserContext(), middleware.UserID(c), body.RequestID, body.Action)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"message": "Friend request " + string(body.Action) + "ed successfully",
			"status":  status,
		})
	})

	app.Get("/getFriends", auth, func(c *fiber.Ctx) error {
		list, err := friends.List(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(list)
	})
}
