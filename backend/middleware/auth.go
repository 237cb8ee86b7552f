package middleware

import (
	"coursemarket/backend/config"
	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
)

const localUserID = "user_id"

// AuthMiddleware derives the caller from the bearer token on every request
// and stores the user id in the request locals.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := utils.ExtractUserIDFromToken(c, cfg)
		if err != nil {
			return utils.Unauthorized(c, "Unauthorized")
		}
		c.Locals(localUserID, userID)
		return c.Next()
	}
}

// CurrentUserID returns the authenticated user id, or "" outside AuthMiddleware.
func CurrentUserID(c *fiber.Ctx) string {
	userID, _ := c.Locals(localUserID).(string)
	return userID
}
