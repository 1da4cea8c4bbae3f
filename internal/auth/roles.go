package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/kdh92417/team-tasks/pkg/util"
)

// RequireUser ensures a user is authenticated.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if UserFromContext(c) == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
