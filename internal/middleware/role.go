package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
)

func RequireRoles(allowed ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := PrincipalFrom(c).Require(allowed...); err != nil {
			return err
		}
		return c.Next()
	}
}
