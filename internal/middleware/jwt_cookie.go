package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/utils"
)

const CookieName = "jm_token"

// JWTFromCookie verifies the session cookie and stores its claims in Locals.
func JWTFromCookie(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := c.Cookies(CookieName)
		if tokenStr == "" {
			return apperr.Unauthorized("authentication required")
		}

		claims, err := utils.ParseJWT(secret, tokenStr)
		if err != nil {
			return apperr.Unauthorized("invalid or expired session")
		}

		c.Locals("claims", claims)
		return c.Next()
	}
}
