package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/auth"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/utils"
)

const principalKey = "principal"

// AttachJWTLocals turns verified claims into the auth.Principal handlers pass
// to services.
func AttachJWTLocals() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals("claims").(*utils.Claims)
		if !ok || claims == nil {
			return apperr.Unauthorized("authentication required")
		}

		uid, err := uuid.Parse(strings.TrimSpace(claims.UserID))
		if err != nil {
			return apperr.Unauthorized("invalid session")
		}
		role := models.Role(strings.ToLower(strings.TrimSpace(claims.Role)))
		if !role.Valid() {
			return apperr.Unauthorized("invalid session")
		}

		p := auth.Principal{UserID: uid, Role: role, IsApproved: claims.Approved || role != models.RoleFreelancer}
		c.Locals(principalKey, p)
		c.Locals("userId", uid.String())
		c.Locals("role", string(role))
		return c.Next()
	}
}

// PrincipalFrom returns the caller attached by AttachJWTLocals, or the zero
// Principal for anonymous requests.
func PrincipalFrom(c *fiber.Ctx) auth.Principal {
	p, _ := c.Locals(principalKey).(auth.Principal)
	return p
}
