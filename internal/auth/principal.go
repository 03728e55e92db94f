package auth

import (
	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
)

// Principal is the authenticated caller every service operation receives.
type Principal struct {
	UserID     uuid.UUID
	Role       models.Role
	IsApproved bool
}

func (p Principal) IsAdmin() bool {
	return p.Role.IsAdmin()
}

func (p Principal) Has(roles ...models.Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// Require fails with Unauthorized for an empty principal and Forbidden for a
// role outside the set.
func (p Principal) Require(roles ...models.Role) error {
	if p.UserID == uuid.Nil {
		return apperr.Unauthorized("authentication required")
	}
	if !p.Has(roles...) {
		return apperr.Forbidden("forbidden: insufficient role")
	}
	return nil
}

var (
	Students    = []models.Role{models.RoleStudent}
	Freelancers = []models.Role{models.RoleFreelancer}
	Admins      = []models.Role{models.RoleAdmin, models.RoleSuperAdmin}
	SuperAdmins = []models.Role{models.RoleSuperAdmin}
	AIUsers     = []models.Role{models.RoleStudent, models.RoleAdmin, models.RoleSuperAdmin}
	Everyone    = []models.Role{models.RoleStudent, models.RoleFreelancer, models.RoleAdmin, models.RoleSuperAdmin}
)
