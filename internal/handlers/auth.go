package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/middleware"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/users"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/utils"
)

type AuthHandler struct {
	Users         *users.Service
	JWTSecret     string
	Expires       int
	SecureCookies bool
}

type RegisterReq struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Role         string `json:"role"`
	ReferralCode string `json:"referral_code"`
}

type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterReq
	if err := parseBody(c, &req); err != nil {
		return err
	}

	u, err := h.Users.Register(c.UserContext(), users.RegisterInput{
		Email:        req.Email,
		Password:     req.Password,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         models.Role(req.Role),
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		return err
	}
	if err := h.setSession(c, u); err != nil {
		return err
	}
	return created(c, "Registration successful", fiber.Map{"user": userView(u)})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	if err := parseBody(c, &req); err != nil {
		return err
	}

	u, err := h.Users.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	if err := h.setSession(c, u); err != nil {
		return err
	}
	return ok(c, "Login successful", fiber.Map{"user": userView(u)})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   h.SecureCookies,
		SameSite: "Lax",
	})
	return ok(c, "Logout successful", nil)
}

// Me returns the caller and re-issues the session so role and approval
// changes reach the token.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	u, err := h.Users.Me(c.UserContext(), principal(c))
	if err != nil {
		return err
	}
	if err := h.setSession(c, u); err != nil {
		return err
	}
	return ok(c, "", fiber.Map{"user": userView(u)})
}

type ProfileReq struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	var req ProfileReq
	if err := parseBody(c, &req); err != nil {
		return err
	}
	u, err := h.Users.UpdateProfile(c.UserContext(), principal(c), users.ProfileInput{FirstName: req.FirstName, LastName: req.LastName})
	if err != nil {
		return err
	}
	return ok(c, "Profile updated", fiber.Map{"user": userView(u)})
}

func (h *AuthHandler) setSession(c *fiber.Ctx, u *models.User) error {
	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.Role), u.IsApproved, h.Expires)
	if err != nil {
		return apperr.Internal("failed to sign token", err)
	}
	c.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.SecureCookies,
		SameSite: "Lax",
		MaxAge:   h.Expires * 60,
	})
	return nil
}

func userView(u *models.User) fiber.Map {
	return fiber.Map{
		"id":             u.ID,
		"email":          u.Email,
		"first_name":     u.FirstName,
		"last_name":      u.LastName,
		"role":           u.Role,
		"is_approved":    u.IsApproved,
		"referral_code":  u.ReferralCode,
		"reward_balance": u.RewardBalance,
	}
}
