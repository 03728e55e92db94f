package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/auth"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/referral"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/wallet"
)

// ReferralHandler serves referral codes and the reward wallet they pay into.
type ReferralHandler struct {
	Referrals *referral.Service
	Wallet    *wallet.WalletService
}

func NewReferralHandler(r *referral.Service, w *wallet.WalletService) *ReferralHandler {
	return &ReferralHandler{Referrals: r, Wallet: w}
}

func (h *ReferralHandler) Code(c *fiber.Ctx) error {
	code, err := h.Referrals.Code(c.UserContext(), principal(c))
	if err != nil {
		return err
	}
	return ok(c, "", fiber.Map{"referral_code": code})
}

func (h *ReferralHandler) List(c *fiber.Ctx) error {
	sum, err := h.Referrals.List(c.UserContext(), principal(c))
	if err != nil {
		return err
	}
	return ok(c, "", sum)
}

func (h *ReferralHandler) WalletSummary(c *fiber.Ctx) error {
	p := principal(c)
	if err := p.Require(auth.Everyone...); err != nil {
		return err
	}
	ctx := c.UserContext()
	balance, err := h.Wallet.Balance(ctx, p.UserID)
	if err != nil {
		return apperr.Internal("failed to load balance", err)
	}
	history, err := h.Wallet.History(ctx, p.UserID, queryInt(c, "limit", 50))
	if err != nil {
		return apperr.Internal("failed to load wallet history", err)
	}
	return ok(c, "", fiber.Map{"balance": balance, "transactions": history})
}
