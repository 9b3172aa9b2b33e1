package handlers

import (
	"dcip/internal/models"
	"dcip/internal/services/reset"
	"dcip/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type PasswordResetHandler struct {
	resetService reset.Service
}

func NewPasswordResetHandler(resetService reset.Service) *PasswordResetHandler {
	return &PasswordResetHandler{resetService: resetService}
}

func (h *PasswordResetHandler) SendOTP(c *fiber.Ctx) error {
	var input models.OTPRequestInput
	if err := utils.BindJSON(c, &input); err != nil {
		return err
	}

	expiresAt, err := h.resetService.SendOTP(c.UserContext(), input.Email)
	if err != nil {
		return err
	}
	return utils.Success(c, "OTP sent", fiber.Map{"expires_at": expiresAt})
}

// VerifyOTP exchanges a valid code for the one-time reset token.
func (h *PasswordResetHandler) VerifyOTP(c *fiber.Ctx) error {
	var input models.OTPVerifyInput
	if err := utils.BindJSON(c, &input); err != nil {
		return err
	}

	token, err := h.resetService.VerifyOTP(c.UserContext(), input.Email, input.Code)
	if err != nil {
		return err
	}
	return utils.Success(c, "OTP verified", fiber.Map{"reset_token": token})
}

func (h *PasswordResetHandler) Reset(c *fiber.Ctx) error {
	var input models.ResetPasswordInput
	if err := utils.BindJSON(c, &input); err != nil {
		return err
	}

	if err := h.resetService.Reset(c.UserContext(), input); err != nil {
		return err
	}
	return utils.Success(c, "password has been reset", nil)
}
