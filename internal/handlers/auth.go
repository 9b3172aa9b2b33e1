package handlers

import (
	"dcip/internal/models"
	"dcip/internal/services/auth"
	"dcip/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService auth.Service
}

func NewAuthHandler(authService auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RequestOTP mails a registration code to an unregistered email.
func (h *AuthHandler) RequestOTP(c *fiber.Ctx) error {
	var input models.OTPRequestInput
	if err := utils.BindJSON(c, &input); err != nil {
		return err
	}

	expiresAt, err := h.authService.RequestRegistrationOTP(c.UserContext(), input.Email)
	if err != nil {
		return err
	}
	return utils.Success(c, "OTP sent", fiber.Map{"expires_at": expiresAt})
}

func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var input models.OTPVerifyInput
	if err := utils.BindJSON(c, &input); err != nil {
		return err
	}

	if err := h.authService.VerifyRegistrationOTP(c.UserContext(), input.Email, input.Code); err != nil {
		return err
	}
	return utils.Success(c, "email verified", nil)
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input models.CreateUserInput
	if err := utils.BindJSON(c, &input); err != nil {
		return err
	}

	result, err := h.authService.Register(c.UserContext(), input)
	if err != nil {
		return err
	}
	return utils.Created(c, "registration successful", result)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input models.LoginInput
	if err := utils.BindJSON(c, &input); err != nil {
		return err
	}

	result, err := h.authService.Login(c.UserContext(), input)
	if err != nil {
		return err
	}
	return utils.Success(c, "login successful", result)
}

func (h *AuthHandler) EmployeeLogin(c *fiber.Ctx) error {
	var input models.LoginInput
	if err := utils.BindJSON(c, &input); err != nil {
		return err
	}

	result, err := h.authService.EmployeeLogin(c.UserContext(), input)
	if err != nil {
		return err
	}
	return utils.Success(c, "login successful", result)
}

// Me returns the identity resolved by the auth middleware.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	p, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}
	return utils.Success(c, "", p)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	p, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}

	if err := h.authService.Logout(c.UserContext(), p); err != nil {
		return err
	}
	return utils.Success(c, "logged out", nil)
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	p, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}
	var input models.ChangePasswordInput
	if err := utils.BindJSON(c, &input); err != nil {
		return err
	}

	if err := h.authService.ChangePassword(c.UserContext(), p, input); err != nil {
		return err
	}
	return utils.Success(c, "password changed, please log in again", nil)
}
