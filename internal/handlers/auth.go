package handlers

import (
	"github.com/gofiber/fiber/v2"

	"kobopay/internal/services/auth"
	"kobopay/internal/utils"
)

// AuthHandler signs operators in to the admin surface.
type AuthHandler struct {
	authService auth.Service
}

func NewAuthHandler(authService auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input loginRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if input.Email == "" || input.Password == "" {
		return utils.BadRequest(c, "email and password are required")
	}

	op, token, err := h.authService.Login(c.Context(), input.Email, input.Password)
	if err != nil {
		return utils.Unauthorized(c, "invalid credentials")
	}

	return utils.Success(c, fiber.Map{
		"token": token,
		"operator": fiber.Map{
			"id":    op.ID,
			"email": op.Email,
			"role":  op.Role,
		},
	})
}
