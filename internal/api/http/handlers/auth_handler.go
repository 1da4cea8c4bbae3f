package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/kdh92417/team-tasks/internal/api/dto"
	"github.com/kdh92417/team-tasks/internal/auth"
	"github.com/kdh92417/team-tasks/internal/service"
	apperrors "github.com/kdh92417/team-tasks/pkg/util"
)

// AuthHandler handles login and logout.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler creates a handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, tokenString, token, err := h.service.Login(c.UserContext(), req.UserName, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AuthResponse{
		Token:     tokenString,
		ExpiresAt: token.ExpiresAt,
		UserID:    user.ID,
		TeamID:    user.TeamID,
	}})
}

// Logout POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.service.Logout(c.UserContext(), principal.Token); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
