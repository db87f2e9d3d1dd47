package handlers

import (
	"net"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/asoud-market/asoud_api/dto"
	"github.com/asoud-market/asoud_api/shared"
)

type AuthHandler struct {
	authSvc AuthServiceInterface
}

func NewAuthHandler(authSvc AuthServiceInterface) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// @Summary Login
// @Description Authenticate with mobile number and password, returns the bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param loginRequest body dto.LoginRequest true "Login credentials"
// @Success 200 {object} shared.Response{data=dto.LoginResponse}
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	if err := req.Validate(); err != nil {
		return shared.NewBadRequestError(err, "Validation failed")
	}

	resp, err := h.authSvc.Login(req, clientIP(c))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Login successful", resp)
}

// @Summary Logout
// @Description Revoke the caller's bearer token
// @Tags auth
// @Produce json
// @Param Authorization header string true "Token <key>"
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Token" {
		return shared.NewUnauthorizedError("invalid_token", "Invalid token.")
	}

	if err := h.authSvc.Logout(parts[1]); err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Logged out successfully", nil)
}

func clientIP(c *fiber.Ctx) string {
	forwarded := c.Get(fiber.HeaderXForwardedFor)
	if forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}

	ip, _, err := net.SplitHostPort(c.Context().RemoteAddr().String())
	if err != nil {
		return c.IP()
	}
	return ip
}
