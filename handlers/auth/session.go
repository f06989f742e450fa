package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/ucmsdev/ucms-api/utils/middleware"
	"github.com/ucmsdev/ucms-api/utils/response"
)

// Me returns the authenticated principal
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}
	return response.Success(c, toUserResponse(user))
}

// Logout acknowledges a logout. Tokens are stateless; the client discards
// them and they age out at expiry.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if _, ok := middleware.GetUser(c); !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	return response.SuccessWithMessage(c, "Logged out successfully", nil)
}

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshToken exchanges a valid refresh token for a new access token
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.RefreshToken == "" {
		return response.BadRequest(c, "Refresh token is required")
	}

	accessToken, err := h.jwtManager.RefreshAccessToken(req.RefreshToken)
	if err != nil {
		return response.Unauthorized(c, "Invalid refresh token")
	}

	return response.Success(c, fiber.Map{
		"access_token": accessToken,
		"expires_in":   24 * 60 * 60,
	})
}
