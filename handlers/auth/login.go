package auth

import (
	"strings"

	"github.com/campusconnect/api/model"
	authutil "github.com/campusconnect/api/utils/auth"
	"github.com/campusconnect/api/utils/response"
	"github.com/gofiber/fiber/v2"
)

// LoginRequest represents a user login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles user login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return response.BadRequest(c, "Email and password are required")
	}

	var user model.User
	if err := h.db.WithContext(c.UserContext()).Where("email = ?", req.Email).First(&user).Error; err != nil {
		h.recordFailure(c)
		return response.Unauthorized(c, "Invalid email or password")
	}

	if err := authutil.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		h.recordFailure(c)
		return response.Unauthorized(c, "Invalid email or password")
	}

	if h.bruteForceProtection != nil {
		h.bruteForceProtection.RecordSuccessfulAttempt(c)
	}

	tokens, err := h.issueTokens(&user)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate tokens")
	}
	tokens.User = toUserResponse(&user)

	return response.Success(c, tokens)
}

func (h *AuthHandler) recordFailure(c *fiber.Ctx) {
	if h.bruteForceProtection == nil {
		return
	}
	if err := h.bruteForceProtection.RecordFailedAttempt(c); err != nil {
		h.log.Warn("failed to record login failure", "ip", c.IP(), "error", err)
	}
}
