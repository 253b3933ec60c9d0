package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/campusconnect/api/model"
	"github.com/campusconnect/api/utils/auth"
	"github.com/campusconnect/api/utils/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Revocations reports whether a token id has been revoked
type Revocations interface {
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// AuthMiddleware handles JWT authentication
type AuthMiddleware struct {
	jwtManager  *auth.JWTManager
	revocations Revocations
	db          *gorm.DB
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *auth.JWTManager, revocations Revocations, db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager:  jwtManager,
		revocations: revocations,
		db:          db,
	}
}

// authFailure carries the response for a rejected token
type authFailure struct {
	status  int
	message string
}

func (m *AuthMiddleware) authenticate(c *fiber.Ctx) (*auth.Claims, *model.User, *authFailure) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return nil, nil, &authFailure{fiber.StatusUnauthorized, "Missing authorization token"}
	}

	// Extract token from "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, nil, &authFailure{fiber.StatusUnauthorized, "Invalid authorization format"}
	}

	claims, err := m.jwtManager.ValidateToken(parts[1])
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, nil, &authFailure{fiber.StatusUnauthorized, "Token has expired"}
		}
		return nil, nil, &authFailure{fiber.StatusUnauthorized, "Invalid token"}
	}

	if claims.TokenType != auth.TokenTypeAccess {
		return nil, nil, &authFailure{fiber.StatusUnauthorized, "Invalid token type"}
	}

	isRevoked, err := m.revocations.IsTokenRevoked(c.UserContext(), claims.ID)
	if err != nil {
		return nil, nil, &authFailure{fiber.StatusInternalServerError, "Failed to check token status"}
	}
	if isRevoked {
		return nil, nil, &authFailure{fiber.StatusUnauthorized, "Token has been revoked"}
	}

	// Load user from database and verify token version
	var user model.User
	if err := m.db.WithContext(c.UserContext()).First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, &authFailure{fiber.StatusUnauthorized, "User not found"}
		}
		return nil, nil, &authFailure{fiber.StatusInternalServerError, "Failed to load user"}
	}

	if user.TokenVersion != claims.TokenVersion {
		return nil, nil, &authFailure{fiber.StatusUnauthorized, "Token has been invalidated"}
	}

	return claims, &user, nil
}

func (f *authFailure) send(c *fiber.Ctx) error {
	if f.status == fiber.StatusInternalServerError {
		return response.InternalServerError(c, f.message)
	}
	return response.Unauthorized(c, f.message)
}

func setLocals(c *fiber.Ctx, claims *auth.Claims, user *model.User) {
	c.Locals("user_id", claims.UserID)
	c.Locals("user_role", claims.Role)
	c.Locals("claims", claims)
	c.Locals("user", user)
}

// Required is middleware that requires a valid JWT token
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, user, failure := m.authenticate(c)
		if failure != nil {
			return failure.send(c)
		}
		setLocals(c, claims, user)
		return c.Next()
	}
}

// Optional is middleware that allows requests with or without a token. An
// invalid token is treated as no token; handlers decide what anonymous
// callers may do. Failures to reach the revocation list or the user store
// are returned as server errors.
func (m *AuthMiddleware) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) == "" {
			return c.Next()
		}
		claims, user, failure := m.authenticate(c)
		if failure != nil {
			if failure.status == fiber.StatusInternalServerError {
				return failure.send(c)
			}
			return c.Next()
		}
		setLocals(c, claims, user)
		return c.Next()
	}
}

// RequireAdmin authenticates the request and requires the admin role in both
// the token claim and the stored user, so a demoted admin loses access
// before their token expires.
func (m *AuthMiddleware) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, user, failure := m.authenticate(c)
		if failure != nil {
			return failure.send(c)
		}

		if claims.Role != model.RoleAdmin || !user.IsAdmin() {
			return response.Forbidden(c, "Admin access required")
		}

		setLocals(c, claims, user)
		return c.Next()
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("user_id").(uint)
	return id, ok
}

// GetUser extracts full user object from context
func GetUser(c *fiber.Ctx) (*model.User, bool) {
	u, ok := c.Locals("user").(*model.User)
	return u, ok
}

// GetClaims extracts full claims from context
func GetClaims(c *fiber.Ctx) (*auth.Claims, bool) {
	claims, ok := c.Locals("claims").(*auth.Claims)
	return claims, ok
}
