package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/campusconnect/api/model"
	"github.com/campusconnect/api/utils"
	authutil "github.com/campusconnect/api/utils/auth"
	"github.com/campusconnect/api/utils/middleware"
	"github.com/campusconnect/api/utils/response"
	"github.com/campusconnect/api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	db                   *gorm.DB
	validator            *validation.Validator
	jwtManager           *authutil.JWTManager
	hasher               *authutil.Hasher
	blacklistService     *authutil.BlacklistService
	bruteForceProtection *middleware.BruteForceProtection
	log                  *utils.Logger
}

// NewAuthHandler creates a new auth handler. bruteForceProtection may be nil.
func NewAuthHandler(db *gorm.DB, jwtManager *authutil.JWTManager, hasher *authutil.Hasher, blacklist *authutil.BlacklistService,
	bruteForceProtection *middleware.BruteForceProtection, log *utils.Logger) *AuthHandler {
	return &AuthHandler{
		db:                   db,
		validator:            validation.NewValidator(),
		jwtManager:           jwtManager,
		hasher:               hasher,
		blacklistService:     blacklist,
		bruteForceProtection: bruteForceProtection,
		log:                  log,
	}
}

// RegisterRequest represents a user registration request. There is no role
// field: every self-registered account is a student.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=320"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
}

// TokenResponse carries a token pair
type TokenResponse struct {
	User         *UserResponse `json:"user,omitempty"`
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int           `json:"expires_in"` // in seconds
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toUserResponse(u *model.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Register handles user registration
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	req.Email = strings.ToLower(validation.SanitizeString(req.Email))
	req.Name = validation.SanitizeString(req.Name)
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, "Email, password, and name are required", validation.FormatValidationErrors(err))
	}

	var existing int64
	if err := h.db.WithContext(c.UserContext()).Model(&model.User{}).Where("email = ?", req.Email).Count(&existing).Error; err != nil {
		return response.InternalServerError(c, "Failed to create user")
	}
	if existing > 0 {
		return response.Conflict(c, "User with this email already exists")
	}

	hashedPassword, err := h.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, authutil.ErrPasswordTooShort) {
			return response.BadRequest(c, "Password must be at least 8 characters long")
		}
		return response.InternalServerError(c, "Failed to process password")
	}

	user := model.User{
		Email:        req.Email,
		PasswordHash: hashedPassword,
		Name:         req.Name,
		Role:         model.RoleStudent,
	}
	if err := h.db.WithContext(c.UserContext()).Create(&user).Error; err != nil {
		h.log.Error("failed to create user", "error", err)
		return response.InternalServerError(c, "Failed to create user")
	}

	tokens, err := h.issueTokens(&user)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate tokens")
	}
	tokens.User = toUserResponse(&user)

	h.log.Info("user registered", "user_id", user.ID)
	return response.Created(c, "Account created", tokens)
}

func (h *AuthHandler) issueTokens(user *model.User) (*TokenResponse, error) {
	accessToken, _, err := h.jwtManager.GenerateAccessToken(user.ID, user.Email, user.Role, user.TokenVersion)
	if err != nil {
		return nil, err
	}
	refreshToken, _, err := h.jwtManager.GenerateRefreshToken(user.ID, user.Email, user.Role, user.TokenVersion)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(h.jwtManager.AccessExpiry().Seconds()),
	}, nil
}
