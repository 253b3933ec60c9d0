package middleware_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/campusconnect/api/database/dbtest"
	"github.com/campusconnect/api/model"
	"github.com/campusconnect/api/utils/auth"
	"github.com/campusconnect/api/utils/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type revocations struct {
	revoked bool
	err     error
}

func (r revocations) IsTokenRevoked(context.Context, string) (bool, error) {
	return r.revoked, r.err
}

func optionalApp(t *testing.T, db *gorm.DB, jwt *auth.JWTManager, rev middleware.Revocations) *fiber.App {
	t.Helper()
	app := fiber.New()
	app.Get("/whoami", middleware.NewAuthMiddleware(jwt, rev, db).Optional(), func(c *fiber.Ctx) error {
		if user, ok := middleware.GetUser(c); ok {
			return c.SendString(user.Email)
		}
		return c.SendString("anonymous")
	})
	return app
}

func call(t *testing.T, app *fiber.App, token string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestOptional(t *testing.T) {
	db := dbtest.New(t)
	jwt := auth.NewJWTManager(auth.JWTConfig{Secret: "test-secret"})

	user := model.User{Email: "student@example.com", PasswordHash: "x", Name: "Student", Role: model.RoleStudent}
	require.NoError(t, db.Create(&user).Error)
	token, _, err := jwt.GenerateAccessToken(user.ID, user.Email, user.Role, user.TokenVersion)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		rev    revocations
		status int
		body   string
	}{
		{"no token", "", revocations{}, fiber.StatusOK, "anonymous"},
		{"valid token", token, revocations{}, fiber.StatusOK, "student@example.com"},
		{"garbage token", "not-a-jwt", revocations{}, fiber.StatusOK, "anonymous"},
		{"revoked token", token, revocations{revoked: true}, fiber.StatusOK, "anonymous"},
		{"revocation store down", token, revocations{err: errors.New("redis down")}, fiber.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := call(t, optionalApp(t, db, jwt, tt.rev), tt.token)
			assert.Equal(t, tt.status, status)
			if tt.body != "" {
				assert.Equal(t, tt.body, body)
			} else {
				assert.Contains(t, body, "Failed to check token status")
			}
		})
	}
}

func TestOptional_UserStoreDown(t *testing.T) {
	db := dbtest.New(t)
	jwt := auth.NewJWTManager(auth.JWTConfig{Secret: "test-secret"})

	user := model.User{Email: "student@example.com", PasswordHash: "x", Name: "Student", Role: model.RoleStudent}
	require.NoError(t, db.Create(&user).Error)
	token, _, err := jwt.GenerateAccessToken(user.ID, user.Email, user.Role, user.TokenVersion)
	require.NoError(t, err)
	require.NoError(t, db.Migrator().DropTable(&model.User{}))

	status, body := call(t, optionalApp(t, db, jwt, revocations{}), token)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Contains(t, body, "Failed to load user")
}
