package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetdesk/asset-backend/internal/models"
	"github.com/assetdesk/asset-backend/pkg/jwt"
)

type userMap map[uuid.UUID]*models.User

func (m userMap) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return m[id], nil
}

func setupTestJWTService() *jwt.Service {
	return jwt.NewService(
		"test-access-secret-key-123456789",
		"test-refresh-secret-key-123456789",
		time.Hour,
		24*time.Hour,
	)
}

func testLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func newUser(role models.UserType, passwordUpdated bool) *models.User {
	return &models.User{
		ID:                uuid.New(),
		Username:          "binhnv",
		Type:              role,
		Location:          models.LocationHCM,
		IsActive:          true,
		IsPasswordUpdated: passwordUpdated,
	}
}

func tokenFor(t *testing.T, svc *jwt.Service, u *models.User) string {
	t.Helper()
	token, err := svc.GenerateAccessToken(jwt.Identity{
		UserID:          u.ID,
		Username:        u.Username,
		Role:            string(u.Type),
		Location:        string(u.Location),
		PasswordUpdated: u.IsPasswordUpdated,
	})
	require.NoError(t, err)
	return token
}

func get(router *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthChain_Success(t *testing.T) {
	jwtService := setupTestJWTService()
	user := newUser(models.UserTypeAdmin, true)
	users := userMap{user.ID: user}

	router := setupTestRouter()
	router.GET("/protected",
		AuthMiddleware(jwtService, testLogger()),
		ResolveCaller(users, testLogger()),
		RequirePasswordUpdated(),
		RequireRole(models.UserTypeAdmin),
		func(c *gin.Context) {
			caller := MustGetCaller(c)
			c.JSON(http.StatusOK, gin.H{"user_id": caller.UserID, "location": caller.Location})
		})

	w := get(router, "/protected", tokenFor(t, jwtService, user))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), user.ID.String())
	assert.Contains(t, w.Body.String(), "HCM")
}

func TestAuthMiddleware_MissingAuthHeader(t *testing.T) {
	jwtService := setupTestJWTService()
	router := setupTestRouter()
	router.GET("/protected", AuthMiddleware(jwtService, testLogger()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "should not reach here"})
	})

	w := get(router, "/protected", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Authorization header is required")
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestAuthMiddleware_InvalidAuthFormat(t *testing.T) {
	jwtService := setupTestJWTService()
	router := setupTestRouter()
	router.GET("/protected", AuthMiddleware(jwtService, testLogger()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "should not reach here"})
	})

	tests := []struct {
		name   string
		header string
	}{
		{"Missing Bearer", "some-token"},
		{"Wrong prefix", "Basic some-token"},
		{"Empty Bearer", "Bearer "},
		{"No token", "Bearer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/protected", nil)
			req.Header.Set("Authorization", tt.header)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "INVALID_AUTH_FORMAT")
		})
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	jwtService := setupTestJWTService()
	router := setupTestRouter()
	router.GET("/protected", AuthMiddleware(jwtService, testLogger()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "should not reach here"})
	})

	for _, token := range []string{"invalid.token.here", "randomstringnotavalidtoken"} {
		w := get(router, "/protected", token)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		body := w.Body.String()
		assert.True(t, strings.Contains(body, "INVALID_TOKEN") || strings.Contains(body, "TOKEN_EXPIRED"), body)
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	jwtService := jwt.NewService(
		"test-access-secret-key-123456789",
		"test-refresh-secret-key-123456789",
		-time.Minute,
		24*time.Hour,
	)
	token := tokenFor(t, jwtService, newUser(models.UserTypeStaff, true))

	router := setupTestRouter()
	router.GET("/protected", AuthMiddleware(jwtService, testLogger()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "should not reach here"})
	})

	w := get(router, "/protected", token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TOKEN_EXPIRED")
}

func TestAuthMiddleware_WrongSecretOrType(t *testing.T) {
	jwtService := setupTestJWTService()
	wrongService := jwt.NewService("wrong-secret-key", "wrong-refresh-secret", time.Hour, 24*time.Hour)
	user := newUser(models.UserTypeStaff, true)

	refresh, err := jwtService.GenerateRefreshToken(user.ID, user.Username)
	require.NoError(t, err)

	router := setupTestRouter()
	router.GET("/protected", AuthMiddleware(jwtService, testLogger()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "should not reach here"})
	})

	for _, token := range []string{tokenFor(t, wrongService, user), refresh} {
		w := get(router, "/protected", token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
	}
}

func TestResolveCaller_DisabledOrMissingUser(t *testing.T) {
	jwtService := setupTestJWTService()
	disabled := newUser(models.UserTypeStaff, true)
	disabled.IsActive = false
	ghost := newUser(models.UserTypeStaff, true)
	users := userMap{disabled.ID: disabled}

	router := setupTestRouter()
	router.GET("/protected", AuthMiddleware(jwtService, testLogger()), ResolveCaller(users, testLogger()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "should not reach here"})
	})

	for _, u := range []*models.User{disabled, ghost} {
		w := get(router, "/protected", tokenFor(t, jwtService, u))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "ACCOUNT_DISABLED")
	}
}

func TestResolveCaller_UsesStoredRole(t *testing.T) {
	jwtService := setupTestJWTService()
	user := newUser(models.UserTypeAdmin, true)
	token := tokenFor(t, jwtService, user)

	// Demoted after the token was issued
	demoted := *user
	demoted.Type = models.UserTypeStaff
	users := userMap{user.ID: &demoted}

	router := setupTestRouter()
	router.GET("/admin", AuthMiddleware(jwtService, testLogger()), ResolveCaller(users, testLogger()), RequireRole(models.UserTypeAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "should not reach here"})
	})

	w := get(router, "/admin", token)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "INSUFFICIENT_PERMISSIONS")
}

func TestRequirePasswordUpdated(t *testing.T) {
	jwtService := setupTestJWTService()
	fresh := newUser(models.UserTypeStaff, false)
	users := userMap{fresh.ID: fresh}

	router := setupTestRouter()
	chain := []gin.HandlerFunc{AuthMiddleware(jwtService, testLogger()), ResolveCaller(users, testLogger())}
	router.GET("/assignments", append(chain, RequirePasswordUpdated(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "should not reach here"})
	})...)
	router.POST("/change-password", append(chain, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})...)

	token := tokenFor(t, jwtService, fresh)
	w := get(router, "/assignments", token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "PASSWORD_CHANGE_REQUIRED")

	req := httptest.NewRequest("POST", "/change-password", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole_NoCaller(t *testing.T) {
	router := setupTestRouter()
	router.GET("/no-auth", RequireRole(models.UserTypeAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "should not reach here"})
	})

	w := get(router, "/no-auth", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "MISSING_USER_CONTEXT")
}

func TestGetCaller(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Context exists", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		expected := models.Caller{UserID: uuid.New(), Role: models.UserTypeStaff, Location: models.LocationDN}
		c.Set(CallerContextKey, expected)

		caller, ok := GetCaller(c)
		assert.True(t, ok)
		assert.Equal(t, expected, caller)
		assert.NotPanics(t, func() { MustGetCaller(c) })
	})

	t.Run("Context wrong type", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set(CallerContextKey, "wrong type")

		caller, ok := GetCaller(c)
		assert.False(t, ok)
		assert.Equal(t, models.Caller{}, caller)
		assert.Panics(t, func() { MustGetCaller(c) })
	})
}
