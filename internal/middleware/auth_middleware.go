package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/assetdesk/asset-backend/internal/models"
	"github.com/assetdesk/asset-backend/internal/response"
	"github.com/assetdesk/asset-backend/pkg/jwt"
)

// Context keys set by the auth chain
const (
	ClaimsContextKey = "claims"
	CallerContextKey = "caller"
	userContextKey   = "user"
)

// UserLookup loads the account behind a token
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// AuthMiddleware validates the bearer access token and stores its claims
func AuthMiddleware(jwtService *jwt.Service, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.WithFields(logrus.Fields{"path": c.Request.URL.Path, "ip": c.ClientIP()}).Debug("Missing authorization header")
			response.Fail(c, http.StatusUnauthorized, "Authorization header is required", "MISSING_AUTH_HEADER")
			return
		}

		scheme, token, found := strings.Cut(authHeader, " ")
		token = strings.TrimSpace(token)
		if !found || scheme != "Bearer" || token == "" {
			response.Fail(c, http.StatusUnauthorized, "Invalid authorization header format. Expected: Bearer <token>", "INVALID_AUTH_FORMAT")
			return
		}

		claims, err := jwtService.ValidateAccessToken(token)
		if err != nil {
			if jwtService.IsTokenExpired(token) {
				response.Fail(c, http.StatusUnauthorized, "Access token has expired. Please refresh your token.", "TOKEN_EXPIRED")
				return
			}
			logger.WithError(err).WithField("path", c.Request.URL.Path).Warn("Invalid access token")
			response.Fail(c, http.StatusUnauthorized, "Invalid access token", "INVALID_TOKEN")
			return
		}

		c.Set(ClaimsContextKey, claims)
		c.Next()
	}
}

// ResolveCaller loads the token's user and builds the Caller from the stored
// account, so a role or location change applies without a new token
func ResolveCaller(users UserLookup, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			response.Fail(c, http.StatusUnauthorized, "User context not found", "MISSING_USER_CONTEXT")
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Error(c, logger, err)
			return
		}
		if user == nil || !user.IsActive {
			response.Fail(c, http.StatusUnauthorized, "Account is disabled", "ACCOUNT_DISABLED")
			return
		}

		c.Set(userContextKey, user)
		c.Set(CallerContextKey, models.Caller{
			UserID:   user.ID,
			Username: user.Username,
			Role:     user.Type,
			Location: user.Location,
		})
		c.Next()
	}
}

// RequirePasswordUpdated blocks users who still have their generated password
func RequirePasswordUpdated() gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(userContextKey)
		user, ok := value.(*models.User)
		if !exists || !ok {
			response.Fail(c, http.StatusUnauthorized, "User context not found", "MISSING_USER_CONTEXT")
			return
		}
		if !user.IsPasswordUpdated {
			response.Fail(c, http.StatusForbidden, "Please change your password before continuing", "PASSWORD_CHANGE_REQUIRED")
			return
		}
		c.Next()
	}
}

// RequireRole allows only callers whose type is one of roles
func RequireRole(roles ...models.UserType) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := GetCaller(c)
		if !ok {
			response.Fail(c, http.StatusUnauthorized, "User context not found", "MISSING_USER_CONTEXT")
			return
		}
		for _, role := range roles {
			if caller.Role == role {
				c.Next()
				return
			}
		}
		response.Fail(c, http.StatusForbidden, "You don't have permission to access this resource", "INSUFFICIENT_PERMISSIONS")
	}
}

func GetClaims(c *gin.Context) (*jwt.Claims, bool) {
	value, exists := c.Get(ClaimsContextKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*jwt.Claims)
	return claims, ok
}

// GetCaller returns the identity set by ResolveCaller
func GetCaller(c *gin.Context) (models.Caller, bool) {
	value, exists := c.Get(CallerContextKey)
	if !exists {
		return models.Caller{}, false
	}
	caller, ok := value.(models.Caller)
	return caller, ok
}

// MustGetCaller retrieves the caller or panics (use only after ResolveCaller)
func MustGetCaller(c *gin.Context) models.Caller {
	caller, ok := GetCaller(c)
	if !ok {
		panic("caller not found - ensure ResolveCaller is applied")
	}
	return caller
}
