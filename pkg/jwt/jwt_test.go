package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAccessSecret  = "test-access-secret-key-for-testing-purposes"
	testRefreshSecret = "test-refresh-secret-key-for-testing-purposes"
)

func testIdentity() Identity {
	return Identity{
		UserID:          uuid.New(),
		Username:        "binhnv",
		Role:            "Admin",
		Location:        "HCM",
		PasswordUpdated: true,
	}
}

func TestNewService(t *testing.T) {
	service := NewService(testAccessSecret, testRefreshSecret, time.Hour, 24*time.Hour)

	assert.NotNil(t, service)
	assert.Equal(t, testAccessSecret, service.accessSecret)
	assert.Equal(t, testRefreshSecret, service.refreshSecret)
	assert.Equal(t, time.Hour, service.AccessTokenExpiry())
	assert.Equal(t, 24*time.Hour, service.refreshTokenExpiry)
}

func TestGenerateAccessToken(t *testing.T) {
	service := NewService(testAccessSecret, testRefreshSecret, time.Hour, 24*time.Hour)
	id := testIdentity()

	token, err := service.GenerateAccessToken(id)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := service.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, id.UserID, claims.UserID)
	assert.Equal(t, "binhnv", claims.Username)
	assert.Equal(t, "Admin", claims.Role)
	assert.Equal(t, "HCM", claims.Location)
	assert.True(t, claims.PasswordUpdated)
	assert.Equal(t, AccessToken, claims.TokenType)
	assert.Equal(t, id.UserID.String(), claims.Subject)
}

func TestGenerateRefreshToken(t *testing.T) {
	service := NewService(testAccessSecret, testRefreshSecret, time.Hour, 24*time.Hour)
	userID := uuid.New()

	token, err := service.GenerateRefreshToken(userID, "binhnv")
	require.NoError(t, err)

	claims, err := service.ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, RefreshToken, claims.TokenType)
	assert.Empty(t, claims.Role)
}

func TestValidateToken_WrongType(t *testing.T) {
	service := NewService(testAccessSecret, testAccessSecret, time.Hour, 24*time.Hour)

	refresh, err := service.GenerateRefreshToken(uuid.New(), "binhnv")
	require.NoError(t, err)

	_, err = service.ValidateAccessToken(refresh)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token type")
}

func TestValidateToken_WrongSecret(t *testing.T) {
	service := NewService(testAccessSecret, testRefreshSecret, time.Hour, 24*time.Hour)
	other := NewService("another-secret", testRefreshSecret, time.Hour, 24*time.Hour)

	token, err := other.GenerateAccessToken(testIdentity())
	require.NoError(t, err)

	_, err = service.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	service := NewService(testAccessSecret, testRefreshSecret, -time.Minute, time.Hour)

	token, err := service.GenerateAccessToken(testIdentity())
	require.NoError(t, err)

	_, err = service.ValidateAccessToken(token)
	assert.Error(t, err)
	assert.True(t, service.IsTokenExpired(token))
}

func TestValidateToken_RejectsNoneAlgorithm(t *testing.T) {
	service := NewService(testAccessSecret, testRefreshSecret, time.Hour, 24*time.Hour)
	claims := service.claims(testIdentity(), AccessToken, time.Hour)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = service.ValidateAccessToken(tokenString)
	assert.Error(t, err)
}

func TestIsTokenExpired_Garbage(t *testing.T) {
	service := NewService(testAccessSecret, testRefreshSecret, time.Hour, 24*time.Hour)
	assert.True(t, service.IsTokenExpired("not-a-token"))
}
