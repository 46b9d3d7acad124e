package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/assetdesk/asset-backend/internal/apperrors"
	"github.com/assetdesk/asset-backend/internal/models"
	"github.com/assetdesk/asset-backend/pkg/jwt"
)

const msgInvalidCredentials = "Username or password is incorrect. Please try again"

// TokenIssuer is the part of jwt.Service the auth flow needs
type TokenIssuer interface {
	GenerateAccessToken(id jwt.Identity) (string, error)
	GenerateRefreshToken(userID uuid.UUID, username string) (string, error)
	ValidateRefreshToken(token string) (*jwt.Claims, error)
	AccessTokenExpiry() time.Duration
	RefreshTokenExpiry() time.Duration
}

// LoginThrottle is satisfied by RateLimitService
type LoginThrottle interface {
	CheckLogin(username, ip string) error
	RecordFailure(username, ip string)
	Reset(username string)
}

// ClientInfo describes where a login came from
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// AuthService handles user authentication
type AuthService struct {
	users      UserStore
	tokens     RefreshTokenStore
	issuer     TokenIssuer
	throttle   LoginThrottle
	clock      Clock
	bcryptCost int
	logger     logrus.FieldLogger
}

// NewAuthService creates the auth service. throttle may be nil.
func NewAuthService(users UserStore, tokens RefreshTokenStore, issuer TokenIssuer, throttle LoginThrottle, clock Clock, bcryptCost int, logger logrus.FieldLogger) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:      users,
		tokens:     tokens,
		issuer:     issuer,
		throttle:   throttle,
		clock:      clock,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest, client ClientInfo) (*models.LoginResponse, error) {
	username := strings.TrimSpace(req.Username)
	if s.throttle != nil {
		if err := s.throttle.CheckLogin(username, client.IPAddress); err != nil {
			s.logger.WithFields(logrus.Fields{"username": username, "ip": client.IPAddress}).Warn("Login throttled")
			return nil, apperrors.TooManyRequests(err.Error())
		}
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	// Unknown and disabled users get the same answer as a wrong password
	if user == nil || !user.IsActive {
		s.loginFailed(username, client)
		return nil, apperrors.Unauthorized(msgInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.loginFailed(username, client)
		return nil, apperrors.Unauthorized(msgInvalidCredentials)
	}
	if s.throttle != nil {
		s.throttle.Reset(username)
	}

	refreshToken, err := s.issuer.GenerateRefreshToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	expiresAt := s.clock.Now().Add(s.issuer.RefreshTokenExpiry())
	if err := s.tokens.Store(ctx, user.ID, refreshToken, client.IPAddress, client.UserAgent, expiresAt); err != nil {
		return nil, err
	}

	resp, err := s.respond(user, refreshToken)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"user_id": user.ID, "ip": client.IPAddress}).Info("User logged in")
	return resp, nil
}

func (s *AuthService) loginFailed(username string, client ClientInfo) {
	if s.throttle != nil {
		s.throttle.RecordFailure(username, client.IPAddress)
	}
}

// Refresh issues a new access token for a stored, unrevoked refresh token.
// Role and location are re-read so that changes apply on the next refresh.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.LoginResponse, error) {
	claims, err := s.issuer.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized("Invalid refresh token")
	}

	stored, err := s.tokens.Get(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if stored == nil || stored.UserID != claims.UserID || !stored.Usable(s.clock.Now()) {
		return nil, apperrors.Unauthorized("Refresh token has been revoked or has expired")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, apperrors.Unauthorized("Account is disabled")
	}

	if err := s.tokens.Touch(ctx, refreshToken); err != nil {
		s.logger.WithError(err).Warn("Failed to update refresh token usage")
	}
	return s.respond(user, refreshToken)
}

// Logout revokes a refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.tokens.Revoke(ctx, refreshToken)
}

// ChangePassword replaces the caller's password. The old password is not asked
// for on the forced first-login change.
func (s *AuthService) ChangePassword(ctx context.Context, caller models.Caller, req models.ChangePasswordRequest) error {
	user, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil {
		return err
	}
	if user == nil || !user.IsActive {
		return apperrors.NotFound("User not found")
	}

	var errs apperrors.FieldErrors
	validateStruct(req, &errs)
	if user.IsPasswordUpdated {
		if req.OldPassword == "" {
			errs.Add("oldPassword", "oldPassword is required")
		} else if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
			errs.Add("oldPassword", "Password is incorrect")
		}
	}
	if !errs.Has("newPassword") && bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.NewPassword)) == nil {
		errs.Add("newPassword", "New password must be different from the current password")
	}
	if err := errs.Err(); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return apperrors.Validation(apperrors.FieldError{Field: "newPassword", Message: "newPassword is too long"})
		}
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return err
	}

	s.logger.WithField("user_id", user.ID).Info("Password changed")
	return nil
}

func (s *AuthService) respond(user *models.User, refreshToken string) (*models.LoginResponse, error) {
	accessToken, err := s.issuer.GenerateAccessToken(jwt.Identity{
		UserID:          user.ID,
		Username:        user.Username,
		Role:            string(user.Type),
		Location:        string(user.Location),
		PasswordUpdated: user.IsPasswordUpdated,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &models.LoginResponse{
		AccessToken:       accessToken,
		RefreshToken:      refreshToken,
		ExpiresIn:         int64(s.issuer.AccessTokenExpiry().Seconds()),
		IsPasswordUpdated: user.IsPasswordUpdated,
		User:              user,
	}, nil
}
