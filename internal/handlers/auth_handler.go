package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/assetdesk/asset-backend/internal/middleware"
	"github.com/assetdesk/asset-backend/internal/models"
	"github.com/assetdesk/asset-backend/internal/response"
	"github.com/assetdesk/asset-backend/internal/services"
	"github.com/assetdesk/asset-backend/internal/utils"
)

// AuthHandler handles authentication HTTP requests
type AuthHandler struct {
	auth   AuthUsecase
	audit  AuditRecorder
	logger logrus.FieldLogger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth AuthUsecase, audit AuditRecorder, logger logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{auth: auth, audit: audit, logger: logger}
}

// Login handles login requests
// @Summary Login
// @Description Authenticate with username and password and return access and refresh tokens
// @Tags Auth
// @Accept json
// @Produce json
// @Param loginRequest body models.LoginRequest true "Login credentials"
// @Success 200 {object} response.Envelope{data=models.LoginResponse}
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	client := services.ClientInfo{IPAddress: utils.ClientIP(c), UserAgent: utils.UserAgent(c)}
	resp, err := h.auth.Login(c.Request.Context(), req, client)
	if err != nil {
		h.logger.WithFields(logrus.Fields{"username": req.Username, "ip": client.IPAddress}).Warn("Login failed")
		if h.audit != nil {
			event := auditEvent(c, services.ActionLoginFailed, "user", nil)
			event.Details = map[string]interface{}{"username": req.Username}
			h.audit.Record(c.Request.Context(), event)
		}
		response.Error(c, h.logger, err)
		return
	}

	if h.audit != nil {
		event := auditEvent(c, services.ActionLogin, "user", idRef(resp.User.ID))
		event.UserID = idRef(resp.User.ID)
		h.audit.Record(c.Request.Context(), event)
	}
	response.OK(c, "Login successful", resp)
}

// Refresh handles token refresh requests
// @Summary Refresh access token
// @Description Generate a new access token using a refresh token
// @Tags Auth
// @Accept json
// @Produce json
// @Param refreshRequest body models.RefreshRequest true "Refresh token"
// @Success 200 {object} response.Envelope{data=models.LoginResponse}
// @Failure 401 {object} response.Envelope
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req models.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, "Token refreshed", resp)
}

// Logout handles logout requests
// @Summary Logout
// @Description Revoke the refresh token
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param refreshRequest body models.RefreshRequest true "Refresh token"
// @Success 200 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	var req models.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.auth.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		response.Error(c, h.logger, err)
		return
	}

	recordAudit(c, h.audit, services.ActionLogout, "user", nil)
	response.OK(c, "Logged out successfully", nil)
}

// ChangePassword handles password change requests
// @Summary Change password
// @Description Change the caller's password. The old password is not required on the first change.
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param changePasswordRequest body models.ChangePasswordRequest true "Password change request"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	caller := middleware.MustGetCaller(c)

	var req models.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.auth.ChangePassword(c.Request.Context(), caller, req); err != nil {
		response.Error(c, h.logger, err)
		return
	}

	recordAudit(c, h.audit, services.ActionPasswordChange, "user", idRef(caller.UserID))
	response.OK(c, "Password changed successfully", nil)
}
