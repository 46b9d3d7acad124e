package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/assetdesk/asset-backend/internal/config"
	"github.com/assetdesk/asset-backend/internal/middleware"
	"github.com/assetdesk/asset-backend/internal/models"
	"github.com/assetdesk/asset-backend/internal/response"
	"github.com/assetdesk/asset-backend/internal/services"
)

// UserHandler serves the admin user management endpoints
type UserHandler struct {
	users  UserUsecase
	audit  AuditRecorder
	pages  config.PaginationConfig
	logger logrus.FieldLogger
}

func NewUserHandler(users UserUsecase, audit AuditRecorder, pages config.PaginationConfig, logger logrus.FieldLogger) *UserHandler {
	return &UserHandler{users: users, audit: audit, pages: pages, logger: logger}
}

// List returns a page of the active users in the caller's location
// @Summary List users
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param searchTerm query string false "Matches staff code, name or username"
// @Param sortBy query string false "Sort keys"
// @Param pageNumber query int false "1-based page number"
// @Param pageSize query int false "Page size"
// @Param types query []string false "User types"
// @Success 200 {object} response.Envelope
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	caller := middleware.MustGetCaller(c)

	req := models.UserListRequest{
		ListRequest: listRequest(c, h.pages),
		Types:       queryList(c, "types"),
	}
	page, err := h.users.List(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, "Users retrieved successfully", page)
}

// @Summary Get user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope{data=models.User}
// @Failure 404 {object} response.Envelope
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	caller := middleware.MustGetCaller(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	user, err := h.users.Get(c.Request.Context(), caller, id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, "User retrieved successfully", user)
}

// Create adds a user to the caller's location. The generated password is only
// returned here.
// @Summary Create user
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateUserRequest true "User"
// @Success 201 {object} response.Envelope{data=models.CreatedUser}
// @Failure 400 {object} response.Envelope
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	caller := middleware.MustGetCaller(c)

	var req models.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.Create(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	recordAudit(c, h.audit, services.ActionCreate, "user", idRef(user.ID))
	response.Created(c, "User created successfully", user)
}

// @Summary Update user
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body models.UpdateUserRequest true "Fields to change"
// @Success 200 {object} response.Envelope{data=models.User}
// @Failure 400 {object} response.Envelope
// @Router /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	caller := middleware.MustGetCaller(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req models.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.Update(c.Request.Context(), caller, id, req)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	recordAudit(c, h.audit, services.ActionUpdate, "user", idRef(id))
	response.OK(c, "User updated successfully", user)
}

// CanDisable tells the UI whether to offer the disable action
// @Summary Check whether a user can be disabled
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope{data=bool}
// @Router /users/{id}/can-disable [get]
func (h *UserHandler) CanDisable(c *gin.Context) {
	caller := middleware.MustGetCaller(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	allowed, err := h.users.CanDisable(c.Request.Context(), caller, id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, "", allowed)
}

// Disable deactivates a user without open assignments
// @Summary Disable user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /users/{id} [delete]
func (h *UserHandler) Disable(c *gin.Context) {
	caller := middleware.MustGetCaller(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.users.Disable(c.Request.Context(), caller, id); err != nil {
		response.Error(c, h.logger, err)
		return
	}

	recordAudit(c, h.audit, services.ActionDisable, "user", idRef(id))
	response.OK(c, "User disabled successfully", nil)
}
