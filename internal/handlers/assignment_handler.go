package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/assetdesk/asset-backend/internal/config"
	"github.com/assetdesk/asset-backend/internal/middleware"
	"github.com/assetdesk/asset-backend/internal/models"
	"github.com/assetdesk/asset-backend/internal/response"
	"github.com/assetdesk/asset-backend/internal/services"
)

// AssignmentHandler serves both the admin assignment endpoints and the
// assignee's own view
type AssignmentHandler struct {
	assignments AssignmentUsecase
	audit       AuditRecorder
	pages       config.PaginationConfig
	logger      logrus.FieldLogger
}

func NewAssignmentHandler(assignments AssignmentUsecase, audit AuditRecorder, pages config.PaginationConfig, logger logrus.FieldLogger) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments, audit: audit, pages: pages, logger: logger}
}

// List returns a page of the caller's location's assignments
// @Summary List assignments
// @Tags Assignments
// @Produce json
// @Security BearerAuth
// @Param searchTerm query string false "Matches asset code, asset name or assignee"
// @Param sortBy query string false "Sort keys"
// @Param pageNumber query int false "1-based page number"
// @Param pageSize query int false "Page size"
// @Param states query []string false "Assignment states"
// @Param assignedDate query string false "yyyy-MM-dd"
// @Success 200 {object} response.Envelope
// @Router /assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	caller := middleware.MustGetCaller(c)

	req := models.AssignmentListRequest{
		ListRequest:  listRequest(c, h.pages),
		States:       queryList(c, "states"),
		AssignedDate: c.Query("assignedDate"),
	}
	page, err := h.assignments.List(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, "Assignments retrieved successfully", page)
}

// ListMine returns the caller's own open assignments
// @Summary List my assignments
// @Tags Assignments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /assignments/me [get]
func (h *AssignmentHandler) ListMine(c *gin.Context) {
	caller := middleware.MustGetCaller(c)

	page, err := h.assignments.ListMine(c.Request.Context(), caller, listRequest(c, h.pages))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, "Assignments retrieved successfully", page)
}

// @Summary Get assignment
// @Tags Assignments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope{data=models.Assignment}
// @Failure 404 {object} response.Envelope
// @Router /assignments/{id} [get]
func (h *AssignmentHandler) Get(c *gin.Context) {
	caller := middleware.MustGetCaller(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	assignment, err := h.assignments.Get(c.Request.Context(), caller, id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, "Assignment retrieved successfully", assignment)
}

// @Summary Create assignment
// @Tags Assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateAssignmentRequest true "Assignment"
// @Success 201 {object} response.Envelope{data=models.Assignment}
// @Failure 400 {object} response.Envelope
// @Router /assignments [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	caller := middleware.MustGetCaller(c)

	var req models.CreateAssignmentRequest
	if !bindJSON(c, &req) {
		return
	}

	assignment, err := h.assignments.Create(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	recordAudit(c, h.audit, services.ActionCreate, "assignment", idRef(assignment.ID))
	response.Created(c, "Assignment created successfully", assignment)
}

// Update edits an assignment still waiting for acceptance
// @Summary Update assignment
// @Tags Assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Param request body models.UpdateAssignmentRequest true "Fields to change"
// @Success 200 {object} response.Envelope{data=models.Assignment}
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assignments/{id} [put]
func (h *AssignmentHandler) Update(c *gin.Context) {
	caller := middleware.MustGetCaller(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req models.UpdateAssignmentRequest
	if !bindJSON(c, &req) {
		return
	}

	assignment, err := h.assignments.Update(c.Request.Context(), caller, id, req)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	recordAudit(c, h.audit, services.ActionUpdate, "assignment", idRef(id))
	response.OK(c, "Assignment updated successfully", assignment)
}

// @Summary Delete assignment
// @Tags Assignments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assignments/{id} [delete]
func (h *AssignmentHandler) Delete(c *gin.Context) {
	caller := middleware.MustGetCaller(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.assignments.Delete(c.Request.Context(), caller, id); err != nil {
		response.Error(c, h.logger, err)
		return
	}

	recordAudit(c, h.audit, services.ActionDelete, "assignment", idRef(id))
	response.OK(c, "Assignment deleted successfully", nil)
}

// Accept is called by the assignee
// @Summary Accept assignment
// @Tags Assignments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope{data=models.Assignment}
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assignments/{id}/accept [post]
func (h *AssignmentHandler) Accept(c *gin.Context) {
	h.respond(c, services.ActionAccept, "Assignment accepted", h.assignments.Accept)
}

// Decline is called by the assignee, the asset becomes available again
// @Summary Decline assignment
// @Tags Assignments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope{data=models.Assignment}
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assignments/{id}/decline [post]
func (h *AssignmentHandler) Decline(c *gin.Context) {
	h.respond(c, services.ActionDecline, "Assignment declined", h.assignments.Decline)
}

func (h *AssignmentHandler) respond(c *gin.Context, action, message string, op func(ctx context.Context, caller models.Caller, id uuid.UUID) (*models.Assignment, error)) {
	caller := middleware.MustGetCaller(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	assignment, err := op(c.Request.Context(), caller, id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	recordAudit(c, h.audit, action, "assignment", idRef(id))
	response.OK(c, message, assignment)
}
