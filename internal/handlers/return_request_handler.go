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

type ReturnRequestHandler struct {
	requests ReturnRequestUsecase
	audit    AuditRecorder
	pages    config.PaginationConfig
	logger   logrus.FieldLogger
}

func NewReturnRequestHandler(requests ReturnRequestUsecase, audit AuditRecorder, pages config.PaginationConfig, logger logrus.FieldLogger) *ReturnRequestHandler {
	return &ReturnRequestHandler{requests: requests, audit: audit, pages: pages, logger: logger}
}

// List returns a page of the caller's location's return requests
// @Summary List return requests
// @Tags Return Requests
// @Produce json
// @Security BearerAuth
// @Param searchTerm query string false "Matches asset code, asset name or requester"
// @Param sortBy query string false "Sort keys"
// @Param pageNumber query int false "1-based page number"
// @Param pageSize query int false "Page size"
// @Param states query []string false "Request states"
// @Param returnedDate query string false "yyyy-MM-dd"
// @Success 200 {object} response.Envelope
// @Router /return-requests [get]
func (h *ReturnRequestHandler) List(c *gin.Context) {
	caller := middleware.MustGetCaller(c)

	req := models.ReturnRequestListRequest{
		ListRequest:  listRequest(c, h.pages),
		States:       queryList(c, "states"),
		ReturnedDate: c.Query("returnedDate"),
	}
	page, err := h.requests.List(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, "Return requests retrieved successfully", page)
}

// Create asks for an accepted assignment's asset back. Staff may only ask for
// their own assignments.
// @Summary Create return request
// @Tags Return Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateReturnRequestRequest true "Return request"
// @Success 201 {object} response.Envelope{data=models.ReturnRequest}
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /return-requests [post]
func (h *ReturnRequestHandler) Create(c *gin.Context) {
	caller := middleware.MustGetCaller(c)

	var req models.CreateReturnRequestRequest
	if !bindJSON(c, &req) {
		return
	}

	request, err := h.requests.Create(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	recordAudit(c, h.audit, services.ActionCreate, "return_request", idRef(request.ID))
	response.Created(c, "Return request created successfully", request)
}

// @Summary Complete return request
// @Tags Return Requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Return request ID"
// @Success 200 {object} response.Envelope{data=models.ReturnRequest}
// @Failure 409 {object} response.Envelope
// @Router /return-requests/{id}/complete [post]
func (h *ReturnRequestHandler) Complete(c *gin.Context) {
	caller := middleware.MustGetCaller(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	request, err := h.requests.Complete(c.Request.Context(), caller, id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	recordAudit(c, h.audit, services.ActionComplete, "return_request", idRef(id))
	response.OK(c, "Return request completed", request)
}

// @Summary Cancel return request
// @Tags Return Requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Return request ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /return-requests/{id} [delete]
func (h *ReturnRequestHandler) Cancel(c *gin.Context) {
	caller := middleware.MustGetCaller(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.requests.Cancel(c.Request.Context(), caller, id); err != nil {
		response.Error(c, h.logger, err)
		return
	}

	recordAudit(c, h.audit, services.ActionCancel, "return_request", idRef(id))
	response.OK(c, "Return request cancelled", nil)
}
