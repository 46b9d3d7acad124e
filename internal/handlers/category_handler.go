package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/assetdesk/asset-backend/internal/middleware"
	"github.com/assetdesk/asset-backend/internal/models"
	"github.com/assetdesk/asset-backend/internal/response"
	"github.com/assetdesk/asset-backend/internal/services"
)

type CategoryHandler struct {
	categories CategoryUsecase
	audit      AuditRecorder
	logger     logrus.FieldLogger
}

func NewCategoryHandler(categories CategoryUsecase, audit AuditRecorder, logger logrus.FieldLogger) *CategoryHandler {
	return &CategoryHandler{categories: categories, audit: audit, logger: logger}
}

// List returns every category
// @Summary List categories
// @Tags Categories
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=[]models.Category}
// @Router /categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, "Categories retrieved successfully", categories)
}

// Create adds a category
// @Summary Create category
// @Tags Categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateCategoryRequest true "Category"
// @Success 201 {object} response.Envelope{data=models.Category}
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	caller := middleware.MustGetCaller(c)

	var req models.CreateCategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	category, err := h.categories.Create(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	recordAudit(c, h.audit, services.ActionCreate, "category", idRef(category.ID))
	response.Created(c, "Category created successfully", category)
}
