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

// AssetHandler serves the admin asset endpoints
type AssetHandler struct {
	assets AssetUsecase
	audit  AuditRecorder
	pages  config.PaginationConfig
	logger logrus.FieldLogger
}

func NewAssetHandler(assets AssetUsecase, audit AuditRecorder, pages config.PaginationConfig, logger logrus.FieldLogger) *AssetHandler {
	return &AssetHandler{assets: assets, audit: audit, pages: pages, logger: logger}
}

// List returns a page of the caller's location's assets
// @Summary List assets
// @Tags Assets
// @Produce json
// @Security BearerAuth
// @Param searchTerm query string false "Matches code or name"
// @Param sortBy query string false "Comma separated sort keys, e.g. name desc,code"
// @Param pageNumber query int false "1-based page number"
// @Param pageSize query int false "Page size"
// @Param states query []string false "Asset states"
// @Param categories query []string false "Category names"
// @Success 200 {object} response.Envelope
// @Router /assets [get]
func (h *AssetHandler) List(c *gin.Context) {
	caller := middleware.MustGetCaller(c)

	req := models.AssetListRequest{
		ListRequest: listRequest(c, h.pages),
		States:      queryList(c, "states"),
		Categories:  queryList(c, "categories"),
	}
	page, err := h.assets.List(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, "Assets retrieved successfully", page)
}

// Get returns one asset
// @Summary Get asset
// @Tags Assets
// @Produce json
// @Security BearerAuth
// @Param id path string true "Asset ID"
// @Success 200 {object} response.Envelope{data=models.Asset}
// @Failure 404 {object} response.Envelope
// @Router /assets/{id} [get]
func (h *AssetHandler) Get(c *gin.Context) {
	caller := middleware.MustGetCaller(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	asset, err := h.assets.Get(c.Request.Context(), caller, id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, "Asset retrieved successfully", asset)
}

// Create adds an asset to the caller's location
// @Summary Create asset
// @Tags Assets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateAssetRequest true "Asset"
// @Success 201 {object} response.Envelope{data=models.Asset}
// @Failure 400 {object} response.Envelope
// @Router /assets [post]
func (h *AssetHandler) Create(c *gin.Context) {
	caller := middleware.MustGetCaller(c)

	var req models.CreateAssetRequest
	if !bindJSON(c, &req) {
		return
	}

	asset, err := h.assets.Create(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	recordAudit(c, h.audit, services.ActionCreate, "asset", idRef(asset.ID))
	response.Created(c, "Asset created successfully", asset)
}

// Update edits an asset that is not assigned
// @Summary Update asset
// @Tags Assets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Asset ID"
// @Param request body models.UpdateAssetRequest true "Fields to change"
// @Success 200 {object} response.Envelope{data=models.Asset}
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assets/{id} [put]
func (h *AssetHandler) Update(c *gin.Context) {
	caller := middleware.MustGetCaller(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req models.UpdateAssetRequest
	if !bindJSON(c, &req) {
		return
	}

	asset, err := h.assets.Update(c.Request.Context(), caller, id, req)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	recordAudit(c, h.audit, services.ActionUpdate, "asset", idRef(id))
	response.OK(c, "Asset updated successfully", asset)
}

// Delete soft-deletes an asset with no assignment history
// @Summary Delete asset
// @Tags Assets
// @Produce json
// @Security BearerAuth
// @Param id path string true "Asset ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assets/{id} [delete]
func (h *AssetHandler) Delete(c *gin.Context) {
	caller := middleware.MustGetCaller(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.assets.Delete(c.Request.Context(), caller, id); err != nil {
		response.Error(c, h.logger, err)
		return
	}

	recordAudit(c, h.audit, services.ActionDelete, "asset", idRef(id))
	response.OK(c, "Asset deleted successfully", nil)
}
