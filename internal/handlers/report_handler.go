package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/assetdesk/asset-backend/internal/config"
	"github.com/assetdesk/asset-backend/internal/middleware"
	"github.com/assetdesk/asset-backend/internal/response"
)

type ReportHandler struct {
	reports ReportUsecase
	pages   config.PaginationConfig
	logger  logrus.FieldLogger
}

func NewReportHandler(reports ReportUsecase, pages config.PaginationConfig, logger logrus.FieldLogger) *ReportHandler {
	return &ReportHandler{reports: reports, pages: pages, logger: logger}
}

// Summary returns asset counts per category and state
// @Summary Asset report
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param sortBy query string false "category, total, assigned, available, notAvailable, waitingForRecycling, recycled"
// @Param pageNumber query int false "1-based page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /reports [get]
func (h *ReportHandler) Summary(c *gin.Context) {
	caller := middleware.MustGetCaller(c)

	page, err := h.reports.Summary(c.Request.Context(), caller, listRequest(c, h.pages))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, "Report generated successfully", page)
}
