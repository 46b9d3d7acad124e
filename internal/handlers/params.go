package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/assetdesk/asset-backend/internal/config"
	"github.com/assetdesk/asset-backend/internal/models"
	"github.com/assetdesk/asset-backend/internal/pagination"
	"github.com/assetdesk/asset-backend/internal/response"
)

const msgInvalidBody = "Invalid request body"

// listRequest reads the parameters shared by every list endpoint.
// Malformed page numbers and sizes fall back to the defaults.
func listRequest(c *gin.Context, pages config.PaginationConfig) models.ListRequest {
	pageNumber, _ := strconv.Atoi(c.Query("pageNumber"))
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))

	return models.ListRequest{
		SearchTerm: c.Query("searchTerm"),
		SortBy:     c.Query("sortBy"),
		Page:       pagination.NewParams(pageNumber, pageSize, pages.DefaultPageSize, pages.MaxPageSize),
	}
}

// queryList accepts both repeated keys and comma separated values
func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, raw := range c.QueryArray(key) {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

// parseID reads the :id path parameter, answering 400 itself when it is malformed
func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "Invalid id", "id: must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes the body, answering 400 itself on malformed input
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Fail(c, http.StatusBadRequest, msgInvalidBody, err.Error())
		return false
	}
	return true
}
