package services

import (
	"github.com/assetdesk/asset-backend/internal/models"
	"github.com/assetdesk/asset-backend/internal/pagination"
	"github.com/assetdesk/asset-backend/internal/query"
)

// inScope reports whether an entity owned by location is visible to caller
func inScope(caller models.Caller, location models.Location) bool {
	return caller.Location == location
}

// rowNumberDescending reports whether the "No." column counts down
func rowNumberDescending(sort []query.SortCriterion) bool {
	c, ok := query.LeadsWith(sort, "no")
	return ok && c.Descending()
}

// numbered attaches "No." values to a page
func numbered[T, U any](items []T, page pagination.Params, total int, sort []query.SortCriterion, wrap func(no int, item T) U) pagination.Page[U] {
	desc := rowNumberDescending(sort)
	return pagination.Map(pagination.NewPage(items, page, total), func(i int, item T) U {
		return wrap(pagination.RowNumber(i, page, total, desc), item)
	})
}
