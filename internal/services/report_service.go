package services

import (
	"cmp"
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/assetdesk/asset-backend/internal/models"
	"github.com/assetdesk/asset-backend/internal/pagination"
	"github.com/assetdesk/asset-backend/internal/query"
)

func byCount(field func(models.ReportRow) int) query.Comparator[models.ReportRow] {
	return func(a, b models.ReportRow) int { return cmp.Compare(field(a), field(b)) }
}

var reportSortSpec = query.SliceSpec[models.ReportRow]{
	Keys: map[string]query.Comparator[models.ReportRow]{
		"category": func(a, b models.ReportRow) int {
			return strings.Compare(strings.ToLower(a.Category), strings.ToLower(b.Category))
		},
		"total":               byCount(func(r models.ReportRow) int { return r.Total }),
		"assigned":            byCount(func(r models.ReportRow) int { return r.Assigned }),
		"available":           byCount(func(r models.ReportRow) int { return r.Available }),
		"notavailable":        byCount(func(r models.ReportRow) int { return r.NotAvailable }),
		"waitingforrecycling": byCount(func(r models.ReportRow) int { return r.WaitingForRecycling }),
		"recycled":            byCount(func(r models.ReportRow) int { return r.Recycled }),
	},
	Fallback: "category",
	Default:  "category",
}

// ReportService aggregates the asset inventory per category
type ReportService struct {
	reports ReportStore
	logger  logrus.FieldLogger
}

func NewReportService(reports ReportStore, logger logrus.FieldLogger) *ReportService {
	return &ReportService{reports: reports, logger: logger}
}

// Summary counts the caller's location assets per category and state.
// The rows are few, so they are sorted and paged in memory.
func (s *ReportService) Summary(ctx context.Context, caller models.Caller, req models.ListRequest) (pagination.Page[models.ReportRow], error) {
	rows, err := s.reports.CountsByCategory(ctx, caller.Location)
	if err != nil {
		return pagination.Page[models.ReportRow]{}, err
	}

	s.logger.WithFields(logrus.Fields{"location": caller.Location, "categories": len(rows)}).Debug("Report computed")

	query.SortSlice(rows, query.ParseSort(req.SortBy), reportSortSpec)
	return pagination.Paginate(rows, req.Page), nil
}
