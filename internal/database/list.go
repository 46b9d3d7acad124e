package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/assetdesk/asset-backend/internal/models"
	"github.com/assetdesk/asset-backend/internal/pagination"
	"github.com/assetdesk/asset-backend/internal/query"
)

// AssetFilter selects assets for a listing
type AssetFilter struct {
	Location   models.Location
	Search     string
	States     []models.AssetState
	Categories []string
	Sort       []query.SortCriterion
	Page       pagination.Params
}

// AssignmentFilter selects assignments for a listing.
// AssigneeID and AssignedOnOrBefore narrow it to one staff member's current work.
type AssignmentFilter struct {
	Location           models.Location
	Search             string
	States             []models.AssignmentState
	AssignedDate       *time.Time
	AssigneeID         *uuid.UUID
	AssignedOnOrBefore *time.Time
	Sort               []query.SortCriterion
	Page               pagination.Params
}

type ReturnRequestFilter struct {
	Location     models.Location
	Search       string
	States       []models.ReturnRequestState
	ReturnedDate *time.Time
	Sort         []query.SortCriterion
	Page         pagination.Params
}

type UserFilter struct {
	Location models.Location
	Search   string
	Types    []models.UserType
	Sort     []query.SortCriterion
	Page     pagination.Params
}

// fetchPage counts the filtered rows then loads the requested page.
// A zero page size loads every row.
func fetchPage[T any](ctx context.Context, q Querier, b *query.Builder, page pagination.Params) ([]T, int, error) {
	countSQL, countArgs := b.CountQuery()
	var total int
	if err := q.GetContext(ctx, &total, countSQL, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to count rows: %w", err)
	}

	items := []T{}
	if total == 0 || page.Offset() >= total {
		return items, total, nil
	}

	selectSQL, args := b.SelectQuery(page.Limit(), page.Offset())
	if err := q.SelectContext(ctx, &items, selectSQL, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list rows: %w", err)
	}
	return items, total, nil
}

// auditColumns selects the bookkeeping columns of alias
func auditColumns(alias string) string {
	return fmt.Sprintf("%[1]s.created_at, %[1]s.created_by, %[1]s.modified_at, %[1]s.modified_by, %[1]s.is_deleted", alias)
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

// execOne runs a write that must touch at least one row
func execOne(ctx context.Context, q Querier, op, query string, args ...interface{}) error {
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("failed to %s: %w", op, ErrNoRowsAffected)
	}
	return nil
}
