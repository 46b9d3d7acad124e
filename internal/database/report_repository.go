package database

import (
	"context"
	"fmt"

	"github.com/assetdesk/asset-backend/internal/models"
)

// ReportRepository aggregates asset counts for reporting
type ReportRepository struct {
	db *PostgresDB
}

func NewReportRepository(db *PostgresDB) *ReportRepository {
	return &ReportRepository{db: db}
}

// CountsByCategory counts the assets of every category in a location by state.
// Categories without assets in the location report zeros.
func (r *ReportRepository) CountsByCategory(ctx context.Context, location models.Location) ([]models.ReportRow, error) {
	query := `
		SELECT
			c.name AS category,
			COUNT(a.id) AS total,
			COUNT(a.id) FILTER (WHERE a.state = $2) AS assigned,
			COUNT(a.id) FILTER (WHERE a.state = $3) AS available,
			COUNT(a.id) FILTER (WHERE a.state = $4) AS not_available,
			COUNT(a.id) FILTER (WHERE a.state = $5) AS waiting_for_recycling,
			COUNT(a.id) FILTER (WHERE a.state = $6) AS recycled
		FROM categories c
		LEFT JOIN assets a
			ON a.category_id = c.id AND a.location = $1 AND a.is_deleted = false
		WHERE c.is_deleted = false
		GROUP BY c.id, c.name
	`

	rows := []models.ReportRow{}
	err := r.db.conn(ctx).SelectContext(ctx, &rows, query,
		location,
		models.AssetStateAssigned,
		models.AssetStateAvailable,
		models.AssetStateNotAvailable,
		models.AssetStateWaitingForRecycling,
		models.AssetStateRecycled,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count assets by category: %w", err)
	}
	return rows, nil
}
