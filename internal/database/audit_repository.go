package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/assetdesk/asset-backend/internal/models"
)

// AuditRepository writes the audit trail
type AuditRepository struct {
	db *PostgresDB
}

func NewAuditRepository(db *PostgresDB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Insert writes one audit entry. Details are stored as JSONB.
func (r *AuditRepository) Insert(ctx context.Context, entry *models.AuditLog) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}

	query := `
		INSERT INTO audit_logs (user_id, action, entity_type, entity_id, ip_address, user_agent, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.db.conn(ctx).ExecContext(ctx, query,
		entry.UserID, entry.Action, entry.EntityType, entry.EntityID,
		entry.IPAddress, entry.UserAgent, details, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to log audit event: %w", err)
	}
	return nil
}
