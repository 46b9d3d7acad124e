package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog is one entry of the audit trail
type AuditLog struct {
	UserID     *uuid.UUID             // nil before authentication
	Action     string                 // e.g. "asset_create", "assignment_accept", "login"
	EntityType string                 // e.g. "asset", "assignment", "user"
	EntityID   *uuid.UUID
	IPAddress  string
	UserAgent  string
	Details    map[string]interface{} // stored as JSONB
	CreatedAt  time.Time
}
