package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/assetdesk/asset-backend/internal/models"
	"github.com/assetdesk/asset-backend/internal/utils"
)

// Audit actions
const (
	ActionLogin          = "login"
	ActionLoginFailed    = "login_failed"
	ActionLogout         = "logout"
	ActionPasswordChange = "password_change"
	ActionCreate         = "create"
	ActionUpdate         = "update"
	ActionDelete         = "delete"
	ActionDisable        = "disable"
	ActionAccept         = "accept"
	ActionDecline        = "decline"
	ActionComplete       = "complete"
	ActionCancel         = "cancel"
)

// AuditEvent is one security relevant action to record
type AuditEvent struct {
	UserID     *uuid.UUID // nil before authentication
	Action     string
	EntityType string
	EntityID   *uuid.UUID
	IPAddress  string
	UserAgent  string
	Details    map[string]interface{}
}

// AuditService writes the audit trail. Recording never fails the caller's request.
type AuditService struct {
	store   AuditStore
	clock   Clock
	enabled bool
	logger  logrus.FieldLogger
}

func NewAuditService(store AuditStore, clock Clock, enabled bool, logger logrus.FieldLogger) *AuditService {
	return &AuditService{store: store, clock: clock, enabled: enabled, logger: logger}
}

// Record stores event with the parsed client device added to its details
func (s *AuditService) Record(ctx context.Context, event AuditEvent) {
	if s == nil || !s.enabled {
		return
	}

	details := make(map[string]interface{}, len(event.Details)+1)
	for k, v := range event.Details {
		details[k] = v
	}
	details["device"] = utils.DescribeDevice(event.UserAgent)

	entry := &models.AuditLog{
		UserID:     event.UserID,
		Action:     event.Action,
		EntityType: event.EntityType,
		EntityID:   event.EntityID,
		IPAddress:  event.IPAddress,
		UserAgent:  event.UserAgent,
		Details:    details,
		CreatedAt:  s.clock.Now(),
	}

	// A client disconnect must not drop the entry
	if err := s.store.Insert(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"action":      event.Action,
			"entity_type": event.EntityType,
		}).Error("Failed to record audit event")
	}
}
