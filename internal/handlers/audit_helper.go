package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/assetdesk/asset-backend/internal/middleware"
	"github.com/assetdesk/asset-backend/internal/services"
	"github.com/assetdesk/asset-backend/internal/utils"
)

// auditEvent starts an event attributed to the resolved caller, if any, and the request's client
func auditEvent(c *gin.Context, action, entityType string, entityID *uuid.UUID) services.AuditEvent {
	event := services.AuditEvent{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		IPAddress:  utils.ClientIP(c),
		UserAgent:  utils.UserAgent(c),
	}
	if caller, ok := middleware.GetCaller(c); ok {
		event.UserID = &caller.UserID
	}
	return event
}

func recordAudit(c *gin.Context, audit AuditRecorder, action, entityType string, entityID *uuid.UUID) {
	if audit == nil {
		return
	}
	audit.Record(c.Request.Context(), auditEvent(c, action, entityType, entityID))
}

func idRef(id uuid.UUID) *uuid.UUID {
	return &id
}
