package models

import (
	"time"

	"github.com/google/uuid"
)

// ReturnRequest asks for an accepted assignment's asset to come back
type ReturnRequest struct {
	ID                uuid.UUID          `json:"id" db:"id"`
	AssignmentID      uuid.UUID          `json:"assignmentId" db:"assignment_id"`
	AssetID           uuid.UUID          `json:"assetId" db:"asset_id"`
	AssetCode         string             `json:"assetCode" db:"asset_code"`
	AssetName         string             `json:"assetName" db:"asset_name"`
	AssetLocation     Location           `json:"-" db:"asset_location"`
	AssignedDate      time.Time          `json:"assignedDate" db:"assigned_date"`
	RequesterID       uuid.UUID          `json:"requesterId" db:"requester_id"`
	RequesterUsername string             `json:"requestedBy" db:"requester_username"`
	AcceptorID        *uuid.UUID         `json:"acceptorId,omitempty" db:"acceptor_id"`
	AcceptorUsername  *string            `json:"acceptedBy,omitempty" db:"acceptor_username"`
	ReturnedDate      *time.Time         `json:"returnedDate,omitempty" db:"returned_date"`
	State             ReturnRequestState `json:"state" db:"state"`
	Audit
}

type ReturnRequestListItem struct {
	No int `json:"no"`
	ReturnRequest
}

type ReturnRequestListRequest struct {
	ListRequest
	States       []string
	ReturnedDate string
}

type CreateReturnRequestRequest struct {
	AssignmentID string `json:"assignmentId" validate:"required,uuid"`
}
