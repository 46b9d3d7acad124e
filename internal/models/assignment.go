package models

import (
	"time"

	"github.com/google/uuid"
)

// Assignment hands an asset to a staff member
type Assignment struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	AssetID          uuid.UUID       `json:"assetId" db:"asset_id"`
	AssetCode        string          `json:"assetCode" db:"asset_code"`
	AssetName        string          `json:"assetName" db:"asset_name"`
	AssetLocation    Location        `json:"-" db:"asset_location"`
	AssignorID       uuid.UUID       `json:"assignorId" db:"assignor_id"`
	AssignorUsername string          `json:"assignedBy" db:"assignor_username"`
	AssigneeID       uuid.UUID       `json:"assigneeId" db:"assignee_id"`
	AssigneeUsername string          `json:"assignedTo" db:"assignee_username"`
	AssignedDate     time.Time       `json:"assignedDate" db:"assigned_date"`
	Note             string          `json:"note" db:"note"`
	State            AssignmentState `json:"state" db:"state"`
	Audit
}

// assignmentTransitions lists the legal moves of the assignment state machine.
// Declined and Returned are terminal.
var assignmentTransitions = map[AssignmentState][]AssignmentState{
	AssignmentStateWaitingForAcceptance: {AssignmentStateAccepted, AssignmentStateDeclined},
	AssignmentStateAccepted:             {AssignmentStateWaitingForReturning},
	AssignmentStateWaitingForReturning:  {AssignmentStateReturned, AssignmentStateAccepted},
}

// CanTransitionTo reports whether next is reachable from s in one step
func (s AssignmentState) CanTransitionTo(next AssignmentState) bool {
	for _, allowed := range assignmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsActive reports whether the assignment holds its asset
func (s AssignmentState) IsActive() bool {
	return s == AssignmentStateAccepted || s == AssignmentStateWaitingForReturning
}

// OpenAssignmentStates are the states that still involve the assignee
var OpenAssignmentStates = []AssignmentState{
	AssignmentStateWaitingForAcceptance,
	AssignmentStateAccepted,
	AssignmentStateWaitingForReturning,
}

// AssignmentListItem is an assignment with its position in the listing
type AssignmentListItem struct {
	No int `json:"no"`
	Assignment
}

type AssignmentListRequest struct {
	ListRequest
	States       []string
	AssignedDate string
}

type CreateAssignmentRequest struct {
	AssetID      string `json:"assetId" validate:"required,uuid"`
	AssigneeID   string `json:"assigneeId" validate:"required,uuid"`
	AssignedDate string `json:"assignedDate" validate:"required"`
	Note         string `json:"note" validate:"max=600"`
}

// UpdateAssignmentRequest only re-validates the fields that are present
type UpdateAssignmentRequest struct {
	AssetID      *string `json:"assetId" validate:"omitempty,uuid"`
	AssigneeID   *string `json:"assigneeId" validate:"omitempty,uuid"`
	AssignedDate *string `json:"assignedDate"`
	Note         *string `json:"note" validate:"omitempty,max=600"`
}
