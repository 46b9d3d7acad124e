package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/assetdesk/asset-backend/internal/pagination"
)

// Audit holds the bookkeeping columns shared by every table.
// Rows are never removed, IsDeleted marks them instead.
type Audit struct {
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
	CreatedBy  *uuid.UUID `json:"createdBy,omitempty" db:"created_by"`
	ModifiedAt *time.Time `json:"modifiedAt,omitempty" db:"modified_at"`
	ModifiedBy *uuid.UUID `json:"modifiedBy,omitempty" db:"modified_by"`
	DeletedAt  *time.Time `json:"-" db:"deleted_at"`
	DeletedBy  *uuid.UUID `json:"-" db:"deleted_by"`
	IsDeleted  bool       `json:"-" db:"is_deleted"`
}

// Caller is the authenticated identity an operation runs on behalf of.
// It is resolved once at the HTTP boundary and passed explicitly.
type Caller struct {
	UserID   uuid.UUID
	Username string
	Role     UserType
	Location Location
}

func (c Caller) IsAdmin() bool {
	return c.Role == UserTypeAdmin
}

// ListRequest carries the raw list parameters common to every entity
type ListRequest struct {
	SearchTerm string
	SortBy     string
	Page       pagination.Params
}
