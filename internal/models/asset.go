package models

import (
	"time"

	"github.com/google/uuid"
)

// Asset is a tracked piece of hardware
type Asset struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	Code          string     `json:"code" db:"code"`
	Name          string     `json:"name" db:"name"`
	State         AssetState `json:"state" db:"state"`
	InstalledDate time.Time  `json:"installedDate" db:"installed_date"`
	Location      Location   `json:"location" db:"location"`
	Specification string     `json:"specification" db:"specification"`
	CategoryID    uuid.UUID  `json:"categoryId" db:"category_id"`
	CategoryName  string     `json:"categoryName" db:"category_name"`
	Audit
}

// EditableAssetStates are the states an admin may set directly
var EditableAssetStates = []AssetState{
	AssetStateAvailable,
	AssetStateNotAvailable,
	AssetStateWaitingForRecycling,
	AssetStateRecycled,
}

type AssetListRequest struct {
	ListRequest
	States     []string
	Categories []string
}

type CreateAssetRequest struct {
	Name          string `json:"name" validate:"required,max=100"`
	CategoryID    string `json:"categoryId" validate:"required,uuid"`
	Specification string `json:"specification" validate:"max=1000"`
	InstalledDate string `json:"installedDate" validate:"required"`
	State         string `json:"state" validate:"required"`
}

// UpdateAssetRequest is a partial update, nil fields are left untouched
type UpdateAssetRequest struct {
	Name          *string `json:"name" validate:"omitempty,max=100"`
	Specification *string `json:"specification" validate:"omitempty,max=1000"`
	InstalledDate *string `json:"installedDate"`
	State         *string `json:"state"`
}
