package models

import "github.com/google/uuid"

// Category groups assets and owns the asset code prefix
type Category struct {
	ID     uuid.UUID `json:"id" db:"id"`
	Name   string    `json:"name" db:"name"`
	Prefix string    `json:"prefix" db:"prefix"`
	Audit
}

type CreateCategoryRequest struct {
	Name   string `json:"name" validate:"required,max=100"`
	Prefix string `json:"prefix" validate:"required,len=2,alpha"`
}
