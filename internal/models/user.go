package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a staff member or administrator scoped to one location
type User struct {
	ID                uuid.UUID `json:"id" db:"id"`
	StaffCode         string    `json:"staffCode" db:"staff_code"`
	FirstName         string    `json:"firstName" db:"first_name"`
	LastName          string    `json:"lastName" db:"last_name"`
	Username          string    `json:"username" db:"username"`
	PasswordHash      string    `json:"-" db:"password_hash"`
	Type              UserType  `json:"type" db:"type"`
	Location          Location  `json:"location" db:"location"`
	Gender            Gender    `json:"gender" db:"gender"`
	DateOfBirth       time.Time `json:"dateOfBirth" db:"date_of_birth"`
	JoinedDate        time.Time `json:"joinedDate" db:"joined_date"`
	IsActive          bool      `json:"isActive" db:"is_active"`
	IsPasswordUpdated bool      `json:"isPasswordUpdated" db:"is_password_updated"`
	Audit
}

// FullName returns "First Last"
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

type UserListRequest struct {
	ListRequest
	Types []string
}

type CreateUserRequest struct {
	FirstName   string `json:"firstName" validate:"required,max=128"`
	LastName    string `json:"lastName" validate:"required,max=128"`
	DateOfBirth string `json:"dateOfBirth" validate:"required"`
	JoinedDate  string `json:"joinedDate" validate:"required"`
	Gender      string `json:"gender" validate:"required"`
	Type        string `json:"type" validate:"required"`
}

type UpdateUserRequest struct {
	DateOfBirth *string `json:"dateOfBirth"`
	JoinedDate  *string `json:"joinedDate"`
	Gender      *string `json:"gender"`
	Type        *string `json:"type"`
}

// CreatedUser is returned once, it is the only time the default password is shown
type CreatedUser struct {
	User
	DefaultPassword string `json:"defaultPassword"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=64"`
}

type LoginResponse struct {
	AccessToken       string `json:"accessToken"`
	RefreshToken      string `json:"refreshToken"`
	ExpiresIn         int64  `json:"expiresIn"`
	IsPasswordUpdated bool   `json:"isPasswordUpdated"`
	User              *User  `json:"user"`
}
