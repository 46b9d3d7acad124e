package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/assetdesk/asset-backend/internal/models"
	"github.com/assetdesk/asset-backend/internal/pagination"
	"github.com/assetdesk/asset-backend/internal/services"
)

// The handlers depend on these rather than on the concrete services

type AuthUsecase interface {
	Login(ctx context.Context, req models.LoginRequest, client services.ClientInfo) (*models.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*models.LoginResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	ChangePassword(ctx context.Context, caller models.Caller, req models.ChangePasswordRequest) error
}

type CategoryUsecase interface {
	List(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, caller models.Caller, req models.CreateCategoryRequest) (*models.Category, error)
}

type AssetUsecase interface {
	List(ctx context.Context, caller models.Caller, req models.AssetListRequest) (pagination.Page[models.Asset], error)
	Get(ctx context.Context, caller models.Caller, id uuid.UUID) (*models.Asset, error)
	Create(ctx context.Context, caller models.Caller, req models.CreateAssetRequest) (*models.Asset, error)
	Update(ctx context.Context, caller models.Caller, id uuid.UUID, req models.UpdateAssetRequest) (*models.Asset, error)
	Delete(ctx context.Context, caller models.Caller, id uuid.UUID) error
}

type UserUsecase interface {
	List(ctx context.Context, caller models.Caller, req models.UserListRequest) (pagination.Page[models.User], error)
	Get(ctx context.Context, caller models.Caller, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, caller models.Caller, req models.CreateUserRequest) (*models.CreatedUser, error)
	Update(ctx context.Context, caller models.Caller, id uuid.UUID, req models.UpdateUserRequest) (*models.User, error)
	Disable(ctx context.Context, caller models.Caller, id uuid.UUID) error
	CanDisable(ctx context.Context, caller models.Caller, id uuid.UUID) (bool, error)
}

type AssignmentUsecase interface {
	List(ctx context.Context, caller models.Caller, req models.AssignmentListRequest) (pagination.Page[models.AssignmentListItem], error)
	ListMine(ctx context.Context, caller models.Caller, req models.ListRequest) (pagination.Page[models.AssignmentListItem], error)
	Get(ctx context.Context, caller models.Caller, id uuid.UUID) (*models.Assignment, error)
	Create(ctx context.Context, caller models.Caller, req models.CreateAssignmentRequest) (*models.Assignment, error)
	Update(ctx context.Context, caller models.Caller, id uuid.UUID, req models.UpdateAssignmentRequest) (*models.Assignment, error)
	Delete(ctx context.Context, caller models.Caller, id uuid.UUID) error
	Accept(ctx context.Context, caller models.Caller, id uuid.UUID) (*models.Assignment, error)
	Decline(ctx context.Context, caller models.Caller, id uuid.UUID) (*models.Assignment, error)
}

type ReturnRequestUsecase interface {
	List(ctx context.Context, caller models.Caller, req models.ReturnRequestListRequest) (pagination.Page[models.ReturnRequestListItem], error)
	Create(ctx context.Context, caller models.Caller, req models.CreateReturnRequestRequest) (*models.ReturnRequest, error)
	Complete(ctx context.Context, caller models.Caller, id uuid.UUID) (*models.ReturnRequest, error)
	Cancel(ctx context.Context, caller models.Caller, id uuid.UUID) error
}

type ReportUsecase interface {
	Summary(ctx context.Context, caller models.Caller, req models.ListRequest) (pagination.Page[models.ReportRow], error)
}

// AuditRecorder never fails, see services.AuditService
type AuditRecorder interface {
	Record(ctx context.Context, event services.AuditEvent)
}
