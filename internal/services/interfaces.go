package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/assetdesk/asset-backend/internal/database"
	"github.com/assetdesk/asset-backend/internal/models"
)

// Transactor runs fn in one store transaction, see database.PostgresDB.RunInTx
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Clock interface{ Now() time.Time }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// SystemClock is the wall clock in UTC
var SystemClock Clock = realClock{}

type CategoryStore interface {
	List(ctx context.Context) ([]models.Category, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Category, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	ExistsByPrefix(ctx context.Context, prefix string) (bool, error)
	Create(ctx context.Context, category *models.Category) error
}

type AssetStore interface {
	List(ctx context.Context, f database.AssetFilter) ([]models.Asset, int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Asset, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Asset, error)
	LastCodeWithPrefix(ctx context.Context, prefix string) (string, error)
	Create(ctx context.Context, asset *models.Asset) error
	Update(ctx context.Context, asset *models.Asset) error
	UpdateState(ctx context.Context, id uuid.UUID, state models.AssetState, actor uuid.UUID) error
	SoftDelete(ctx context.Context, id uuid.UUID, actor uuid.UUID) error
}

type UserStore interface {
	List(ctx context.Context, f database.UserFilter) ([]models.User, int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UsernamesWithPrefix(ctx context.Context, base string) ([]string, error)
	LastStaffCode(ctx context.Context) (string, error)
	LockStaffCodes(ctx context.Context) error
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Disable(ctx context.Context, id uuid.UUID, actor uuid.UUID) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
}

type AssignmentStore interface {
	List(ctx context.Context, f database.AssignmentFilter) ([]models.Assignment, int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Assignment, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Assignment, error)
	HasActiveForAsset(ctx context.Context, assetID uuid.UUID, excludeID *uuid.UUID) (bool, error)
	ExistsForAsset(ctx context.Context, assetID uuid.UUID) (bool, error)
	HasOpenForAssignee(ctx context.Context, userID uuid.UUID) (bool, error)
	Create(ctx context.Context, a *models.Assignment) error
	Update(ctx context.Context, a *models.Assignment) error
	UpdateState(ctx context.Context, id uuid.UUID, state models.AssignmentState, actor uuid.UUID) error
	SoftDelete(ctx context.Context, id uuid.UUID, actor uuid.UUID) error
}

type ReturnRequestStore interface {
	List(ctx context.Context, f database.ReturnRequestFilter) ([]models.ReturnRequest, int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.ReturnRequest, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.ReturnRequest, error)
	HasPendingForAssignment(ctx context.Context, assignmentID uuid.UUID) (bool, error)
	Create(ctx context.Context, rr *models.ReturnRequest) error
	Complete(ctx context.Context, id, acceptor uuid.UUID, returnedDate time.Time) error
	Cancel(ctx context.Context, id, actor uuid.UUID) error
}

type ReportStore interface {
	CountsByCategory(ctx context.Context, location models.Location) ([]models.ReportRow, error)
}

type AuditStore interface {
	Insert(ctx context.Context, entry *models.AuditLog) error
}

type RefreshTokenStore interface {
	Store(ctx context.Context, userID uuid.UUID, token, ipAddress, userAgent string, expiresAt time.Time) error
	Get(ctx context.Context, token string) (*models.RefreshToken, error)
	Touch(ctx context.Context, token string) error
	Revoke(ctx context.Context, token string) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
}
