package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/assetdesk/asset-backend/internal/models"
	"github.com/assetdesk/asset-backend/internal/query"
)

// ReturnRequestRepository handles return request database operations
type ReturnRequestRepository struct {
	db *PostgresDB
}

func NewReturnRequestRepository(db *PostgresDB) *ReturnRequestRepository {
	return &ReturnRequestRepository{db: db}
}

var (
	returnRequestColumns = `rr.id, rr.assignment_id, asg.asset_id, ast.code AS asset_code,
		ast.name AS asset_name, ast.location AS asset_location, asg.assigned_date,
		rr.requester_id, req.username AS requester_username,
		rr.acceptor_id, acc.username AS acceptor_username,
		rr.returned_date, rr.state, ` + auditColumns("rr")
	returnRequestFrom = `return_requests rr
		JOIN assignments asg ON asg.id = rr.assignment_id
		JOIN assets ast ON ast.id = asg.asset_id
		JOIN users req ON req.id = rr.requester_id
		LEFT JOIN users acc ON acc.id = rr.acceptor_id`
)

var returnRequestSortSpec = query.SortSpec{
	Columns: map[string]string{
		"no":           "rr.created_at",
		"assetcode":    "ast.code",
		"assetname":    "ast.name",
		"requestedby":  "req.username",
		"requester":    "req.username",
		"assigneddate": "asg.assigned_date",
		"acceptedby":   "acc.username",
		"acceptor":     "acc.username",
		"returneddate": "rr.returned_date",
		"state":        "rr.state",
		"createdat":    "rr.created_at",
	},
	Fallback: "rr.created_at",
	Default:  "assetCode",
	Tiebreak: "rr.id",
}

// List returns one page of return requests whose asset sits in the filter's location
func (r *ReturnRequestRepository) List(ctx context.Context, f ReturnRequestFilter) ([]models.ReturnRequest, int, error) {
	b := query.NewBuilder(returnRequestColumns, returnRequestFrom).
		Scope("ast.location", string(f.Location)).
		Where("rr.is_deleted = false").
		Search(f.Search, "ast.code", "ast.name", "req.username").
		In("rr.state", models.Strings(f.States)).
		OnDate("rr.returned_date", f.ReturnedDate).
		OrderBy(f.Sort, returnRequestSortSpec)

	requests, total, err := fetchPage[models.ReturnRequest](ctx, r.db.conn(ctx), b, f.Page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list return requests: %w", err)
	}
	return requests, total, nil
}

// GetByID returns nil when the request does not exist or was cancelled
func (r *ReturnRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ReturnRequest, error) {
	return r.get(ctx, `SELECT `+returnRequestColumns+` FROM `+returnRequestFrom+` WHERE rr.id = $1 AND rr.is_deleted = false`, id)
}

func (r *ReturnRequestRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.ReturnRequest, error) {
	return r.get(ctx, `SELECT `+returnRequestColumns+` FROM `+returnRequestFrom+` WHERE rr.id = $1 AND rr.is_deleted = false FOR UPDATE OF rr`, id)
}

func (r *ReturnRequestRepository) get(ctx context.Context, query string, id uuid.UUID) (*models.ReturnRequest, error) {
	var request models.ReturnRequest
	if err := r.db.conn(ctx).GetContext(ctx, &request, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get return request: %w", err)
	}
	return &request, nil
}

// HasPendingForAssignment reports whether a request is already waiting for the assignment
func (r *ReturnRequestRepository) HasPendingForAssignment(ctx context.Context, assignmentID uuid.UUID) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM return_requests
			WHERE assignment_id = $1 AND is_deleted = false AND state = $2
		)
	`
	if err := r.db.conn(ctx).GetContext(ctx, &exists, query, assignmentID, models.ReturnRequestStateWaitingForReturning); err != nil {
		return false, fmt.Errorf("failed to check pending return requests: %w", err)
	}
	return exists, nil
}

func (r *ReturnRequestRepository) Create(ctx context.Context, rr *models.ReturnRequest) error {
	if rr.ID == uuid.Nil {
		rr.ID = uuid.New()
	}
	if rr.CreatedAt.IsZero() {
		rr.CreatedAt = nowUTC()
	}

	query := `
		INSERT INTO return_requests (
			id, assignment_id, requester_id, state, created_at, created_by, is_deleted
		) VALUES ($1, $2, $3, $4, $5, $6, false)
	`
	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		rr.ID, rr.AssignmentID, rr.RequesterID, rr.State, rr.CreatedAt, rr.CreatedBy)
	if err != nil {
		return fmt.Errorf("failed to create return request: %w", err)
	}
	return nil
}

// Complete records the acceptor and the return date
func (r *ReturnRequestRepository) Complete(ctx context.Context, id, acceptor uuid.UUID, returnedDate time.Time) error {
	query := `
		UPDATE return_requests
		SET state = $2, acceptor_id = $3, returned_date = $4, modified_at = $5, modified_by = $3
		WHERE id = $1 AND is_deleted = false
	`
	return execOne(ctx, r.db.conn(ctx), "complete return request", query,
		id, models.ReturnRequestStateCompleted, acceptor, returnedDate, nowUTC())
}

// Cancel soft-deletes the request, keeping who cancelled it
func (r *ReturnRequestRepository) Cancel(ctx context.Context, id, actor uuid.UUID) error {
	query := `
		UPDATE return_requests
		SET acceptor_id = $2, is_deleted = true, deleted_at = $3, deleted_by = $2
		WHERE id = $1 AND is_deleted = false
	`
	return execOne(ctx, r.db.conn(ctx), "cancel return request", query, id, actor, nowUTC())
}
