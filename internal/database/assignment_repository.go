package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/assetdesk/asset-backend/internal/models"
	"github.com/assetdesk/asset-backend/internal/query"
)

// AssignmentRepository handles assignment database operations
type AssignmentRepository struct {
	db *PostgresDB
}

func NewAssignmentRepository(db *PostgresDB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

var (
	assignmentColumns = `asg.id, asg.asset_id, ast.code AS asset_code, ast.name AS asset_name,
		ast.location AS asset_location, asg.assignor_id, assignor.username AS assignor_username,
		asg.assignee_id, assignee.username AS assignee_username, asg.assigned_date, asg.note,
		asg.state, ` + auditColumns("asg")
	assignmentFrom = `assignments asg
		JOIN assets ast ON ast.id = asg.asset_id
		JOIN users assignor ON assignor.id = asg.assignor_id
		JOIN users assignee ON assignee.id = asg.assignee_id`
)

// "no" is the listing's row number, it follows creation order
var assignmentSortSpec = query.SortSpec{
	Columns: map[string]string{
		"no":           "asg.created_at",
		"assetcode":    "ast.code",
		"assetname":    "ast.name",
		"assignedto":   "assignee.username",
		"assignee":     "assignee.username",
		"assignedby":   "assignor.username",
		"assignor":     "assignor.username",
		"assigneddate": "asg.assigned_date",
		"state":        "asg.state",
		"createdat":    "asg.created_at",
	},
	Fallback: "asg.created_at",
	Default:  "assignedDate",
	Tiebreak: "asg.id",
}

// List returns one page of assignments whose asset sits in the filter's location
func (r *AssignmentRepository) List(ctx context.Context, f AssignmentFilter) ([]models.Assignment, int, error) {
	b := query.NewBuilder(assignmentColumns, assignmentFrom).
		Scope("ast.location", string(f.Location)).
		Where("asg.is_deleted = false").
		Search(f.Search, "ast.code", "ast.name", "assignee.username").
		In("asg.state", models.Strings(f.States)).
		OnDate("asg.assigned_date", f.AssignedDate)
	if f.AssigneeID != nil {
		b.Where("asg.assignee_id = ?", *f.AssigneeID)
	}
	if f.AssignedOnOrBefore != nil {
		b.Where("asg.assigned_date <= ?::date", f.AssignedOnOrBefore.Format("2006-01-02"))
	}
	b.OrderBy(f.Sort, assignmentSortSpec)

	assignments, total, err := fetchPage[models.Assignment](ctx, r.db.conn(ctx), b, f.Page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list assignments: %w", err)
	}
	return assignments, total, nil
}

// GetByID returns nil when the assignment does not exist
func (r *AssignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Assignment, error) {
	return r.get(ctx, `SELECT `+assignmentColumns+` FROM `+assignmentFrom+` WHERE asg.id = $1 AND asg.is_deleted = false`, id)
}

// GetByIDForUpdate locks the assignment row, not its joined asset or users
func (r *AssignmentRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Assignment, error) {
	return r.get(ctx, `SELECT `+assignmentColumns+` FROM `+assignmentFrom+` WHERE asg.id = $1 AND asg.is_deleted = false FOR UPDATE OF asg`, id)
}

func (r *AssignmentRepository) get(ctx context.Context, query string, id uuid.UUID) (*models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.conn(ctx).GetContext(ctx, &assignment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return &assignment, nil
}

// HasActiveForAsset reports whether another assignment holds the asset.
// excludeID skips the assignment being edited.
func (r *AssignmentRepository) HasActiveForAsset(ctx context.Context, assetID uuid.UUID, excludeID *uuid.UUID) (bool, error) {
	active := []models.AssignmentState{models.AssignmentStateAccepted, models.AssignmentStateWaitingForReturning}
	query := `
		SELECT EXISTS(
			SELECT 1 FROM assignments
			WHERE asset_id = $1 AND is_deleted = false AND state = ANY($2)
			  AND ($3::uuid IS NULL OR id <> $3::uuid)
		)
	`
	var exists bool
	if err := r.db.conn(ctx).GetContext(ctx, &exists, query, assetID, pq.Array(models.Strings(active)), excludeID); err != nil {
		return false, fmt.Errorf("failed to check active assignments: %w", err)
	}
	return exists, nil
}

// ExistsForAsset reports whether the asset was ever assigned
func (r *AssignmentRepository) ExistsForAsset(ctx context.Context, assetID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM assignments WHERE asset_id = $1 AND is_deleted = false)`
	if err := r.db.conn(ctx).GetContext(ctx, &exists, query, assetID); err != nil {
		return false, fmt.Errorf("failed to check asset history: %w", err)
	}
	return exists, nil
}

// HasOpenForAssignee reports whether the user still has assignments to act on
func (r *AssignmentRepository) HasOpenForAssignee(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM assignments
			WHERE assignee_id = $1 AND is_deleted = false AND state = ANY($2)
		)
	`
	if err := r.db.conn(ctx).GetContext(ctx, &exists, query, userID, pq.Array(models.Strings(models.OpenAssignmentStates))); err != nil {
		return false, fmt.Errorf("failed to check open assignments: %w", err)
	}
	return exists, nil
}

func (r *AssignmentRepository) Create(ctx context.Context, a *models.Assignment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = nowUTC()
	}

	query := `
		INSERT INTO assignments (
			id, asset_id, assignor_id, assignee_id, assigned_date, note, state,
			created_at, created_by, is_deleted
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, false)
	`
	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		a.ID, a.AssetID, a.AssignorID, a.AssigneeID, a.AssignedDate, a.Note, a.State,
		a.CreatedAt, a.CreatedBy)
	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	return nil
}

// Update writes the fields editable while the assignment waits for acceptance
func (r *AssignmentRepository) Update(ctx context.Context, a *models.Assignment) error {
	query := `
		UPDATE assignments
		SET asset_id = $2, assignee_id = $3, assigned_date = $4, note = $5,
			modified_at = $6, modified_by = $7
		WHERE id = $1 AND is_deleted = false
	`
	return execOne(ctx, r.db.conn(ctx), "update assignment", query,
		a.ID, a.AssetID, a.AssigneeID, a.AssignedDate, a.Note, a.ModifiedAt, a.ModifiedBy)
}

func (r *AssignmentRepository) UpdateState(ctx context.Context, id uuid.UUID, state models.AssignmentState, actor uuid.UUID) error {
	query := `UPDATE assignments SET state = $2, modified_at = $3, modified_by = $4 WHERE id = $1 AND is_deleted = false`
	return execOne(ctx, r.db.conn(ctx), "update assignment state", query, id, state, nowUTC(), actor)
}

func (r *AssignmentRepository) SoftDelete(ctx context.Context, id uuid.UUID, actor uuid.UUID) error {
	query := `UPDATE assignments SET is_deleted = true, deleted_at = $2, deleted_by = $3 WHERE id = $1 AND is_deleted = false`
	return execOne(ctx, r.db.conn(ctx), "delete assignment", query, id, nowUTC(), actor)
}
