package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/assetdesk/asset-backend/internal/models"
	"github.com/assetdesk/asset-backend/internal/query"
)

// AssetRepository handles asset database operations
type AssetRepository struct {
	db *PostgresDB
}

func NewAssetRepository(db *PostgresDB) *AssetRepository {
	return &AssetRepository{db: db}
}

var (
	assetColumns = `a.id, a.code, a.name, a.state, a.installed_date, a.location, a.specification,
		a.category_id, c.name AS category_name, ` + auditColumns("a")
	assetFrom = `assets a JOIN categories c ON c.id = a.category_id`
)

var assetSortSpec = query.SortSpec{
	Columns: map[string]string{
		"code":          "a.code",
		"assetcode":     "a.code",
		"name":          "a.name",
		"assetname":     "a.name",
		"category":      "c.name",
		"categoryname":  "c.name",
		"state":         "a.state",
		"installeddate": "a.installed_date",
		"createdat":     "a.created_at",
		"modifiedat":    "a.modified_at",
		"updatedat":     "a.modified_at",
	},
	Fallback: "a.created_at",
	Default:  "code",
	Tiebreak: "a.id",
}

// List returns one page of the assets in a location and the filtered total
func (r *AssetRepository) List(ctx context.Context, f AssetFilter) ([]models.Asset, int, error) {
	b := query.NewBuilder(assetColumns, assetFrom).
		Scope("a.location", string(f.Location)).
		Where("a.is_deleted = false").
		Search(f.Search, "a.code", "a.name").
		In("a.state", models.Strings(f.States)).
		InFold("c.name", f.Categories).
		OrderBy(f.Sort, assetSortSpec)

	assets, total, err := fetchPage[models.Asset](ctx, r.db.conn(ctx), b, f.Page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list assets: %w", err)
	}
	return assets, total, nil
}

// GetByID returns nil when the asset does not exist
func (r *AssetRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	return r.get(ctx, `SELECT `+assetColumns+` FROM `+assetFrom+` WHERE a.id = $1 AND a.is_deleted = false`, id)
}

// GetByIDForUpdate locks the asset row for the rest of the transaction
func (r *AssetRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	return r.get(ctx, `SELECT `+assetColumns+` FROM `+assetFrom+` WHERE a.id = $1 AND a.is_deleted = false FOR UPDATE OF a`, id)
}

func (r *AssetRepository) get(ctx context.Context, query string, id uuid.UUID) (*models.Asset, error) {
	var asset models.Asset
	if err := r.db.conn(ctx).GetContext(ctx, &asset, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	return &asset, nil
}

// LastCodeWithPrefix returns the highest code issued under prefix, deleted assets
// included, or "" when none was issued yet. Longer codes rank first once the
// counter outgrows its width.
func (r *AssetRepository) LastCodeWithPrefix(ctx context.Context, prefix string) (string, error) {
	var code string
	query := `SELECT code FROM assets WHERE code LIKE $1 ORDER BY LENGTH(code) DESC, code DESC LIMIT 1`
	err := r.db.conn(ctx).GetContext(ctx, &code, query, escapePrefix(prefix)+"%")
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get last asset code: %w", err)
	}
	return code, nil
}

func (r *AssetRepository) Create(ctx context.Context, asset *models.Asset) error {
	if asset.ID == uuid.Nil {
		asset.ID = uuid.New()
	}
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = nowUTC()
	}

	query := `
		INSERT INTO assets (
			id, code, name, state, installed_date, location, specification,
			category_id, created_at, created_by, is_deleted
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, false)
	`
	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		asset.ID, asset.Code, asset.Name, asset.State, asset.InstalledDate, asset.Location,
		asset.Specification, asset.CategoryID, asset.CreatedAt, asset.CreatedBy)
	if err != nil {
		return fmt.Errorf("failed to create asset: %w", err)
	}
	return nil
}

// Update writes the editable fields back
func (r *AssetRepository) Update(ctx context.Context, asset *models.Asset) error {
	query := `
		UPDATE assets
		SET name = $2, specification = $3, installed_date = $4, state = $5,
			modified_at = $6, modified_by = $7
		WHERE id = $1 AND is_deleted = false
	`
	return execOne(ctx, r.db.conn(ctx), "update asset", query,
		asset.ID, asset.Name, asset.Specification, asset.InstalledDate, asset.State,
		asset.ModifiedAt, asset.ModifiedBy)
}

// UpdateState moves an asset to state on behalf of actor
func (r *AssetRepository) UpdateState(ctx context.Context, id uuid.UUID, state models.AssetState, actor uuid.UUID) error {
	query := `UPDATE assets SET state = $2, modified_at = $3, modified_by = $4 WHERE id = $1 AND is_deleted = false`
	return execOne(ctx, r.db.conn(ctx), "update asset state", query, id, state, nowUTC(), actor)
}

func (r *AssetRepository) SoftDelete(ctx context.Context, id uuid.UUID, actor uuid.UUID) error {
	query := `UPDATE assets SET is_deleted = true, deleted_at = $2, deleted_by = $3 WHERE id = $1 AND is_deleted = false`
	return execOne(ctx, r.db.conn(ctx), "delete asset", query, id, nowUTC(), actor)
}
