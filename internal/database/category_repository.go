package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/assetdesk/asset-backend/internal/models"
)

// CategoryRepository handles category database operations
type CategoryRepository struct {
	db *PostgresDB
}

func NewCategoryRepository(db *PostgresDB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

var categoryColumns = "c.id, c.name, c.prefix, " + auditColumns("c")

// List returns every category ordered by name
func (r *CategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories c WHERE c.is_deleted = false ORDER BY c.name, c.id`

	categories := []models.Category{}
	if err := r.db.conn(ctx).SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// GetByID returns nil when the category does not exist
func (r *CategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return r.get(ctx, `SELECT `+categoryColumns+` FROM categories c WHERE c.id = $1 AND c.is_deleted = false`, id)
}

// GetByIDForUpdate locks the category row. Asset code generation holds this lock
// so two inserts under one prefix cannot read the same last code.
func (r *CategoryRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return r.get(ctx, `SELECT `+categoryColumns+` FROM categories c WHERE c.id = $1 AND c.is_deleted = false FOR UPDATE`, id)
}

func (r *CategoryRepository) get(ctx context.Context, query string, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.conn(ctx).GetContext(ctx, &category, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &category, nil
}

// ExistsByName compares names case-insensitively
func (r *CategoryRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM categories WHERE LOWER(name) = LOWER($1) AND is_deleted = false)`
	if err := r.db.conn(ctx).GetContext(ctx, &exists, query, name); err != nil {
		return false, fmt.Errorf("failed to check category name: %w", err)
	}
	return exists, nil
}

// ExistsByPrefix also counts deleted categories, their codes are never reissued
func (r *CategoryRepository) ExistsByPrefix(ctx context.Context, prefix string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM categories WHERE UPPER(prefix) = UPPER($1))`
	if err := r.db.conn(ctx).GetContext(ctx, &exists, query, prefix); err != nil {
		return false, fmt.Errorf("failed to check category prefix: %w", err)
	}
	return exists, nil
}

func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	if category.CreatedAt.IsZero() {
		category.CreatedAt = nowUTC()
	}

	query := `
		INSERT INTO categories (id, name, prefix, created_at, created_by, is_deleted)
		VALUES ($1, $2, $3, $4, $5, false)
	`
	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		category.ID, category.Name, category.Prefix, category.CreatedAt, category.CreatedBy)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}
