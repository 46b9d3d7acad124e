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

// UserRepository handles user database operations
type UserRepository struct {
	db *PostgresDB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *PostgresDB) *UserRepository {
	return &UserRepository{db: db}
}

var userColumns = `u.id, u.staff_code, u.first_name, u.last_name, u.username, u.password_hash,
	u.type, u.location, u.gender, u.date_of_birth, u.joined_date, u.is_active,
	u.is_password_updated, ` + auditColumns("u")

var userSortSpec = query.SortSpec{
	Columns: map[string]string{
		"staffcode":  "u.staff_code",
		"fullname":   "(u.first_name || ' ' || u.last_name)",
		"name":       "(u.first_name || ' ' || u.last_name)",
		"firstname":  "u.first_name",
		"lastname":   "u.last_name",
		"username":   "u.username",
		"joineddate": "u.joined_date",
		"type":       "u.type",
		"createdat":  "u.created_at",
	},
	Fallback: "u.created_at",
	Default:  "staffCode",
	Tiebreak: "u.id",
}

// List returns one page of the active users in a location
func (r *UserRepository) List(ctx context.Context, f UserFilter) ([]models.User, int, error) {
	b := query.NewBuilder(userColumns, "users u").
		Scope("u.location", string(f.Location)).
		Where("u.is_deleted = false AND u.is_active = true").
		Search(f.Search,
			"u.first_name || ' ' || u.last_name",
			"u.last_name || ' ' || u.first_name",
			"u.staff_code").
		In("u.type", models.Strings(f.Types)).
		OrderBy(f.Sort, userSortSpec)

	users, total, err := fetchPage[models.User](ctx, r.db.conn(ctx), b, f.Page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// GetByID returns nil when the user does not exist. Disabled users are returned.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = $1 AND u.is_deleted = false`, id)
}

func (r *UserRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = $1 AND u.is_deleted = false FOR UPDATE`, id)
}

// GetByUsername matches case-insensitively
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users u WHERE LOWER(u.username) = LOWER($1) AND u.is_deleted = false`, username)
}

func (r *UserRepository) get(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.conn(ctx).GetContext(ctx, &user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found, return nil without error
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// UsernamesWithPrefix lists every username starting with base, deleted users included
func (r *UserRepository) UsernamesWithPrefix(ctx context.Context, base string) ([]string, error) {
	names := []string{}
	query := `SELECT username FROM users WHERE LOWER(username) LIKE $1`
	if err := r.db.conn(ctx).SelectContext(ctx, &names, query, escapePrefix(base)+"%"); err != nil {
		return nil, fmt.Errorf("failed to list usernames: %w", err)
	}
	return names, nil
}

// LastStaffCode returns the highest staff code issued, or "" for an empty table.
// Longer codes rank first so SD10000 beats SD9999.
func (r *UserRepository) LastStaffCode(ctx context.Context) (string, error) {
	var code string
	query := `SELECT staff_code FROM users ORDER BY LENGTH(staff_code) DESC, staff_code DESC LIMIT 1`
	if err := r.db.conn(ctx).GetContext(ctx, &code, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get last staff code: %w", err)
	}
	return code, nil
}

// LockStaffCodes serialises staff code generation until the transaction ends
func (r *UserRepository) LockStaffCodes(ctx context.Context) error {
	if _, err := r.db.conn(ctx).ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext('users.staff_code'))`); err != nil {
		return fmt.Errorf("failed to lock staff codes: %w", err)
	}
	return nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = nowUTC()
	}

	query := `
		INSERT INTO users (
			id, staff_code, first_name, last_name, username, password_hash,
			type, location, gender, date_of_birth, joined_date,
			is_active, is_password_updated, created_at, created_by, is_deleted
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, false)
	`
	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		user.ID, user.StaffCode, user.FirstName, user.LastName, user.Username, user.PasswordHash,
		user.Type, user.Location, user.Gender, user.DateOfBirth, user.JoinedDate,
		user.IsActive, user.IsPasswordUpdated, user.CreatedAt, user.CreatedBy)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Update writes the profile fields an admin may edit
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET date_of_birth = $2, joined_date = $3, gender = $4, type = $5,
			modified_at = $6, modified_by = $7
		WHERE id = $1 AND is_deleted = false
	`
	return execOne(ctx, r.db.conn(ctx), "update user", query,
		user.ID, user.DateOfBirth, user.JoinedDate, user.Gender, user.Type, user.ModifiedAt, user.ModifiedBy)
}

// Disable deactivates a user, the row stays for history
func (r *UserRepository) Disable(ctx context.Context, id uuid.UUID, actor uuid.UUID) error {
	query := `UPDATE users SET is_active = false, modified_at = $2, modified_by = $3 WHERE id = $1 AND is_deleted = false`
	return execOne(ctx, r.db.conn(ctx), "disable user", query, id, nowUTC(), actor)
}

// UpdatePassword stores a new hash and clears the first-login flag
func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	query := `
		UPDATE users
		SET password_hash = $2, is_password_updated = true, modified_at = $3, modified_by = $1
		WHERE id = $1 AND is_deleted = false
	`
	return execOne(ctx, r.db.conn(ctx), "update password", query, id, hash, nowUTC())
}
