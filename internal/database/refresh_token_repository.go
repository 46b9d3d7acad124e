package database

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/assetdesk/asset-backend/internal/models"
)

// RefreshTokenRepository handles refresh token database operations
type RefreshTokenRepository struct {
	db *PostgresDB
}

func NewRefreshTokenRepository(db *PostgresDB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// hashToken creates a SHA-256 hash of the token for storage
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// Store saves the hash of a freshly issued refresh token
func (r *RefreshTokenRepository) Store(ctx context.Context, userID uuid.UUID, token, ipAddress, userAgent string, expiresAt time.Time) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token_hash, ip_address, user_agent, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		uuid.New(), userID, hashToken(token),
		nullableString(ipAddress), nullableString(userAgent),
		nowUTC(), expiresAt)
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

// Get returns the stored token or nil when it was never issued
func (r *RefreshTokenRepository) Get(ctx context.Context, token string) (*models.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, ip_address, user_agent, created_at,
		       expires_at, last_used_at, revoked, revoked_at
		FROM refresh_tokens
		WHERE token_hash = $1
	`
	var stored models.RefreshToken
	if err := r.db.conn(ctx).GetContext(ctx, &stored, query, hashToken(token)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}
	return &stored, nil
}

// Touch records that the token was just exchanged
func (r *RefreshTokenRepository) Touch(ctx context.Context, token string) error {
	query := `UPDATE refresh_tokens SET last_used_at = $1 WHERE token_hash = $2`
	return execOne(ctx, r.db.conn(ctx), "update refresh token", query, nowUTC(), hashToken(token))
}

// Revoke revokes one token, revoking an already revoked token is not an error
func (r *RefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE, revoked_at = $1
		WHERE token_hash = $2 AND revoked = FALSE
	`
	if _, err := r.db.conn(ctx).ExecContext(ctx, query, nowUTC(), hashToken(token)); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// RevokeAllForUser revokes every live token of a user
func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE, revoked_at = $1
		WHERE user_id = $2 AND revoked = FALSE
	`
	if _, err := r.db.conn(ctx).ExecContext(ctx, query, nowUTC(), userID); err != nil {
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}
	return nil
}

// DeleteExpired removes expired tokens and revoked tokens older than retention
func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, retention time.Duration) (int64, error) {
	now := nowUTC()
	query := `
		DELETE FROM refresh_tokens
		WHERE expires_at < $1 OR (revoked = TRUE AND revoked_at < $2)
	`
	result, err := r.db.conn(ctx).ExecContext(ctx, query, now, now.Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup refresh tokens: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}
