package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/plantogether/api/internal/database"
	"github.com/plantogether/api/internal/service"
)

// TokenRepository handles refresh token data access
type TokenRepository struct {
	db database.Database
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db database.Database) *TokenRepository {
	return &TokenRepository{db: db}
}

// CreateRefreshToken stores a new refresh token
func (r *TokenRepository) CreateRefreshToken(ctx context.Context, token *service.RefreshToken) error {
	query := `
		CREATE refresh_token CONTENT {
			user: type::record($user),
			tokenHash: $token_hash,
			expiresAt: <datetime>$expires_at,
			createdAt: time::now(),
			revoked: false
		}
	`

	vars := map[string]interface{}{
		"user":       token.UserID, // UserID is in format "user:xxx"
		"token_hash": token.TokenHash,
		"expires_at": token.ExpiresAt.Format(time.RFC3339),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}

	created, err := extractCreatedRecord(result)
	if err != nil {
		return err
	}

	token.ID = created.ID
	token.CreatedAt = created.CreatedAt
	return nil
}

// GetRefreshTokenByHash retrieves a refresh token by its hash
func (r *TokenRepository) GetRefreshTokenByHash(ctx context.Context, hash string) (*service.RefreshToken, error) {
	query := `SELECT * FROM refresh_token WHERE tokenHash = $hash LIMIT 1`
	vars := map[string]interface{}{"hash": hash}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	token, err := parseRefreshTokenResult(result)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return token, nil
}

// RevokeRefreshToken marks a refresh token as revoked
func (r *TokenRepository) RevokeRefreshToken(ctx context.Context, hash string) error {
	query := `UPDATE refresh_token SET revoked = true WHERE tokenHash = $hash`
	vars := map[string]interface{}{"hash": hash}

	return r.db.Execute(ctx, query, vars)
}

// RevokeAllUserTokens revokes all refresh tokens for a user
func (r *TokenRepository) RevokeAllUserTokens(ctx context.Context, userID string) error {
	query := `UPDATE refresh_token SET revoked = true WHERE user = type::record($user)`
	vars := map[string]interface{}{"user": userID}

	return r.db.Execute(ctx, query, vars)
}

// DeleteExpiredTokens removes all expired refresh tokens
func (r *TokenRepository) DeleteExpiredTokens(ctx context.Context) error {
	query := `DELETE refresh_token WHERE expiresAt < time::now()`

	return r.db.Execute(ctx, query, nil)
}

// CleanupRevokedTokens removes tokens that have been revoked for more than 7 days
func (r *TokenRepository) CleanupRevokedTokens(ctx context.Context) error {
	cutoff := time.Now().Add(-7 * 24 * time.Hour).Format(time.RFC3339)
	query := `DELETE refresh_token WHERE revoked = true AND createdAt < <datetime>$cutoff`
	vars := map[string]interface{}{"cutoff": cutoff}

	return r.db.Execute(ctx, query, vars)
}

func parseRefreshTokenResult(result interface{}) (*service.RefreshToken, error) {
	data, err := unwrapRecord(result)
	if err != nil {
		return nil, err
	}

	if id, ok := data["id"]; ok {
		data["id"] = convertSurrealID(id)
	}
	if userID, ok := data["user"]; ok {
		data["userId"] = convertSurrealID(userID) // Map "user" to "userId" for struct
	}
	normalizeTimes(data, "expiresAt", "createdAt")

	var token service.RefreshToken
	if err := decodeRecord(data, &token); err != nil {
		return nil, err
	}

	return &token, nil
}
