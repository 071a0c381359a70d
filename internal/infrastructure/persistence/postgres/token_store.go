package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/amirhosseinghanipour/orgauth/internal/application/ports"
	"github.com/amirhosseinghanipour/orgauth/internal/domain"
)

const (
	createRefreshTokenSQL = `
INSERT INTO refresh_tokens (id, user_id, token_hash, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5)`
	listActiveByUserSQL = `
SELECT id, user_id, token_hash, created_at, expires_at, revoked_at
FROM refresh_tokens
WHERE user_id = $1 AND revoked_at IS NULL AND expires_at > $2
ORDER BY created_at DESC
LIMIT $3`
	listAllActiveSQL = `
SELECT id, user_id, token_hash, created_at, expires_at, revoked_at
FROM refresh_tokens
WHERE revoked_at IS NULL AND expires_at > $1
ORDER BY created_at DESC
LIMIT $2`
	// Conditional so that of two racing rotations only one sees a row affected.
	revokeRefreshTokenSQL = `UPDATE refresh_tokens SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL`
	deleteInactiveSQL     = `DELETE FROM refresh_tokens WHERE revoked_at < $1 OR expires_at < $1`
)

type TokenStore struct {
	q querier
}

var _ ports.RefreshTokenStore = (*TokenStore)(nil)

func (s *TokenStore) Create(ctx context.Context, rec *domain.RefreshTokenRecord) error {
	if _, err := s.q.Exec(ctx, createRefreshTokenSQL, rec.ID, rec.UserID.UUID, rec.TokenHash, rec.CreatedAt, rec.ExpiresAt); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

func (s *TokenStore) ListActiveByUser(ctx context.Context, userID domain.UserID, now time.Time, limit int) ([]*domain.RefreshTokenRecord, error) {
	return s.list(ctx, listActiveByUserSQL, userID.UUID, now, limit)
}

func (s *TokenStore) ListAllActive(ctx context.Context, now time.Time, limit int) ([]*domain.RefreshTokenRecord, error) {
	return s.list(ctx, listAllActiveSQL, now, limit)
}

func (s *TokenStore) list(ctx context.Context, sql string, args ...any) ([]*domain.RefreshTokenRecord, error) {
	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list refresh tokens: %w", err)
	}
	defer rows.Close()
	var out []*domain.RefreshTokenRecord
	for rows.Next() {
		var rec domain.RefreshTokenRecord
		if err := rows.Scan(&rec.ID, &rec.UserID.UUID, &rec.TokenHash, &rec.CreatedAt, &rec.ExpiresAt, &rec.RevokedAt); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (s *TokenStore) Revoke(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	tag, err := s.q.Exec(ctx, revokeRefreshTokenSQL, id, at)
	if err != nil {
		return false, fmt.Errorf("revoke refresh token: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *TokenStore) DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.q.Exec(ctx, deleteInactiveSQL, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete inactive refresh tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
