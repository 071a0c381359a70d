package domain

import (
	"time"

	"github.com/google/uuid"
)

// RefreshTokenRecord is one issued refresh token. Only RevokedAt is ever written after insert.
type RefreshTokenRecord struct {
	ID        uuid.UUID
	UserID    UserID
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// Active reports whether the record can still validate a token at now.
func (r *RefreshTokenRecord) Active(now time.Time) bool {
	return r.RevokedAt == nil && r.ExpiresAt.After(now)
}
