package ports

import (
	"time"

	"github.com/amirhosseinghanipour/orgauth/internal/domain"
)

// PasswordHasher hashes and verifies secrets (Argon2id). Used for passwords and opaque tokens.
type PasswordHasher interface {
	Hash(secret string) (string, error)
	Verify(secret, hash string) bool
}

// TokenClaims is the payload carried by access and refresh tokens.
type TokenClaims struct {
	UserID    domain.UserID
	Email     string
	ExpiresAt time.Time
}

// TokenIssuer signs and validates JWTs. Access and refresh tokens use distinct secrets.
type TokenIssuer interface {
	IssueAccessToken(userID domain.UserID, email string, ttl time.Duration) (string, error)
	IssueRefreshToken(userID domain.UserID, email string, ttl time.Duration) (string, *TokenClaims, error)
	ValidateAccessToken(tokenString string) (*TokenClaims, error)
	ValidateRefreshToken(tokenString string) (*TokenClaims, error)
}

// TokenGenerator produces opaque random tokens (≥256 bits).
type TokenGenerator interface {
	NewOpaqueToken() (string, error)
}
