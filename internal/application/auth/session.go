package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/amirhosseinghanipour/orgauth/internal/application/ports"
	"github.com/amirhosseinghanipour/orgauth/internal/domain"
)

const (
	DefaultAccessTokenExpiry  = 900     // 15 min
	DefaultRefreshTokenExpiry = 2592000 // 30 days
	DefaultRefreshScanLimit   = 10
	DefaultLogoutScanLimit    = 50
)

// SessionConfig holds token lifetimes (seconds) and candidate-scan bounds.
type SessionConfig struct {
	AccessExpiry     int64
	RefreshExpiry    int64
	RefreshScanLimit int
	LogoutScanLimit  int
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.AccessExpiry <= 0 {
		c.AccessExpiry = DefaultAccessTokenExpiry
	}
	if c.RefreshExpiry <= 0 {
		c.RefreshExpiry = DefaultRefreshTokenExpiry
	}
	if c.RefreshScanLimit <= 0 {
		c.RefreshScanLimit = DefaultRefreshScanLimit
	}
	if c.LogoutScanLimit <= 0 {
		c.LogoutScanLimit = DefaultLogoutScanLimit
	}
	return c
}

// Session is a freshly minted token pair.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// SessionIssuer mints token pairs and persists the hashed refresh token. Register, Login,
// Refresh and invite acceptance all go through it so they share one minting contract.
type SessionIssuer struct {
	store       ports.Store
	issuer      ports.TokenIssuer
	tokenHasher ports.PasswordHasher
	cfg         SessionConfig
	now         func() time.Time
}

func NewSessionIssuer(store ports.Store, issuer ports.TokenIssuer, tokenHasher ports.PasswordHasher, cfg SessionConfig) *SessionIssuer {
	return &SessionIssuer{
		store:       store,
		issuer:      issuer,
		tokenHasher: tokenHasher,
		cfg:         cfg.withDefaults(),
		now:         time.Now,
	}
}

// Config returns the effective configuration.
func (s *SessionIssuer) Config() SessionConfig { return s.cfg }

// CreateSessionForUser mints and persists a token pair without any credential check.
func (s *SessionIssuer) CreateSessionForUser(ctx context.Context, user *domain.User) (*Session, error) {
	session, rec, err := s.prepare(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	if err := s.store.RefreshTokens().Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return session, nil
}

// prepare signs both tokens and hashes the refresh token. Hashing happens here, outside
// any transaction, so transactions stay short.
func (s *SessionIssuer) prepare(userID domain.UserID, email string) (*Session, *domain.RefreshTokenRecord, error) {
	accessToken, err := s.issuer.IssueAccessToken(userID, email, time.Duration(s.cfg.AccessExpiry)*time.Second)
	if err != nil {
		return nil, nil, err
	}
	refreshToken, claims, err := s.issuer.IssueRefreshToken(userID, email, time.Duration(s.cfg.RefreshExpiry)*time.Second)
	if err != nil {
		return nil, nil, err
	}
	hash, err := s.tokenHasher.Hash(refreshToken)
	if err != nil {
		return nil, nil, fmt.Errorf("hash refresh token: %w", err)
	}
	rec := &domain.RefreshTokenRecord{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: hash,
		CreatedAt: s.now(),
		ExpiresAt: claims.ExpiresAt,
	}
	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.cfg.AccessExpiry,
	}, rec, nil
}

// matchRecord returns the first candidate whose hash verifies token. Every candidate up to
// the match is checked with the hasher's own comparison.
func (s *SessionIssuer) matchRecord(token string, candidates []*domain.RefreshTokenRecord) *domain.RefreshTokenRecord {
	for _, rec := range candidates {
		if s.tokenHasher.Verify(token, rec.TokenHash) {
			return rec
		}
	}
	return nil
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
