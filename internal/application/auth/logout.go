package auth

import (
	"context"
	"fmt"

	"github.com/amirhosseinghanipour/orgauth/internal/domain"
)

type LogoutInput struct {
	RefreshToken string
}

// LogoutResult names the session owner when a record was revoked. UserID is zero otherwise.
type LogoutResult struct {
	Revoked bool
	UserID  domain.UserID
}

// Logout revokes the record matching a refresh token. It is best-effort: an unknown,
// expired or already revoked token is not an error.
type Logout struct {
	sessions *SessionIssuer
}

func NewLogout(sessions *SessionIssuer) *Logout {
	return &Logout{sessions: sessions}
}

func (uc *Logout) Execute(ctx context.Context, input LogoutInput) (*LogoutResult, error) {
	if input.RefreshToken == "" {
		return &LogoutResult{}, nil
	}
	s := uc.sessions
	candidates, err := s.store.RefreshTokens().ListAllActive(ctx, s.now(), s.cfg.LogoutScanLimit)
	if err != nil {
		return nil, fmt.Errorf("list refresh tokens: %w", err)
	}
	match := s.matchRecord(input.RefreshToken, candidates)
	if match == nil {
		return &LogoutResult{}, nil
	}
	revoked, err := s.store.RefreshTokens().Revoke(ctx, match.ID, s.now())
	if err != nil {
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}
	return &LogoutResult{Revoked: revoked, UserID: match.UserID}, nil
}
