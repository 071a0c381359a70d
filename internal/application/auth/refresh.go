package auth

import (
	"context"
	"fmt"

	"github.com/amirhosseinghanipour/orgauth/internal/application/ports"
	"github.com/amirhosseinghanipour/orgauth/internal/domain"
	domerrors "github.com/amirhosseinghanipour/orgauth/internal/domain/errors"
)

type RefreshInput struct {
	RefreshToken string
}

type RefreshResult struct {
	Session
	UserID domain.UserID
}

// Refresh exchanges a refresh token for a new pair and revokes the presented one (rotate-on-use).
type Refresh struct {
	sessions *SessionIssuer
	issuer   ports.TokenIssuer
}

func NewRefresh(sessions *SessionIssuer, issuer ports.TokenIssuer) *Refresh {
	return &Refresh{sessions: sessions, issuer: issuer}
}

func (uc *Refresh) Execute(ctx context.Context, input RefreshInput) (*RefreshResult, error) {
	if input.RefreshToken == "" {
		return nil, domerrors.ErrInvalidToken
	}
	claims, err := uc.issuer.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		return nil, domerrors.ErrInvalidToken
	}
	s := uc.sessions
	candidates, err := s.store.RefreshTokens().ListActiveByUser(ctx, claims.UserID, s.now(), s.cfg.RefreshScanLimit)
	if err != nil {
		return nil, fmt.Errorf("list refresh tokens: %w", err)
	}
	// A token rotated earlier has a revoked record and is no longer a candidate.
	match := s.matchRecord(input.RefreshToken, candidates)
	if match == nil {
		return nil, domerrors.ErrTokenRevoked
	}
	session, rec, err := s.prepare(claims.UserID, claims.Email)
	if err != nil {
		return nil, err
	}
	err = s.store.WithinTx(ctx, func(tx ports.Store) error {
		revoked, err := tx.RefreshTokens().Revoke(ctx, match.ID, s.now())
		if err != nil {
			return err
		}
		if !revoked {
			// Lost a race with another rotation or logout of the same token.
			return domerrors.ErrTokenRevoked
		}
		return tx.RefreshTokens().Create(ctx, rec)
	})
	if err != nil {
		return nil, err
	}
	return &RefreshResult{Session: *session, UserID: claims.UserID}, nil
}
