package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/amirhosseinghanipour/orgauth/internal/domain"
)

func newIssuer(t *testing.T) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer("access-secret", "refresh-secret", "orgauth")
	require.NoError(t, err)
	return issuer
}

func TestIssueAndValidateAccessToken(t *testing.T) {
	issuer := newIssuer(t)
	uid := domain.NewUserID(uuid.New())

	token, err := issuer.IssueAccessToken(uid, "a@x.com", 15*time.Minute)
	require.NoError(t, err)

	claims, err := issuer.ValidateAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, uid, claims.UserID)
	require.Equal(t, "a@x.com", claims.Email)
}

func TestRefreshTokenClaimsMatchExpiry(t *testing.T) {
	issuer := newIssuer(t)
	uid := domain.NewUserID(uuid.New())

	token, issued, err := issuer.IssueRefreshToken(uid, "a@x.com", time.Hour)
	require.NoError(t, err)

	claims, err := issuer.ValidateRefreshToken(token)
	require.NoError(t, err)
	require.True(t, issued.ExpiresAt.Equal(claims.ExpiresAt))
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	issuer := newIssuer(t)
	uid := domain.NewUserID(uuid.New())

	access, err := issuer.IssueAccessToken(uid, "a@x.com", time.Minute)
	require.NoError(t, err)
	refresh, _, err := issuer.IssueRefreshToken(uid, "a@x.com", time.Minute)
	require.NoError(t, err)

	_, err = issuer.ValidateRefreshToken(access)
	require.Error(t, err)
	_, err = issuer.ValidateAccessToken(refresh)
	require.Error(t, err)
}

func TestTokensMintedTogetherDiffer(t *testing.T) {
	issuer := newIssuer(t)
	uid := domain.NewUserID(uuid.New())

	a, _, err := issuer.IssueRefreshToken(uid, "a@x.com", time.Hour)
	require.NoError(t, err)
	b, _, err := issuer.IssueRefreshToken(uid, "a@x.com", time.Hour)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestExpiredTokenRejected(t *testing.T) {
	issuer := newIssuer(t)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := issuer.IssueRefreshToken(domain.NewUserID(uuid.New()), "a@x.com", time.Hour)
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.ValidateRefreshToken(token)
	require.Error(t, err)
}

func TestNewTokenIssuerRejectsSharedSecret(t *testing.T) {
	_, err := NewTokenIssuer("same", "same", "orgauth")
	require.ErrorIs(t, err, ErrSameSecrets)

	_, err = NewTokenIssuer("", "refresh", "orgauth")
	require.Error(t, err)
}
