package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/amirhosseinghanipour/orgauth/internal/application/auth"
	"github.com/amirhosseinghanipour/orgauth/internal/application/ports"
	"github.com/amirhosseinghanipour/orgauth/internal/domain"
	domerrors "github.com/amirhosseinghanipour/orgauth/internal/domain/errors"
	jwtauth "github.com/amirhosseinghanipour/orgauth/internal/infrastructure/auth"
	"github.com/amirhosseinghanipour/orgauth/internal/infrastructure/lockout"
	"github.com/amirhosseinghanipour/orgauth/internal/infrastructure/persistence/memory"
	"github.com/amirhosseinghanipour/orgauth/internal/infrastructure/security"
)

type fixture struct {
	store    *memory.Store
	hasher   *security.Argon2Hasher
	issuer   *jwtauth.TokenIssuer
	sessions *auth.SessionIssuer
	register *auth.RegisterUser
	login    *auth.Login
	refresh  *auth.Refresh
	logout   *auth.Logout
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	hasher := security.NewArgon2Hasher(security.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1})
	issuer, err := jwtauth.NewTokenIssuer("access-secret", "refresh-secret", "orgauth-test")
	require.NoError(t, err)
	sessions := auth.NewSessionIssuer(store, issuer, hasher, auth.SessionConfig{})
	return &fixture{
		store:    store,
		hasher:   hasher,
		issuer:   issuer,
		sessions: sessions,
		register: auth.NewRegisterUser(store.Users(), hasher, sessions),
		login:    auth.NewLogin(store.Users(), hasher, sessions, nil),
		refresh:  auth.NewRefresh(sessions, issuer),
		logout:   auth.NewLogout(sessions),
	}
}

func TestRegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	reg, err := f.register.Execute(ctx, auth.RegisterUserInput{Email: "  A@X.com ", Password: "pw1"})
	require.NoError(t, err)
	require.Equal(t, "a@x.com", reg.User.Email)
	require.NotEmpty(t, reg.AccessToken)
	require.NotEmpty(t, reg.RefreshToken)
	require.EqualValues(t, auth.DefaultAccessTokenExpiry, reg.ExpiresIn)

	claims, err := f.issuer.ValidateAccessToken(reg.AccessToken)
	require.NoError(t, err)
	require.Equal(t, reg.User.ID, claims.UserID)

	res, err := f.login.Execute(ctx, auth.LoginInput{Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)
	require.Equal(t, reg.User.ID, res.User.ID)
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.register.Execute(ctx, auth.RegisterUserInput{Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)

	_, err = f.register.Execute(ctx, auth.RegisterUserInput{Email: "A@x.com", Password: "other"})
	require.ErrorIs(t, err, domerrors.ErrUserExists)
	require.Equal(t, domerrors.KindConflict, domerrors.KindOf(err))
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)
	_, err := f.register.Execute(context.Background(), auth.RegisterUserInput{Email: "not-an-email", Password: "pw"})
	require.ErrorIs(t, err, domerrors.ErrInvalidInput)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.register.Execute(ctx, auth.RegisterUserInput{Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)

	_, wrongPw := f.login.Execute(ctx, auth.LoginInput{Email: "a@x.com", Password: "nope"})
	_, unknown := f.login.Execute(ctx, auth.LoginInput{Email: "b@x.com", Password: "nope"})
	require.ErrorIs(t, wrongPw, domerrors.ErrInvalidCredentials)
	require.ErrorIs(t, unknown, domerrors.ErrInvalidCredentials)
	require.Equal(t, wrongPw.Error(), unknown.Error())
}

func TestLoginLockout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	hasher := security.NewArgon2Hasher(security.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1})
	locks := lockout.NewMemoryStore(2, time.Minute)
	login := auth.NewLogin(f.store.Users(), hasher, f.sessions, locks)
	_, err := f.register.Execute(ctx, auth.RegisterUserInput{Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = login.Execute(ctx, auth.LoginInput{Email: "a@x.com", Password: "bad"})
		require.ErrorIs(t, err, domerrors.ErrInvalidCredentials)
	}
	_, err = login.Execute(ctx, auth.LoginInput{Email: "a@x.com", Password: "pw1"})
	require.ErrorIs(t, err, domerrors.ErrAccountLocked)
}

func TestRefreshRotationEndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.register.Execute(ctx, auth.RegisterUserInput{Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)
	res, err := f.login.Execute(ctx, auth.LoginInput{Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)
	r0 := res.RefreshToken

	first, err := f.refresh.Execute(ctx, auth.RefreshInput{RefreshToken: r0})
	require.NoError(t, err)
	require.Equal(t, res.User.ID, first.UserID)
	require.NotEqual(t, r0, first.RefreshToken)
	require.NotEmpty(t, first.AccessToken)

	_, err = f.refresh.Execute(ctx, auth.RefreshInput{RefreshToken: r0})
	require.ErrorIs(t, err, domerrors.ErrTokenRevoked)
	require.Equal(t, domerrors.KindUnauthorized, domerrors.KindOf(err))

	second, err := f.refresh.Execute(ctx, auth.RefreshInput{RefreshToken: first.RefreshToken})
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = f.refresh.Execute(ctx, auth.RefreshInput{RefreshToken: first.RefreshToken})
	require.ErrorIs(t, err, domerrors.ErrTokenRevoked)
}

func TestRefreshRejectsInvalidTokens(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	reg, err := f.register.Execute(ctx, auth.RegisterUserInput{Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)

	for _, tok := range []string{"", "garbage", reg.AccessToken} {
		_, err := f.refresh.Execute(ctx, auth.RefreshInput{RefreshToken: tok})
		require.ErrorIs(t, err, domerrors.ErrInvalidToken, tok)
	}
}

func TestConcurrentRefreshSingleWinner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	reg, err := f.register.Execute(ctx, auth.RegisterUserInput{Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.refresh.Execute(ctx, auth.RefreshInput{RefreshToken: reg.RefreshToken})
		}(i)
	}
	wg.Wait()

	var ok, failed int
	for _, err := range errs {
		if err == nil {
			ok++
		} else if domerrors.KindOf(err) == domerrors.KindUnauthorized {
			failed++
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, 1, failed)
}

func TestLogoutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	reg, err := f.register.Execute(ctx, auth.RegisterUserInput{Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)

	out, err := f.logout.Execute(ctx, auth.LogoutInput{RefreshToken: reg.RefreshToken})
	require.NoError(t, err)
	require.True(t, out.Revoked)
	require.Equal(t, reg.User.ID, out.UserID)
	active, err := f.store.RefreshTokens().ListAllActive(ctx, time.Now(), 50)
	require.NoError(t, err)
	require.Empty(t, active)

	out, err = f.logout.Execute(ctx, auth.LogoutInput{RefreshToken: reg.RefreshToken})
	require.NoError(t, err)
	require.False(t, out.Revoked)
	out, err = f.logout.Execute(ctx, auth.LogoutInput{RefreshToken: "unknown"})
	require.NoError(t, err)
	require.False(t, out.Revoked)
	require.Equal(t, domain.UserID{}, out.UserID)

	_, err = f.refresh.Execute(ctx, auth.RefreshInput{RefreshToken: reg.RefreshToken})
	require.ErrorIs(t, err, domerrors.ErrTokenRevoked)
}

func TestMultipleSessionsPerUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	reg, err := f.register.Execute(ctx, auth.RegisterUserInput{Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)
	res, err := f.login.Execute(ctx, auth.LoginInput{Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)

	_, err = f.refresh.Execute(ctx, auth.RefreshInput{RefreshToken: reg.RefreshToken})
	require.NoError(t, err)
	_, err = f.refresh.Execute(ctx, auth.RefreshInput{RefreshToken: res.RefreshToken})
	require.NoError(t, err)
}

func TestStoredExpiryMatchesClaim(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	reg, err := f.register.Execute(ctx, auth.RegisterUserInput{Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)

	claims, err := f.issuer.ValidateRefreshToken(reg.RefreshToken)
	require.NoError(t, err)
	recs, err := f.store.RefreshTokens().ListActiveByUser(ctx, reg.User.ID, time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.True(t, recs[0].ExpiresAt.Equal(claims.ExpiresAt))
}

// tokenCreateFailingStore fails refresh-token inserts made inside transactions only,
// so sessions can still be created outside of them.
type tokenCreateFailingStore struct {
	ports.Store
	err error
}

func (s tokenCreateFailingStore) WithinTx(ctx context.Context, fn func(tx ports.Store) error) error {
	return s.Store.WithinTx(ctx, func(tx ports.Store) error {
		return fn(tokenCreateFailingTx{Store: tx, err: s.err})
	})
}

type tokenCreateFailingTx struct {
	ports.Store
	err error
}

func (t tokenCreateFailingTx) RefreshTokens() ports.RefreshTokenStore {
	return tokenCreateFailingTokens{RefreshTokenStore: t.Store.RefreshTokens(), err: t.err}
}

type tokenCreateFailingTokens struct {
	ports.RefreshTokenStore
	err error
}

func (s tokenCreateFailingTokens) Create(context.Context, *domain.RefreshTokenRecord) error { return s.err }

func TestRefreshRollsBackRevokeWhenInsertFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	reg, err := f.register.Execute(ctx, auth.RegisterUserInput{Email: "a@x.com", Password: "pw"})
	require.NoError(t, err)

	boom := errors.New("insert failed")
	brokenSessions := auth.NewSessionIssuer(tokenCreateFailingStore{Store: f.store, err: boom}, f.issuer, f.hasher, auth.SessionConfig{})
	_, err = auth.NewRefresh(brokenSessions, f.issuer).Execute(ctx, auth.RefreshInput{RefreshToken: reg.RefreshToken})
	require.ErrorIs(t, err, boom)

	// The revoke was rolled back with the failed insert: the old token is still the one active record.
	active, err := f.store.RefreshTokens().ListActiveByUser(ctx, reg.User.ID, time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, active, 1)

	res, err := f.refresh.Execute(ctx, auth.RefreshInput{RefreshToken: reg.RefreshToken})
	require.NoError(t, err)
	require.NotEqual(t, reg.RefreshToken, res.RefreshToken)
}
