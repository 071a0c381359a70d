package invitation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/amirhosseinghanipour/orgauth/internal/application/auth"
	"github.com/amirhosseinghanipour/orgauth/internal/application/invitation"
	"github.com/amirhosseinghanipour/orgauth/internal/application/organization"
	"github.com/amirhosseinghanipour/orgauth/internal/application/ports"
	"github.com/amirhosseinghanipour/orgauth/internal/domain"
	domerrors "github.com/amirhosseinghanipour/orgauth/internal/domain/errors"
	jwtauth "github.com/amirhosseinghanipour/orgauth/internal/infrastructure/auth"
	"github.com/amirhosseinghanipour/orgauth/internal/infrastructure/persistence/memory"
	"github.com/amirhosseinghanipour/orgauth/internal/infrastructure/security"
)

type fixture struct {
	store    *memory.Store
	hasher   *security.Argon2Hasher
	sessions *auth.SessionIssuer
	create   *invitation.CreateInvite
	accept   *invitation.AcceptInvite
	login    *auth.Login
	owner    *domain.User
	orgID    domain.OrganizationID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	hasher := security.NewArgon2Hasher(security.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1})
	issuer, err := jwtauth.NewTokenIssuer("access-secret", "refresh-secret", "orgauth-test")
	require.NoError(t, err)
	sessions := auth.NewSessionIssuer(store, issuer, hasher, auth.SessionConfig{})

	ownerPw, err := hasher.Hash("owner-pw")
	require.NoError(t, err)
	owner := &domain.User{ID: domain.NewUserID(uuid.New()), Email: "owner@x.com", PasswordHash: ownerPw, CreatedAt: time.Now()}
	require.NoError(t, store.Users().Create(ctx, owner))
	org, err := organization.NewCreateOrganization(store).Execute(ctx, owner.ID, "Acme")
	require.NoError(t, err)

	return &fixture{
		store:    store,
		hasher:   hasher,
		sessions: sessions,
		create:   invitation.NewCreateInvite(store, security.NewRandomTokenGenerator(), hasher, 0),
		accept:   invitation.NewAcceptInvite(store, hasher, hasher, sessions, 0),
		login:    auth.NewLogin(store.Users(), hasher, sessions, nil),
		owner:    owner,
		orgID:    org.ID,
	}
}

func (f *fixture) addUser(t *testing.T, email string, role domain.Role) *domain.User {
	t.Helper()
	ctx := context.Background()
	pw, err := f.hasher.Hash("pw")
	require.NoError(t, err)
	u := &domain.User{ID: domain.NewUserID(uuid.New()), Email: email, PasswordHash: pw, CreatedAt: time.Now()}
	require.NoError(t, f.store.Users().Create(ctx, u))
	if role != "" {
		require.NoError(t, f.store.Memberships().Create(ctx, &domain.Membership{UserID: u.ID, OrgID: f.orgID, Role: role, CreatedAt: time.Now()}))
	}
	return u
}

// upsertFailingStore runs transactions against the wrapped store but fails every
// membership upsert made inside them.
type upsertFailingStore struct {
	ports.Store
	err error
}

func (s upsertFailingStore) WithinTx(ctx context.Context, fn func(tx ports.Store) error) error {
	return s.Store.WithinTx(ctx, func(tx ports.Store) error {
		return fn(upsertFailingTx{Store: tx, err: s.err})
	})
}

type upsertFailingTx struct {
	ports.Store
	err error
}

func (t upsertFailingTx) Memberships() ports.MembershipRepository {
	return upsertFailingMemberships{MembershipRepository: t.Store.Memberships(), err: t.err}
}

type upsertFailingMemberships struct {
	ports.MembershipRepository
	err error
}

func (m upsertFailingMemberships) Upsert(context.Context, *domain.Membership) error { return m.err }

func TestCreateInviteRequiresManager(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	member := f.addUser(t, "m@x.com", domain.RoleMember)
	outsider := f.addUser(t, "o@x.com", "")

	_, err := f.create.Execute(ctx, invitation.CreateInviteInput{OrgID: f.orgID, InviterID: member.ID, Email: "new@x.com"})
	require.ErrorIs(t, err, domerrors.ErrInsufficientRole)
	require.Equal(t, domerrors.KindForbidden, domerrors.KindOf(err))

	_, err = f.create.Execute(ctx, invitation.CreateInviteInput{OrgID: f.orgID, InviterID: outsider.ID, Email: "new@x.com"})
	require.ErrorIs(t, err, domerrors.ErrNotMember)
}

func TestCreateInviteRejectsExistingMember(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "m@x.com", domain.RoleMember)

	_, err := f.create.Execute(ctx, invitation.CreateInviteInput{OrgID: f.orgID, InviterID: f.owner.ID, Email: "M@x.com"})
	require.ErrorIs(t, err, domerrors.ErrAlreadyMember)
	require.Equal(t, domerrors.KindBadRequest, domerrors.KindOf(err))
}

func TestOnlyOwnerInvitesOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.addUser(t, "admin@x.com", domain.RoleAdmin)

	_, err := f.create.Execute(ctx, invitation.CreateInviteInput{OrgID: f.orgID, InviterID: admin.ID, Email: "new@x.com", Role: "OWNER"})
	require.ErrorIs(t, err, domerrors.ErrInsufficientRole)

	res, err := f.create.Execute(ctx, invitation.CreateInviteInput{OrgID: f.orgID, InviterID: admin.ID, Email: "new@x.com", Role: "admin"})
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, res.Invite.Role)
}

func TestInviteLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.create.Execute(ctx, invitation.CreateInviteInput{OrgID: f.orgID, InviterID: f.owner.ID, Email: "New@x.com"})
	require.NoError(t, err)
	require.Equal(t, domain.InviteStatusPending, res.Invite.Status)
	require.Equal(t, domain.RoleMember, res.Invite.Role)
	require.Equal(t, "new@x.com", res.Invite.Email)
	require.NotEqual(t, res.Token, res.Invite.TokenHash)
	require.WithinDuration(t, time.Now().Add(invitation.DefaultInviteTTL), res.Invite.ExpiresAt, time.Minute)

	accepted, err := f.accept.Execute(ctx, invitation.AcceptInviteInput{Token: res.Token, Password: "new-pw"})
	require.NoError(t, err)
	require.Equal(t, f.orgID, accepted.OrgID)
	require.Equal(t, "new@x.com", accepted.Email)
	require.Equal(t, domain.RoleMember, accepted.Role)
	require.NotEmpty(t, accepted.AccessToken)
	require.NotEmpty(t, accepted.RefreshToken)

	user, err := f.store.Users().GetByID(ctx, accepted.UserID)
	require.NoError(t, err)
	require.True(t, user.IsVerified)

	members, err := f.store.Memberships().ListByOrg(ctx, f.orgID)
	require.NoError(t, err)
	require.Len(t, members, 2)

	pending, err := f.store.Invites().ListPendingUnexpired(ctx, time.Now(), 50)
	require.NoError(t, err)
	require.Empty(t, pending)

	_, err = f.accept.Execute(ctx, invitation.AcceptInviteInput{Token: res.Token, Password: "new-pw"})
	require.ErrorIs(t, err, domerrors.ErrInviteInvalid)
	require.Equal(t, domerrors.KindBadRequest, domerrors.KindOf(err))

	// the invited password works for login
	_, err = f.login.Execute(ctx, auth.LoginInput{Email: "new@x.com", Password: "new-pw"})
	require.NoError(t, err)
}

func TestAcceptInviteExistingUserKeepsPassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	existing := f.addUser(t, "e@x.com", "")

	res, err := f.create.Execute(ctx, invitation.CreateInviteInput{OrgID: f.orgID, InviterID: f.owner.ID, Email: "e@x.com", Role: "ADMIN"})
	require.NoError(t, err)

	accepted, err := f.accept.Execute(ctx, invitation.AcceptInviteInput{Token: res.Token, Password: "ignored"})
	require.NoError(t, err)
	require.Equal(t, existing.ID, accepted.UserID)

	m, err := f.store.Memberships().Get(ctx, existing.ID, f.orgID)
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, m.Role)

	_, err = f.login.Execute(ctx, auth.LoginInput{Email: "e@x.com", Password: "pw"})
	require.NoError(t, err)
}

func TestAcceptInviteNeverDowngrades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.addUser(t, "admin@x.com", "")

	res, err := f.create.Execute(ctx, invitation.CreateInviteInput{OrgID: f.orgID, InviterID: f.owner.ID, Email: "admin@x.com", Role: "MEMBER"})
	require.NoError(t, err)
	// promoted after the invite was sent
	require.NoError(t, f.store.Memberships().Create(ctx, &domain.Membership{UserID: admin.ID, OrgID: f.orgID, Role: domain.RoleAdmin, CreatedAt: time.Now()}))

	accepted, err := f.accept.Execute(ctx, invitation.AcceptInviteInput{Token: res.Token})
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, accepted.Role)

	m, err := f.store.Memberships().Get(ctx, admin.ID, f.orgID)
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, m.Role)
}

func TestExpiredInviteNeverMatches(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	res, err := f.create.Execute(ctx, invitation.CreateInviteInput{OrgID: f.orgID, InviterID: f.owner.ID, Email: "late@x.com"})
	require.NoError(t, err)

	inv := *res.Invite
	inv.ID = uuid.New()
	inv.ExpiresAt = time.Now().Add(-time.Minute)
	// replace the live invite with an expired copy carrying the same hash
	_, err = f.store.Invites().MarkAccepted(ctx, res.Invite.ID, time.Now())
	require.NoError(t, err)
	require.NoError(t, f.store.Invites().Create(ctx, &inv))

	_, err = f.accept.Execute(ctx, invitation.AcceptInviteInput{Token: res.Token, Password: "pw"})
	require.ErrorIs(t, err, domerrors.ErrInviteInvalid)

	u, err := f.store.Users().GetByEmail(ctx, "late@x.com")
	require.NoError(t, err)
	require.Nil(t, u)
}

func TestAcceptInviteUnknownToken(t *testing.T) {
	f := newFixture(t)
	_, err := f.accept.Execute(context.Background(), invitation.AcceptInviteInput{Token: "deadbeef", Password: "pw"})
	require.ErrorIs(t, err, domerrors.ErrInviteInvalid)

	_, err = f.accept.Execute(context.Background(), invitation.AcceptInviteInput{Password: "pw"})
	require.ErrorIs(t, err, domerrors.ErrInviteInvalid)
}

func TestAcceptInviteNewUserNeedsPassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	res, err := f.create.Execute(ctx, invitation.CreateInviteInput{OrgID: f.orgID, InviterID: f.owner.ID, Email: "new@x.com"})
	require.NoError(t, err)

	_, err = f.accept.Execute(ctx, invitation.AcceptInviteInput{Token: res.Token})
	require.ErrorIs(t, err, domerrors.ErrInvalidInput)

	// still redeemable afterwards
	_, err = f.accept.Execute(ctx, invitation.AcceptInviteInput{Token: res.Token, Password: "pw"})
	require.NoError(t, err)
}

func TestAcceptInviteRollsBackWhenMembershipFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	res, err := f.create.Execute(ctx, invitation.CreateInviteInput{OrgID: f.orgID, InviterID: f.owner.ID, Email: "new@x.com"})
	require.NoError(t, err)

	boom := errors.New("membership write failed")
	broken := invitation.NewAcceptInvite(upsertFailingStore{Store: f.store, err: boom}, f.hasher, f.hasher, f.sessions, 0)
	_, err = broken.Execute(ctx, invitation.AcceptInviteInput{Token: res.Token, Password: "pw"})
	require.ErrorIs(t, err, boom)

	// Neither the ACCEPTED mark nor the new user survived the failed unit.
	pending, err := f.store.Invites().ListPendingUnexpired(ctx, time.Now(), 50)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, res.Invite.ID, pending[0].ID)
	require.Equal(t, domain.InviteStatusPending, pending[0].Status)

	u, err := f.store.Users().GetByEmail(ctx, "new@x.com")
	require.NoError(t, err)
	require.Nil(t, u)

	members, err := f.store.Memberships().ListByOrg(ctx, f.orgID)
	require.NoError(t, err)
	require.Len(t, members, 1)

	accepted, err := f.accept.Execute(ctx, invitation.AcceptInviteInput{Token: res.Token, Password: "pw"})
	require.NoError(t, err)
	require.Equal(t, domain.RoleMember, accepted.Role)
}
