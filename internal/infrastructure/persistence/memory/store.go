// Package memory is an in-process credential store. It backs tests and local runs without Postgres.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amirhosseinghanipour/orgauth/internal/application/ports"
	"github.com/amirhosseinghanipour/orgauth/internal/domain"
	domerrors "github.com/amirhosseinghanipour/orgauth/internal/domain/errors"
)

type membershipKey struct {
	user uuid.UUID
	org  uuid.UUID
}

type state struct {
	users       map[uuid.UUID]domain.User
	orgs        map[uuid.UUID]domain.Organization
	memberships map[membershipKey]domain.Membership
	tokens      map[uuid.UUID]domain.RefreshTokenRecord
	invites     map[uuid.UUID]domain.Invitation
}

func newState() *state {
	return &state{
		users:       map[uuid.UUID]domain.User{},
		orgs:        map[uuid.UUID]domain.Organization{},
		memberships: map[membershipKey]domain.Membership{},
		tokens:      map[uuid.UUID]domain.RefreshTokenRecord{},
		invites:     map[uuid.UUID]domain.Invitation{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.orgs {
		c.orgs[k] = v
	}
	for k, v := range s.memberships {
		c.memberships[k] = v
	}
	for k, v := range s.tokens {
		c.tokens[k] = v
	}
	for k, v := range s.invites {
		c.invites[k] = v
	}
	return c
}

// Store implements ports.Store. Transactions take the store lock for their whole duration
// and work on a copy that replaces the live state only on commit.
type Store struct {
	mu   *sync.Mutex
	data *state
	inTx bool
}

var _ ports.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{mu: &sync.Mutex{}, data: newState()}
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Users() ports.UserRepository                 { return userRepo{s} }
func (s *Store) Organizations() ports.OrganizationRepository { return orgRepo{s} }
func (s *Store) Memberships() ports.MembershipRepository     { return membershipRepo{s} }
func (s *Store) RefreshTokens() ports.RefreshTokenStore      { return tokenRepo{s} }
func (s *Store) Invites() ports.InviteRepository             { return inviteRepo{s} }

func (s *Store) WithinTx(ctx context.Context, fn func(tx ports.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &Store{mu: s.mu, data: s.data.clone(), inTx: true}
	if err := fn(tx); err != nil {
		return err
	}
	s.data = tx.data
	return nil
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *domain.User) error {
	defer r.s.lock()()
	for _, u := range r.s.data.users {
		if u.Email == user.Email {
			return domerrors.ErrUserExists
		}
	}
	r.s.data.users[user.ID.UUID] = *user
	return nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	defer r.s.lock()()
	for _, u := range r.s.data.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r userRepo) GetByID(_ context.Context, userID domain.UserID) (*domain.User, error) {
	defer r.s.lock()()
	u, ok := r.s.data.users[userID.UUID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

type orgRepo struct{ s *Store }

func (r orgRepo) Create(_ context.Context, org *domain.Organization) error {
	defer r.s.lock()()
	r.s.data.orgs[org.ID.UUID] = *org
	return nil
}

func (r orgRepo) GetByID(_ context.Context, orgID domain.OrganizationID) (*domain.Organization, error) {
	defer r.s.lock()()
	o, ok := r.s.data.orgs[orgID.UUID]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

type membershipRepo struct{ s *Store }

func (r membershipRepo) Get(_ context.Context, userID domain.UserID, orgID domain.OrganizationID) (*domain.Membership, error) {
	defer r.s.lock()()
	m, ok := r.s.data.memberships[membershipKey{userID.UUID, orgID.UUID}]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r membershipRepo) Create(_ context.Context, m *domain.Membership) error {
	defer r.s.lock()()
	key := membershipKey{m.UserID.UUID, m.OrgID.UUID}
	if _, ok := r.s.data.memberships[key]; ok {
		return domerrors.ErrMemberExists
	}
	r.s.data.memberships[key] = *m
	return nil
}

func (r membershipRepo) Upsert(_ context.Context, m *domain.Membership) error {
	defer r.s.lock()()
	key := membershipKey{m.UserID.UUID, m.OrgID.UUID}
	if cur, ok := r.s.data.memberships[key]; ok {
		cur.Role = m.Role
		r.s.data.memberships[key] = cur
		return nil
	}
	r.s.data.memberships[key] = *m
	return nil
}

func (r membershipRepo) ListByUser(_ context.Context, userID domain.UserID) ([]*domain.MyOrganization, error) {
	defer r.s.lock()()
	var ms []domain.Membership
	for _, m := range r.s.data.memberships {
		if m.UserID == userID {
			ms = append(ms, m)
		}
	}
	sort.SliceStable(ms, func(i, j int) bool { return ms[i].CreatedAt.After(ms[j].CreatedAt) })
	out := make([]*domain.MyOrganization, 0, len(ms))
	for _, m := range ms {
		org, ok := r.s.data.orgs[m.OrgID.UUID]
		if !ok {
			continue
		}
		out = append(out, &domain.MyOrganization{Organization: org, MyRole: m.Role})
	}
	return out, nil
}

func (r membershipRepo) ListByOrg(_ context.Context, orgID domain.OrganizationID) ([]*domain.Member, error) {
	defer r.s.lock()()
	var ms []domain.Membership
	for _, m := range r.s.data.memberships {
		if m.OrgID == orgID {
			ms = append(ms, m)
		}
	}
	sort.SliceStable(ms, func(i, j int) bool { return ms[i].CreatedAt.Before(ms[j].CreatedAt) })
	out := make([]*domain.Member, 0, len(ms))
	for _, m := range ms {
		u, ok := r.s.data.users[m.UserID.UUID]
		if !ok {
			continue
		}
		out = append(out, &domain.Member{UserID: m.UserID, Email: u.Email, Role: m.Role, CreatedAt: m.CreatedAt})
	}
	return out, nil
}

type tokenRepo struct{ s *Store }

func (r tokenRepo) Create(_ context.Context, rec *domain.RefreshTokenRecord) error {
	defer r.s.lock()()
	r.s.data.tokens[rec.ID] = *rec
	return nil
}

func (r tokenRepo) ListActiveByUser(_ context.Context, userID domain.UserID, now time.Time, limit int) ([]*domain.RefreshTokenRecord, error) {
	defer r.s.lock()()
	return r.active(now, limit, func(rec *domain.RefreshTokenRecord) bool { return rec.UserID == userID }), nil
}

func (r tokenRepo) ListAllActive(_ context.Context, now time.Time, limit int) ([]*domain.RefreshTokenRecord, error) {
	defer r.s.lock()()
	return r.active(now, limit, func(*domain.RefreshTokenRecord) bool { return true }), nil
}

func (r tokenRepo) active(now time.Time, limit int, keep func(*domain.RefreshTokenRecord) bool) []*domain.RefreshTokenRecord {
	var out []*domain.RefreshTokenRecord
	for _, rec := range r.s.data.tokens {
		rec := rec
		if rec.Active(now) && keep(&rec) {
			out = append(out, &rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r tokenRepo) Revoke(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	defer r.s.lock()()
	rec, ok := r.s.data.tokens[id]
	if !ok || rec.RevokedAt != nil {
		return false, nil
	}
	rec.RevokedAt = &at
	r.s.data.tokens[id] = rec
	return true, nil
}

func (r tokenRepo) DeleteInactiveBefore(_ context.Context, cutoff time.Time) (int64, error) {
	defer r.s.lock()()
	var n int64
	for id, rec := range r.s.data.tokens {
		if (rec.RevokedAt != nil && rec.RevokedAt.Before(cutoff)) || rec.ExpiresAt.Before(cutoff) {
			delete(r.s.data.tokens, id)
			n++
		}
	}
	return n, nil
}

type inviteRepo struct{ s *Store }

func (r inviteRepo) Create(_ context.Context, inv *domain.Invitation) error {
	defer r.s.lock()()
	r.s.data.invites[inv.ID] = *inv
	return nil
}

func (r inviteRepo) ListPendingUnexpired(_ context.Context, now time.Time, limit int) ([]*domain.Invitation, error) {
	defer r.s.lock()()
	var out []*domain.Invitation
	for _, inv := range r.s.data.invites {
		inv := inv
		if inv.Acceptable(now) {
			out = append(out, &inv)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r inviteRepo) MarkAccepted(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	defer r.s.lock()()
	inv, ok := r.s.data.invites[id]
	if !ok || !inv.Acceptable(at) {
		return false, nil
	}
	inv.Status = domain.InviteStatusAccepted
	inv.AcceptedAt = &at
	r.s.data.invites[id] = inv
	return true, nil
}
