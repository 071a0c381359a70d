package invitation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/amirhosseinghanipour/orgauth/internal/application/auth"
	"github.com/amirhosseinghanipour/orgauth/internal/application/organization"
	"github.com/amirhosseinghanipour/orgauth/internal/application/ports"
	"github.com/amirhosseinghanipour/orgauth/internal/domain"
	domerrors "github.com/amirhosseinghanipour/orgauth/internal/domain/errors"
)

const (
	DefaultInviteTTL       = 7 * 24 * time.Hour
	DefaultInviteScanLimit = 50
)

type CreateInviteInput struct {
	OrgID     domain.OrganizationID
	InviterID domain.UserID
	Email     string
	Role      string
}

// CreateInviteResult carries the raw token. It is returned once and never stored.
type CreateInviteResult struct {
	Invite *domain.Invitation
	Token  string
}

type CreateInvite struct {
	store       ports.Store
	tokens      ports.TokenGenerator
	tokenHasher ports.PasswordHasher
	ttl         time.Duration
	now         func() time.Time
}

func NewCreateInvite(store ports.Store, tokens ports.TokenGenerator, tokenHasher ports.PasswordHasher, ttl time.Duration) *CreateInvite {
	if ttl <= 0 {
		ttl = DefaultInviteTTL
	}
	return &CreateInvite{
		store:       store,
		tokens:      tokens,
		tokenHasher: tokenHasher,
		ttl:         ttl,
		now:         time.Now,
	}
}

func (uc *CreateInvite) Execute(ctx context.Context, input CreateInviteInput) (*CreateInviteResult, error) {
	orgCtx, err := organization.NewAccess(uc.store.Memberships()).ResolveMembership(ctx, input.InviterID, input.OrgID)
	if err != nil {
		return nil, err
	}
	if err := organization.RequireRole(orgCtx, domain.ManagerRoles...); err != nil {
		return nil, err
	}
	role, ok := domain.ParseRole(input.Role)
	if !ok {
		return nil, domerrors.ErrInvalidRole
	}
	if role == domain.RoleOwner && orgCtx.Role != domain.RoleOwner {
		return nil, domerrors.ErrInsufficientRole
	}
	email := auth.NormalizeEmail(input.Email)
	if email == "" {
		return nil, domerrors.ErrInvalidInput
	}

	existing, err := uc.store.Users().GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		m, err := uc.store.Memberships().Get(ctx, existing.ID, input.OrgID)
		if err != nil {
			return nil, err
		}
		if m != nil {
			return nil, domerrors.ErrAlreadyMember
		}
	}

	raw, err := uc.tokens.NewOpaqueToken()
	if err != nil {
		return nil, err
	}
	hash, err := uc.tokenHasher.Hash(raw)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	inv := &domain.Invitation{
		ID:        uuid.New(),
		OrgID:     input.OrgID,
		Email:     email,
		Role:      role,
		TokenHash: hash,
		Status:    domain.InviteStatusPending,
		InvitedBy: input.InviterID,
		ExpiresAt: now.Add(uc.ttl),
		CreatedAt: now,
	}
	if err := uc.store.Invites().Create(ctx, inv); err != nil {
		return nil, err
	}
	return &CreateInviteResult{Invite: inv, Token: raw}, nil
}
