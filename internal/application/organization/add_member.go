package organization

import (
	"context"
	"time"

	"github.com/amirhosseinghanipour/orgauth/internal/application/ports"
	"github.com/amirhosseinghanipour/orgauth/internal/domain"
	domerrors "github.com/amirhosseinghanipour/orgauth/internal/domain/errors"
)

type AddMemberInput struct {
	UserID domain.UserID
	Role   string
}

// AddMember attaches an existing user to the caller's organization.
type AddMember struct {
	users       ports.UserRepository
	memberships ports.MembershipRepository
}

func NewAddMember(users ports.UserRepository, memberships ports.MembershipRepository) *AddMember {
	return &AddMember{users: users, memberships: memberships}
}

func (uc *AddMember) Execute(ctx context.Context, orgCtx *domain.OrgContext, input AddMemberInput) (*domain.Membership, error) {
	if err := RequireRole(orgCtx, domain.ManagerRoles...); err != nil {
		return nil, err
	}
	role, ok := domain.ParseRole(input.Role)
	if !ok {
		return nil, domerrors.ErrInvalidRole
	}
	if role == domain.RoleOwner && orgCtx.Role != domain.RoleOwner {
		return nil, domerrors.ErrInsufficientRole
	}
	user, err := uc.users.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domerrors.ErrUserNotFound
	}
	existing, err := uc.memberships.Get(ctx, user.ID, orgCtx.OrgID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domerrors.ErrMemberExists
	}
	m := &domain.Membership{
		UserID:    user.ID,
		OrgID:     orgCtx.OrgID,
		Role:      role,
		CreatedAt: time.Now(),
	}
	// The store reports a concurrent insert of the same pair as ErrMemberExists.
	if err := uc.memberships.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}
