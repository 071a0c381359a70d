package organization

import (
	"context"

	"github.com/amirhosseinghanipour/orgauth/internal/application/ports"
	"github.com/amirhosseinghanipour/orgauth/internal/domain"
	domerrors "github.com/amirhosseinghanipour/orgauth/internal/domain/errors"
)

// Access resolves a caller's membership in an organization.
type Access struct {
	memberships ports.MembershipRepository
}

func NewAccess(memberships ports.MembershipRepository) *Access {
	return &Access{memberships: memberships}
}

// ResolveMembership returns the caller's org context, or ErrNotMember.
func (a *Access) ResolveMembership(ctx context.Context, userID domain.UserID, orgID domain.OrganizationID) (*domain.OrgContext, error) {
	m, err := a.memberships.Get(ctx, userID, orgID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domerrors.ErrNotMember
	}
	return &domain.OrgContext{OrgID: m.OrgID, Role: m.Role}, nil
}

// RequireRole passes iff orgCtx is present and its role is one of allowed.
func RequireRole(orgCtx *domain.OrgContext, allowed ...domain.Role) error {
	if orgCtx == nil {
		return domerrors.ErrMissingOrgContext
	}
	if !orgCtx.Role.In(allowed...) {
		return domerrors.ErrInsufficientRole
	}
	return nil
}
