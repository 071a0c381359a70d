package organization

import (
	"context"

	"github.com/amirhosseinghanipour/orgauth/internal/application/ports"
	"github.com/amirhosseinghanipour/orgauth/internal/domain"
	domerrors "github.com/amirhosseinghanipour/orgauth/internal/domain/errors"
)

// Queries holds the membership-gated read paths.
type Queries struct {
	orgs        ports.OrganizationRepository
	memberships ports.MembershipRepository
}

func NewQueries(orgs ports.OrganizationRepository, memberships ports.MembershipRepository) *Queries {
	return &Queries{orgs: orgs, memberships: memberships}
}

// ListMyOrganizations returns the user's organizations, newest membership first.
func (q *Queries) ListMyOrganizations(ctx context.Context, userID domain.UserID) ([]*domain.MyOrganization, error) {
	orgs, err := q.memberships.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if orgs == nil {
		orgs = []*domain.MyOrganization{}
	}
	return orgs, nil
}

// GetOrganizationForMember loads an org the user belongs to.
func (q *Queries) GetOrganizationForMember(ctx context.Context, orgID domain.OrganizationID, userID domain.UserID) (*domain.MyOrganization, error) {
	m, err := q.memberships.Get(ctx, userID, orgID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domerrors.ErrNotMember
	}
	org, err := q.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domerrors.ErrOrgNotFound
	}
	return &domain.MyOrganization{Organization: *org, MyRole: m.Role}, nil
}

// ListMembers returns the org's members, oldest first. Requires OWNER or ADMIN.
func (q *Queries) ListMembers(ctx context.Context, orgCtx *domain.OrgContext) ([]*domain.Member, error) {
	if err := RequireRole(orgCtx, domain.ManagerRoles...); err != nil {
		return nil, err
	}
	members, err := q.memberships.ListByOrg(ctx, orgCtx.OrgID)
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []*domain.Member{}
	}
	return members, nil
}
