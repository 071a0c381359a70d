package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/amirhosseinghanipour/orgauth/internal/application/ports"
	"github.com/amirhosseinghanipour/orgauth/internal/domain"
	domerrors "github.com/amirhosseinghanipour/orgauth/internal/domain/errors"
)

const (
	createOrgSQL = `INSERT INTO organizations (id, name, created_at) VALUES ($1, $2, $3)`
	getOrgSQL    = `SELECT id, name, created_at FROM organizations WHERE id = $1`

	getMembershipSQL    = `SELECT user_id, org_id, role, created_at FROM memberships WHERE user_id = $1 AND org_id = $2`
	createMembershipSQL = `INSERT INTO memberships (user_id, org_id, role, created_at) VALUES ($1, $2, $3, $4)`
	upsertMembershipSQL = `
INSERT INTO memberships (user_id, org_id, role, created_at) VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, org_id) DO UPDATE SET role = EXCLUDED.role`
	listMembershipsByUserSQL = `
SELECT o.id, o.name, o.created_at, m.role
FROM memberships m
JOIN organizations o ON o.id = m.org_id
WHERE m.user_id = $1
ORDER BY m.created_at DESC`
	listMembershipsByOrgSQL = `
SELECT u.id, u.email, m.role, m.created_at
FROM memberships m
JOIN users u ON u.id = m.user_id
WHERE m.org_id = $1
ORDER BY m.created_at ASC`
)

type OrganizationRepository struct {
	q querier
}

var _ ports.OrganizationRepository = (*OrganizationRepository)(nil)

func (r *OrganizationRepository) Create(ctx context.Context, org *domain.Organization) error {
	if _, err := r.q.Exec(ctx, createOrgSQL, org.ID.UUID, org.Name, org.CreatedAt); err != nil {
		return fmt.Errorf("create organization: %w", err)
	}
	return nil
}

func (r *OrganizationRepository) GetByID(ctx context.Context, orgID domain.OrganizationID) (*domain.Organization, error) {
	var o domain.Organization
	err := r.q.QueryRow(ctx, getOrgSQL, orgID.UUID).Scan(&o.ID.UUID, &o.Name, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get organization: %w", err)
	}
	return &o, nil
}

type MembershipRepository struct {
	q querier
}

var _ ports.MembershipRepository = (*MembershipRepository)(nil)

func (r *MembershipRepository) Get(ctx context.Context, userID domain.UserID, orgID domain.OrganizationID) (*domain.Membership, error) {
	var (
		m    domain.Membership
		role string
	)
	err := r.q.QueryRow(ctx, getMembershipSQL, userID.UUID, orgID.UUID).Scan(&m.UserID.UUID, &m.OrgID.UUID, &role, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get membership: %w", err)
	}
	m.Role = domain.Role(role)
	return &m, nil
}

func (r *MembershipRepository) Create(ctx context.Context, m *domain.Membership) error {
	if _, err := r.q.Exec(ctx, createMembershipSQL, m.UserID.UUID, m.OrgID.UUID, string(m.Role), m.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return domerrors.ErrMemberExists
		}
		return fmt.Errorf("create membership: %w", err)
	}
	return nil
}

func (r *MembershipRepository) Upsert(ctx context.Context, m *domain.Membership) error {
	if _, err := r.q.Exec(ctx, upsertMembershipSQL, m.UserID.UUID, m.OrgID.UUID, string(m.Role), m.CreatedAt); err != nil {
		return fmt.Errorf("upsert membership: %w", err)
	}
	return nil
}

func (r *MembershipRepository) ListByUser(ctx context.Context, userID domain.UserID) ([]*domain.MyOrganization, error) {
	rows, err := r.q.Query(ctx, listMembershipsByUserSQL, userID.UUID)
	if err != nil {
		return nil, fmt.Errorf("list memberships by user: %w", err)
	}
	defer rows.Close()
	out := []*domain.MyOrganization{}
	for rows.Next() {
		var (
			o    domain.MyOrganization
			role string
		)
		if err := rows.Scan(&o.ID.UUID, &o.Name, &o.CreatedAt, &role); err != nil {
			return nil, err
		}
		o.MyRole = domain.Role(role)
		out = append(out, &o)
	}
	return out, rows.Err()
}

func (r *MembershipRepository) ListByOrg(ctx context.Context, orgID domain.OrganizationID) ([]*domain.Member, error) {
	rows, err := r.q.Query(ctx, listMembershipsByOrgSQL, orgID.UUID)
	if err != nil {
		return nil, fmt.Errorf("list memberships by org: %w", err)
	}
	defer rows.Close()
	out := []*domain.Member{}
	for rows.Next() {
		var (
			m    domain.Member
			role string
		)
		if err := rows.Scan(&m.UserID.UUID, &m.Email, &role, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Role = domain.Role(role)
		out = append(out, &m)
	}
	return out, rows.Err()
}
