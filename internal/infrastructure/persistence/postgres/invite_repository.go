package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/amirhosseinghanipour/orgauth/internal/application/ports"
	"github.com/amirhosseinghanipour/orgauth/internal/domain"
)

const (
	createInviteSQL = `
INSERT INTO invites (id, org_id, email, role, token_hash, status, invited_by, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	listPendingInvitesSQL = `
SELECT id, org_id, email, role, token_hash, status, invited_by, expires_at, created_at, accepted_at
FROM invites
WHERE status = 'PENDING' AND expires_at > $1
ORDER BY created_at DESC
LIMIT $2`
	markInviteAcceptedSQL = `
UPDATE invites SET status = 'ACCEPTED', accepted_at = $2
WHERE id = $1 AND status = 'PENDING' AND expires_at > $2`
)

type InviteRepository struct {
	q querier
}

var _ ports.InviteRepository = (*InviteRepository)(nil)

func (r *InviteRepository) Create(ctx context.Context, inv *domain.Invitation) error {
	_, err := r.q.Exec(ctx, createInviteSQL,
		inv.ID, inv.OrgID.UUID, inv.Email, string(inv.Role), inv.TokenHash,
		string(inv.Status), inv.InvitedBy.UUID, inv.ExpiresAt, inv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create invite: %w", err)
	}
	return nil
}

func (r *InviteRepository) ListPendingUnexpired(ctx context.Context, now time.Time, limit int) ([]*domain.Invitation, error) {
	rows, err := r.q.Query(ctx, listPendingInvitesSQL, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	defer rows.Close()
	var out []*domain.Invitation
	for rows.Next() {
		var (
			inv          domain.Invitation
			role, status string
		)
		if err := rows.Scan(&inv.ID, &inv.OrgID.UUID, &inv.Email, &role, &inv.TokenHash, &status,
			&inv.InvitedBy.UUID, &inv.ExpiresAt, &inv.CreatedAt, &inv.AcceptedAt); err != nil {
			return nil, err
		}
		inv.Role = domain.Role(role)
		inv.Status = domain.InviteStatus(status)
		out = append(out, &inv)
	}
	return out, rows.Err()
}

func (r *InviteRepository) MarkAccepted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	tag, err := r.q.Exec(ctx, markInviteAcceptedSQL, id, at)
	if err != nil {
		return false, fmt.Errorf("mark invite accepted: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
