package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/amirhosseinghanipour/orgauth/internal/domain"
)

// UserRepository defines persistence for users. Lookups return (nil, nil) when absent.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, userID domain.UserID) (*domain.User, error)
}

// OrganizationRepository defines persistence for organizations.
type OrganizationRepository interface {
	Create(ctx context.Context, org *domain.Organization) error
	GetByID(ctx context.Context, orgID domain.OrganizationID) (*domain.Organization, error)
}

// MembershipRepository defines persistence for memberships. Get returns (nil, nil) when absent.
type MembershipRepository interface {
	Get(ctx context.Context, userID domain.UserID, orgID domain.OrganizationID) (*domain.Membership, error)
	Create(ctx context.Context, m *domain.Membership) error
	// Upsert inserts the membership or overwrites the role of an existing one.
	Upsert(ctx context.Context, m *domain.Membership) error
	// ListByUser returns the user's organizations, newest membership first.
	ListByUser(ctx context.Context, userID domain.UserID) ([]*domain.MyOrganization, error)
	// ListByOrg returns the org's members, oldest membership first.
	ListByOrg(ctx context.Context, orgID domain.OrganizationID) ([]*domain.Member, error)
}

// RefreshTokenStore persists hashed refresh-token records.
type RefreshTokenStore interface {
	Create(ctx context.Context, rec *domain.RefreshTokenRecord) error
	// ListActiveByUser returns at most limit active records for the user, newest first.
	ListActiveByUser(ctx context.Context, userID domain.UserID, now time.Time, limit int) ([]*domain.RefreshTokenRecord, error)
	// ListAllActive returns at most limit active records across all users, newest first.
	ListAllActive(ctx context.Context, now time.Time, limit int) ([]*domain.RefreshTokenRecord, error)
	// Revoke sets revoked_at on a not-yet-revoked record; false means nothing changed.
	Revoke(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	// DeleteInactiveBefore removes records revoked or expired before cutoff and returns how many.
	DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// InviteRepository persists invitations.
type InviteRepository interface {
	Create(ctx context.Context, inv *domain.Invitation) error
	// ListPendingUnexpired returns at most limit PENDING invites expiring after now, newest first.
	ListPendingUnexpired(ctx context.Context, now time.Time, limit int) ([]*domain.Invitation, error)
	// MarkAccepted transitions a PENDING, unexpired invite to ACCEPTED; false means it no longer qualifies.
	MarkAccepted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}

// Store is the credential store. WithinTx runs fn against a transactional view;
// any error returned by fn rolls back every write made through that view.
type Store interface {
	Users() UserRepository
	Organizations() OrganizationRepository
	Memberships() MembershipRepository
	RefreshTokens() RefreshTokenStore
	Invites() InviteRepository
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
