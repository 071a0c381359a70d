package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrganizationID is a value object for organization identity.
type OrganizationID struct{ uuid.UUID }

// NewOrganizationID creates a new OrganizationID from uuid.
func NewOrganizationID(id uuid.UUID) OrganizationID { return OrganizationID{UUID: id} }

// ParseOrganizationID parses the canonical string form.
func ParseOrganizationID(s string) (OrganizationID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return OrganizationID{}, err
	}
	return NewOrganizationID(id), nil
}

// String returns the canonical string form.
func (o OrganizationID) String() string { return o.UUID.String() }

// Organization is a tenant. Users belong via memberships.
type Organization struct {
	ID        OrganizationID
	Name      string
	CreatedAt time.Time
}

// Membership links a user to an org with a role. Unique per (UserID, OrgID).
type Membership struct {
	UserID    UserID
	OrgID     OrganizationID
	Role      Role
	CreatedAt time.Time
}

// OrgContext is the request-scoped result of membership resolution. Never persisted.
type OrgContext struct {
	OrgID OrganizationID
	Role  Role
}

// MyOrganization is an organization as seen by one of its members.
type MyOrganization struct {
	Organization
	MyRole Role
}

// Member is a membership joined with the member's user record.
type Member struct {
	UserID    UserID
	Email     string
	Role      Role
	CreatedAt time.Time
}
