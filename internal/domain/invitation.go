package domain

import (
	"time"

	"github.com/google/uuid"
)

// InviteStatus is the lifecycle state of an invitation. ACCEPTED is terminal.
type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "PENDING"
	InviteStatusAccepted InviteStatus = "ACCEPTED"
)

// Invitation grants a membership once its raw token is presented. Only the hash is stored.
type Invitation struct {
	ID         uuid.UUID
	OrgID      OrganizationID
	Email      string
	Role       Role
	TokenHash  string
	Status     InviteStatus
	InvitedBy  UserID
	ExpiresAt  time.Time
	CreatedAt  time.Time
	AcceptedAt *time.Time
}

// Acceptable reports whether the invite is still a candidate for acceptance at now.
func (i *Invitation) Acceptable(now time.Time) bool {
	return i.Status == InviteStatusPending && i.ExpiresAt.After(now)
}
