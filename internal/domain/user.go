package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserID is a value object for user identity.
type UserID struct{ uuid.UUID }

// NewUserID creates a new UserID from uuid.
func NewUserID(id uuid.UUID) UserID { return UserID{UUID: id} }

// ParseUserID parses the canonical string form.
func ParseUserID(s string) (UserID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, err
	}
	return NewUserID(id), nil
}

// String returns the canonical string form.
func (u UserID) String() string { return u.UUID.String() }

// User is a global identity. Email is unique and stored lower-cased.
type User struct {
	ID           UserID
	Email        string
	PasswordHash string
	IsVerified   bool
	CreatedAt    time.Time
}
