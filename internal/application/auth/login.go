package auth

import (
	"context"
	"sync"

	"github.com/amirhosseinghanipour/orgauth/internal/application/ports"
	"github.com/amirhosseinghanipour/orgauth/internal/domain"
	domerrors "github.com/amirhosseinghanipour/orgauth/internal/domain/errors"
)

type LoginInput struct {
	Email    string
	Password string
}

type LoginResult struct {
	Session
	User *domain.User
}

type Login struct {
	users    ports.UserRepository
	hasher   ports.PasswordHasher
	sessions *SessionIssuer
	lockout  ports.LoginLockoutStore

	dummyOnce sync.Once
	dummyHash string
}

// NewLogin builds the use case. lockout may be nil.
func NewLogin(users ports.UserRepository, hasher ports.PasswordHasher, sessions *SessionIssuer, lockout ports.LoginLockoutStore) *Login {
	return &Login{
		users:    users,
		hasher:   hasher,
		sessions: sessions,
		lockout:  lockout,
	}
}

func (uc *Login) Execute(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := NormalizeEmail(input.Email)
	if uc.lockout != nil {
		if locked, _ := uc.lockout.IsLocked(ctx, email); locked {
			return nil, domerrors.ErrAccountLocked
		}
	}
	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Burn the same hashing work as a real mismatch so timing does not reveal existence.
		uc.hasher.Verify(input.Password, uc.dummy())
		uc.recordFailure(ctx, email)
		return nil, domerrors.ErrInvalidCredentials
	}
	if !uc.hasher.Verify(input.Password, user.PasswordHash) {
		uc.recordFailure(ctx, email)
		return nil, domerrors.ErrInvalidCredentials
	}
	if uc.lockout != nil {
		uc.lockout.RecordSuccess(ctx, email)
	}
	session, err := uc.sessions.CreateSessionForUser(ctx, user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Session: *session, User: user}, nil
}

func (uc *Login) recordFailure(ctx context.Context, email string) {
	if uc.lockout != nil {
		uc.lockout.RecordFailure(ctx, email)
	}
}

func (uc *Login) dummy() string {
	uc.dummyOnce.Do(func() {
		uc.dummyHash, _ = uc.hasher.Hash("orgauth-dummy-password")
	})
	return uc.dummyHash
}
