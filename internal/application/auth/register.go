package auth

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/amirhosseinghanipour/orgauth/internal/application/ports"
	"github.com/amirhosseinghanipour/orgauth/internal/domain"
	domerrors "github.com/amirhosseinghanipour/orgauth/internal/domain/errors"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type RegisterUserInput struct {
	Email    string
	Password string
}

type RegisterUserResult struct {
	Session
	User *domain.User
}

type RegisterUser struct {
	users    ports.UserRepository
	hasher   ports.PasswordHasher
	sessions *SessionIssuer
}

func NewRegisterUser(users ports.UserRepository, hasher ports.PasswordHasher, sessions *SessionIssuer) *RegisterUser {
	return &RegisterUser{users: users, hasher: hasher, sessions: sessions}
}

func (uc *RegisterUser) Execute(ctx context.Context, input RegisterUserInput) (*RegisterUserResult, error) {
	email := NormalizeEmail(input.Email)
	if !emailRegex.MatchString(email) || input.Password == "" {
		return nil, domerrors.ErrInvalidInput
	}
	existing, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domerrors.ErrUserExists
	}
	hash, err := uc.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		ID:           domain.NewUserID(uuid.New()),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	// A concurrent registration surfaces here as ErrUserExists from the store.
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}
	session, err := uc.sessions.CreateSessionForUser(ctx, user)
	if err != nil {
		return nil, err
	}
	return &RegisterUserResult{Session: *session, User: user}, nil
}
