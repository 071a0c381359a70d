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
	createUserSQL     = `INSERT INTO users (id, email, password_hash, is_verified, created_at) VALUES ($1, $2, $3, $4, $5)`
	selectUserColumns = `SELECT id, email, password_hash, is_verified, created_at FROM users`
)

type UserRepository struct {
	q querier
}

var _ ports.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.q.Exec(ctx, createUserSQL, user.ID.UUID, user.Email, user.PasswordHash, user.IsVerified, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domerrors.ErrUserExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, selectUserColumns+` WHERE email = $1`, email)
}

func (r *UserRepository) GetByID(ctx context.Context, userID domain.UserID) (*domain.User, error) {
	return r.getOne(ctx, selectUserColumns+` WHERE id = $1`, userID.UUID)
}

func (r *UserRepository) getOne(ctx context.Context, sql string, arg any) (*domain.User, error) {
	var u domain.User
	err := r.q.QueryRow(ctx, sql, arg).Scan(&u.ID.UUID, &u.Email, &u.PasswordHash, &u.IsVerified, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}
