package invitation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/amirhosseinghanipour/orgauth/internal/application/auth"
	"github.com/amirhosseinghanipour/orgauth/internal/application/ports"
	"github.com/amirhosseinghanipour/orgauth/internal/domain"
	domerrors "github.com/amirhosseinghanipour/orgauth/internal/domain/errors"
)

type AcceptInviteInput struct {
	Token    string
	Password string
}

type AcceptInviteResult struct {
	auth.Session
	OrgID  domain.OrganizationID
	UserID domain.UserID
	Email  string
	Role   domain.Role
}

// AcceptInvite redeems a raw invite token, creating the user if needed, and logs them in.
type AcceptInvite struct {
	store          ports.Store
	passwordHasher ports.PasswordHasher
	tokenHasher    ports.PasswordHasher
	sessions       *auth.SessionIssuer
	scanLimit      int
	now            func() time.Time
}

func NewAcceptInvite(store ports.Store, passwordHasher, tokenHasher ports.PasswordHasher, sessions *auth.SessionIssuer, scanLimit int) *AcceptInvite {
	if scanLimit <= 0 {
		scanLimit = DefaultInviteScanLimit
	}
	return &AcceptInvite{
		store:          store,
		passwordHasher: passwordHasher,
		tokenHasher:    tokenHasher,
		sessions:       sessions,
		scanLimit:      scanLimit,
		now:            time.Now,
	}
}

func (uc *AcceptInvite) Execute(ctx context.Context, input AcceptInviteInput) (*AcceptInviteResult, error) {
	if input.Token == "" {
		return nil, domerrors.ErrInviteInvalid
	}
	candidates, err := uc.store.Invites().ListPendingUnexpired(ctx, uc.now(), uc.scanLimit)
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	var inv *domain.Invitation
	for _, c := range candidates {
		if uc.tokenHasher.Verify(input.Token, c.TokenHash) {
			inv = c
			break
		}
	}
	if inv == nil {
		return nil, domerrors.ErrInviteInvalid
	}

	existing, err := uc.store.Users().GetByEmail(ctx, inv.Email)
	if err != nil {
		return nil, err
	}
	var passwordHash string
	if existing == nil {
		if input.Password == "" {
			return nil, domerrors.ErrInvalidInput
		}
		if passwordHash, err = uc.passwordHasher.Hash(input.Password); err != nil {
			return nil, err
		}
	}

	var user *domain.User
	role := inv.Role
	err = uc.store.WithinTx(ctx, func(tx ports.Store) error {
		now := uc.now()
		accepted, err := tx.Invites().MarkAccepted(ctx, inv.ID, now)
		if err != nil {
			return err
		}
		if !accepted {
			return domerrors.ErrInviteInvalid
		}
		user, err = tx.Users().GetByEmail(ctx, inv.Email)
		if err != nil {
			return err
		}
		if user == nil {
			if passwordHash == "" {
				// The user seen before the transaction is gone; nothing to attach the membership to.
				return domerrors.ErrInviteInvalid
			}
			user = &domain.User{
				ID:           domain.NewUserID(uuid.New()),
				Email:        inv.Email,
				PasswordHash: passwordHash,
				IsVerified:   true,
				CreatedAt:    now,
			}
			if err := tx.Users().Create(ctx, user); err != nil {
				return err
			}
		}
		current, err := tx.Memberships().Get(ctx, user.ID, inv.OrgID)
		if err != nil {
			return err
		}
		// Accepting never lowers a role the user already holds.
		if current != nil && current.Role.Rank() >= role.Rank() {
			role = current.Role
			return nil
		}
		return tx.Memberships().Upsert(ctx, &domain.Membership{
			UserID:    user.ID,
			OrgID:     inv.OrgID,
			Role:      role,
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	session, err := uc.sessions.CreateSessionForUser(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AcceptInviteResult{
		Session: *session,
		OrgID:   inv.OrgID,
		UserID:  user.ID,
		Email:   user.Email,
		Role:    role,
	}, nil
}
