package organization

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/amirhosseinghanipour/orgauth/internal/application/ports"
	"github.com/amirhosseinghanipour/orgauth/internal/domain"
	domerrors "github.com/amirhosseinghanipour/orgauth/internal/domain/errors"
)

const MaxNameLength = 200

type CreateOrganization struct {
	store ports.Store
}

func NewCreateOrganization(store ports.Store) *CreateOrganization {
	return &CreateOrganization{store: store}
}

// Execute creates the organization and the caller's OWNER membership in one transaction.
func (uc *CreateOrganization) Execute(ctx context.Context, userID domain.UserID, name string) (*domain.Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > MaxNameLength {
		return nil, domerrors.ErrInvalidInput
	}
	now := time.Now()
	org := &domain.Organization{
		ID:        domain.NewOrganizationID(uuid.New()),
		Name:      name,
		CreatedAt: now,
	}
	err := uc.store.WithinTx(ctx, func(tx ports.Store) error {
		if err := tx.Organizations().Create(ctx, org); err != nil {
			return err
		}
		return tx.Memberships().Create(ctx, &domain.Membership{
			UserID:    userID,
			OrgID:     org.ID,
			Role:      domain.RoleOwner,
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	return org, nil
}
