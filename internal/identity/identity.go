package identity

import (
	"context"
	"errors"

	"tenantflow-backend/internal/domain"
)

var ErrIdentityNotFound = errors.New("identity not found")

// Provider is the external identity collaborator. The pipeline never manages
// passwords or sessions; it only creates identities, reads them back, and
// flips their confirmation state.
type Provider interface {
	CreateIdentity(ctx context.Context, email, fullName string, metadata domain.IdentityMetadata) (*domain.IdentitySnapshot, error)
	GetIdentity(ctx context.Context, id string) (*domain.IdentitySnapshot, error)
	GetIdentityByEmail(ctx context.Context, email string) (*domain.IdentitySnapshot, error)
	ConfirmIdentity(ctx context.Context, id string) error
	ListConfirmedIdentities(ctx context.Context) ([]domain.IdentitySnapshot, error)
}
