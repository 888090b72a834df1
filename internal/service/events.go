package service

import (
	"context"
	"errors"

	"tenantflow-backend/internal/domain"
	"tenantflow-backend/internal/logger"
)

var ErrMalformedEvent = errors.New("malformed identity change event")

// confirmationRouter turns identity change notifications into provisioning
// calls. It holds no state of its own: duplicate and out-of-order deliveries
// are absorbed by the idempotent provisioning pipeline underneath.
type confirmationRouter struct {
	provisioning ProvisioningService
}

func NewConfirmationRouter(provisioning ProvisioningService) ConfirmationRouter {
	return &confirmationRouter{provisioning: provisioning}
}

func (r *confirmationRouter) HandleIdentityChange(ctx context.Context, event *domain.IdentityChangeEvent) (*domain.ProvisioningResult, error) {
	if event == nil || event.Record == nil || event.Record.ID == "" {
		return nil, ErrMalformedEvent
	}

	if !event.IsConfirmationEdge() {
		logger.Debug("Ignoring identity event without confirmation edge",
			"type", event.Type, "table", event.Table, "identity_id", event.Record.ID)
		return nil, nil
	}

	record := event.Record
	meta := record.Metadata

	switch domain.InvitationKind(meta.InvitationKind) {
	case domain.InvitationKindTenantOwner:
		return r.provisioning.OnboardTenantOwner(ctx, record.ID, record.Email, meta.FullName, meta.TenantName, meta.TenantSlug, meta.InvitationToken)
	case domain.InvitationKindCollaborator:
		return r.provisioning.OnboardCollaborator(ctx, record.ID, record.Email, meta.FullName, meta.InvitationToken)
	default:
		// Never an error: retrying a malformed kind would loop forever.
		logger.Warn("Identity confirmed with unrecognized invitation kind; dropping event",
			"identity_id", record.ID, "email", record.Email, "invitation_kind", meta.InvitationKind)
		return nil, nil
	}
}
