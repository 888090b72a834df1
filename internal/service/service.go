package service

import (
	"context"

	"tenantflow-backend/internal/domain"
)

// IssueInvitationRequest carries the administrative invitation input.
type IssueInvitationRequest struct {
	Email      string                `json:"email"`
	FullName   string                `json:"full_name"`
	Kind       domain.InvitationKind `json:"invitation_kind"`
	TenantID   *int32                `json:"target_tenant_id,omitempty"`
	TenantName string                `json:"tenant_name,omitempty"` // owner path: name of the tenant to create
	Role       string                `json:"role,omitempty"`        // collaborator path: role granted on acceptance
	InvitedBy  string                `json:"invited_by"`
}

type InvitationService interface {
	// Issue creates the invitation and the unconfirmed identity carrying its
	// metadata, then sends the invitation email best-effort. Returns the
	// invitation and the confirmation link.
	Issue(ctx context.Context, req IssueInvitationRequest) (*domain.Invitation, string, error)
	// Validate is read-only and safe to call repeatedly.
	Validate(ctx context.Context, token string) (*domain.Invitation, error)
	Revoke(ctx context.Context, token string) error
	ListPending(ctx context.Context, tenantID int32) ([]domain.Invitation, error)
	// ExpireStale transitions overdue pending invitations to EXPIRED.
	ExpireStale(ctx context.Context) (int64, error)
}

type AccessService interface {
	// ResolvePermissions returns the effective permission set for the user
	// within the tenant. Deterministic, no side effects.
	ResolvePermissions(ctx context.Context, userID string, tenantID *int32) (domain.PermissionSet, error)
	// PrimaryRole returns the highest-priority active role, or nil when the
	// user has no active assignment.
	PrimaryRole(ctx context.Context, userID string, tenantID *int32) (*domain.Role, error)
	// AssignRole idempotently makes roleName the single active assignment
	// for the (user, tenant) pair.
	AssignRole(ctx context.Context, userID string, tenantID *int32, roleName, assignedBy string) error
}

type ProvisioningService interface {
	OnboardTenantOwner(ctx context.Context, userID, email, fullName, tenantName, slug, invitationToken string) (*domain.ProvisioningResult, error)
	OnboardCollaborator(ctx context.Context, userID, email, fullName, invitationToken string) (*domain.ProvisioningResult, error)
}

type ConfirmationRouter interface {
	// HandleIdentityChange classifies an identity change notification and
	// dispatches confirmation rising edges to the provisioning pipeline.
	// Non-edges and unrecognized invitation kinds are acknowledged as no-ops.
	HandleIdentityChange(ctx context.Context, event *domain.IdentityChangeEvent) (*domain.ProvisioningResult, error)
}

type BootstrapService interface {
	// DiagnoseInconsistentState reports confirmed identities missing a
	// profile, employee record, or active role. Read-only.
	DiagnoseInconsistentState(ctx context.Context) ([]domain.InconsistencyReport, error)
	// BootstrapPrivilegedRole seeds the first administrative account:
	// super_admin role, minimal global profile, global-scope assignment.
	BootstrapPrivilegedRole(ctx context.Context, userID string) error
}

type EmailService interface {
	SendInvitation(ctx context.Context, email, name, confirmationLink, tenantName string) error
}
