package domain

import "time"

type InvitationKind string

const (
	InvitationKindTenantOwner  InvitationKind = "tenant_owner"
	InvitationKindCollaborator InvitationKind = "collaborator"
)

type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "PENDING"
	InvitationStatusAccepted InvitationStatus = "ACCEPTED"
	InvitationStatusExpired  InvitationStatus = "EXPIRED"
	InvitationStatusRevoked  InvitationStatus = "REVOKED"
)

type Invitation struct {
	ID         int32            `json:"id"`
	Token      string           `json:"token"`
	Email      string           `json:"email"`
	FullName   string           `json:"full_name"`
	Kind       InvitationKind   `json:"invitation_kind"`
	TenantID   *int32           `json:"target_tenant_id,omitempty"` // nil for tenant_owner invitations
	Role       string           `json:"role"`                       // role granted on acceptance (collaborator path)
	InvitedBy  string           `json:"invited_by"`
	Status     InvitationStatus `json:"status"`
	ExpiresOn  time.Time        `json:"expires_on"`
	AcceptedOn *time.Time       `json:"accepted_on,omitempty"`
	CreatedOn  time.Time        `json:"created_on"`
}
