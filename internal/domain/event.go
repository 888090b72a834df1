package domain

import "time"

// EventTypeUpdate is the change-notification type the router reacts to.
const EventTypeUpdate = "UPDATE"

// IdentityTable is the identity provider table whose updates carry
// confirmation state.
const IdentityTable = "users"

// IdentityMetadata is the metadata bag carried on an identity. It is written
// at invitation time and read back when the confirmation event arrives.
type IdentityMetadata struct {
	InvitationKind  string `json:"invitation_kind,omitempty"`
	InvitationToken string `json:"invitation_token,omitempty"`
	TenantID        *int32 `json:"tenant_id,omitempty"`
	TenantName      string `json:"tenant_name,omitempty"`
	TenantSlug      string `json:"tenant_slug,omitempty"`
	FullName        string `json:"full_name,omitempty"`
}

// IdentitySnapshot is the state of an identity record at a point in time.
// The pipeline treats identities as read-only input owned by the provider.
type IdentitySnapshot struct {
	ID          string           `json:"id"`
	Email       string           `json:"email"`
	ConfirmedAt *time.Time       `json:"confirmed_at,omitempty"`
	Metadata    IdentityMetadata `json:"user_metadata"`
}

// IdentityChangeEvent is the inbound change-notification payload. Record and
// OldRecord are the new and previous identity snapshots.
type IdentityChangeEvent struct {
	Type      string            `json:"type"`
	Table     string            `json:"table"`
	Schema    string            `json:"schema"`
	Record    *IdentitySnapshot `json:"record"`
	OldRecord *IdentitySnapshot `json:"old_record"`
}

// IsConfirmationEdge reports whether the event is a rising edge on
// confirmed_at: previously unconfirmed, now confirmed.
func (e *IdentityChangeEvent) IsConfirmationEdge() bool {
	if e.Type != EventTypeUpdate || e.Table != IdentityTable {
		return false
	}
	if e.Record == nil || e.Record.ConfirmedAt == nil {
		return false
	}
	return e.OldRecord == nil || e.OldRecord.ConfirmedAt == nil
}

// ProvisioningResult names every entity created or linked by a provisioning
// run so callers can verify completeness without re-querying.
type ProvisioningResult struct {
	TenantID           int32  `json:"tenant_id"`
	ProfileID          string `json:"profile_id"`
	EmployeeID         int32  `json:"employee_id"`
	EmployeeCode       string `json:"employee_code"`
	RoleName           string `json:"role_name"`
	AlreadyProvisioned bool   `json:"already_provisioned"`
}
