package domain

import "time"

type ProfileStatus string

const (
	ProfileStatusActive    ProfileStatus = "ACTIVE"
	ProfileStatusSuspended ProfileStatus = "SUSPENDED"
)

// Profile is keyed by the identity provider's user id (1:1 with the identity).
// Role is a display cache derived from the active UserRoleAssignment; the
// assignment table is the source of truth.
type Profile struct {
	UserID    string        `json:"user_id"`
	Email     string        `json:"email"`
	FullName  string        `json:"full_name"`
	TenantID  *int32        `json:"tenant_id,omitempty"` // nil only for global accounts (super admin)
	Role      string        `json:"role"`
	Status    ProfileStatus `json:"status"`
	CreatedOn time.Time     `json:"created_on"`
	UpdatedOn time.Time     `json:"updated_on"`
}
