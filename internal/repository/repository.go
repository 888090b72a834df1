package repository

import (
	"context"
	"time"

	"tenantflow-backend/internal/domain"
)

type InvitationRepository interface {
	Create(ctx context.Context, inv *domain.Invitation) error
	GetByToken(ctx context.Context, token string) (*domain.Invitation, error)
	// FindPending returns the pending invitation for (email, tenantID) if one
	// exists. tenantID is nil for tenant_owner invitations.
	FindPending(ctx context.Context, email string, tenantID *int32) (*domain.Invitation, error)
	// MarkAccepted transitions PENDING -> ACCEPTED with compare-and-set
	// semantics. It returns false, without error, when the invitation was not
	// in PENDING state.
	MarkAccepted(ctx context.Context, token string, acceptedOn time.Time) (bool, error)
	// Revoke transitions PENDING -> REVOKED; false when not pending.
	Revoke(ctx context.Context, token string) (bool, error)
	ListPendingByTenant(ctx context.Context, tenantID int32) ([]domain.Invitation, error)
	// ExpirePending marks all pending invitations past their expiry as
	// EXPIRED and returns the number of rows transitioned.
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
}

type TenantRepository interface {
	Create(ctx context.Context, tenant *domain.Tenant) error
	GetByID(ctx context.Context, id int32) (*domain.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
}

type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Profile) error
	GetByUserID(ctx context.Context, userID string) (*domain.Profile, error)
	GetByEmail(ctx context.Context, email string) (*domain.Profile, error)
	// UpdateRole refreshes the denormalized role display cache.
	UpdateRole(ctx context.Context, userID, role string) error
}

type EmployeeRepository interface {
	Create(ctx context.Context, employee *domain.Employee) error
	GetByUserID(ctx context.Context, userID string, tenantID int32) (*domain.Employee, error)
	// NextSequence returns the next per-tenant employee number, used to
	// generate the tenant-unique employee code.
	NextSequence(ctx context.Context, tenantID int32) (int32, error)
}

type RoleRepository interface {
	GetByName(ctx context.Context, name string) (*domain.Role, error)
	// EnsureRole inserts the role if absent and returns it.
	EnsureRole(ctx context.Context, role *domain.Role) (*domain.Role, error)
	// ListActiveAssignments returns active assignments joined with their
	// roles for the (user, tenant) pair, tenantID nil meaning global scope.
	ListActiveAssignments(ctx context.Context, userID string, tenantID *int32) ([]domain.UserRoleAssignment, []domain.Role, error)
	// ListPermissions returns the permissions reachable from the user's
	// active role assignments within the tenant.
	ListPermissions(ctx context.Context, userID string, tenantID *int32) ([]domain.Permission, error)
	ListAllPermissions(ctx context.Context) ([]domain.Permission, error)
	// DeactivateAssignments clears any active assignment for the pair and
	// returns the number of rows deactivated.
	DeactivateAssignments(ctx context.Context, userID string, tenantID *int32) (int64, error)
	CreateAssignment(ctx context.Context, assignment *domain.UserRoleAssignment) error
	HasActiveAssignment(ctx context.Context, userID string, tenantID *int32) (bool, error)
}

// Store aggregates the repositories and provides the transaction boundary for
// multi-entity writes. WithinTx runs fn against a store whose repositories
// are bound to a single database transaction; when called on an already
// transactional store, fn joins the ambient transaction.
type Store interface {
	Invitations() InvitationRepository
	Tenants() TenantRepository
	Profiles() ProfileRepository
	Employees() EmployeeRepository
	Roles() RoleRepository
	WithinTx(ctx context.Context, fn func(Store) error) error
}
