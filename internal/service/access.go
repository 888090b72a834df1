package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tenantflow-backend/internal/domain"
	"tenantflow-backend/internal/repository"
)

var ErrRoleNotFound = errors.New("role not found")

type accessService struct {
	store repository.Store
}

func NewAccessService(store repository.Store) AccessService {
	return &accessService{store: store}
}

func (s *accessService) ResolvePermissions(ctx context.Context, userID string, tenantID *int32) (domain.PermissionSet, error) {
	_, roles, err := s.store.Roles().ListActiveAssignments(ctx, userID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list role assignments: %w", err)
	}

	set := domain.NewPermissionSet()
	if len(roles) == 0 {
		return set, nil
	}

	// Administrative roles imply the full permission set.
	for _, role := range roles {
		if domain.AdminRoleNames[role.Name] {
			all, err := s.store.Roles().ListAllPermissions(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to list permissions: %w", err)
			}
			for _, p := range all {
				set.Add(p.Name)
			}
			set.Add(domain.PermissionManageAll)
			return set, nil
		}
	}

	perms, err := s.store.Roles().ListPermissions(ctx, userID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	for _, p := range perms {
		set.Add(p.Name)
	}
	return set, nil
}

func (s *accessService) PrimaryRole(ctx context.Context, userID string, tenantID *int32) (*domain.Role, error) {
	assignments, roles, err := s.store.Roles().ListActiveAssignments(ctx, userID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list role assignments: %w", err)
	}
	if len(roles) == 0 {
		return nil, nil
	}

	best := 0
	for i := 1; i < len(roles); i++ {
		if roles[i].HierarchyLevel < roles[best].HierarchyLevel {
			best = i
			continue
		}
		if roles[i].HierarchyLevel == roles[best].HierarchyLevel &&
			assignments[i].AssignedAt.Before(assignments[best].AssignedAt) {
			best = i
		}
	}
	role := roles[best]
	return &role, nil
}

func (s *accessService) AssignRole(ctx context.Context, userID string, tenantID *int32, roleName, assignedBy string) error {
	return s.store.WithinTx(ctx, func(tx repository.Store) error {
		return assignRoleTx(ctx, tx, userID, tenantID, roleName, assignedBy)
	})
}

// assignRoleTx performs the deactivate-then-activate role switch against a
// transaction-bound store, so callers already inside the provisioning
// transaction share its atomicity. Assigning the role the user already holds
// is a no-op.
func assignRoleTx(ctx context.Context, tx repository.Store, userID string, tenantID *int32, roleName, assignedBy string) error {
	role, err := tx.Roles().GetByName(ctx, roleName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRoleNotFound
		}
		return fmt.Errorf("failed to look up role %q: %w", roleName, err)
	}

	_, activeRoles, err := tx.Roles().ListActiveAssignments(ctx, userID, tenantID)
	if err != nil {
		return fmt.Errorf("failed to list active assignments: %w", err)
	}
	if len(activeRoles) == 1 && activeRoles[0].ID == role.ID {
		return nil
	}

	if _, err := tx.Roles().DeactivateAssignments(ctx, userID, tenantID); err != nil {
		return fmt.Errorf("failed to deactivate previous assignment: %w", err)
	}

	assignment := &domain.UserRoleAssignment{
		UserID:     userID,
		RoleID:     role.ID,
		TenantID:   tenantID,
		IsActive:   true,
		AssignedBy: assignedBy,
	}
	if err := tx.Roles().CreateAssignment(ctx, assignment); err != nil {
		return fmt.Errorf("failed to create role assignment: %w", err)
	}

	// Keep the denormalized display cache on the profile in step.
	if err := tx.Profiles().UpdateRole(ctx, userID, roleName); err != nil {
		return fmt.Errorf("failed to update profile role cache: %w", err)
	}
	return nil
}
