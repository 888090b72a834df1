package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenantflow-backend/internal/domain"
)

func seedProfile(t *testing.T, store *fakeStore, userID string, tenantID *int32) {
	t.Helper()
	require.NoError(t, store.Profiles().Create(context.Background(), &domain.Profile{
		UserID: userID, Email: userID + "@acme.com", FullName: "User " + userID,
		TenantID: tenantID, Status: domain.ProfileStatusActive,
	}))
}

func TestAccessService_AssignRole(t *testing.T) {
	ctx := context.Background()
	tenantID := int32(1)

	t.Run("Replaces Previous Assignment", func(t *testing.T) {
		store := newFakeStore()
		svc := NewAccessService(store)
		seedProfile(t, store, "uid-1", &tenantID)

		require.NoError(t, svc.AssignRole(ctx, "uid-1", &tenantID, domain.RoleEmployee, "uid-admin"))
		require.NoError(t, svc.AssignRole(ctx, "uid-1", &tenantID, domain.RoleManager, "uid-admin"))

		// Exactly one active assignment survives the switch.
		_, roles, err := store.Roles().ListActiveAssignments(ctx, "uid-1", &tenantID)
		require.NoError(t, err)
		require.Len(t, roles, 1)
		assert.Equal(t, domain.RoleManager, roles[0].Name)

		// The profile display cache follows.
		profile, err := store.Profiles().GetByUserID(ctx, "uid-1")
		require.NoError(t, err)
		assert.Equal(t, domain.RoleManager, profile.Role)
	})

	t.Run("Reassigning Same Role Is A No Op", func(t *testing.T) {
		store := newFakeStore()
		svc := NewAccessService(store)
		seedProfile(t, store, "uid-1", &tenantID)

		require.NoError(t, svc.AssignRole(ctx, "uid-1", &tenantID, domain.RoleEmployee, "uid-admin"))
		assignmentsBefore := len(store.st.assignments)

		require.NoError(t, svc.AssignRole(ctx, "uid-1", &tenantID, domain.RoleEmployee, "uid-admin"))
		assert.Equal(t, assignmentsBefore, len(store.st.assignments))
	})

	t.Run("Unknown Role", func(t *testing.T) {
		store := newFakeStore()
		svc := NewAccessService(store)
		assert.ErrorIs(t, svc.AssignRole(ctx, "uid-1", &tenantID, "warlord", "uid-admin"), ErrRoleNotFound)
	})

	t.Run("Scopes Are Independent", func(t *testing.T) {
		store := newFakeStore()
		svc := NewAccessService(store)
		seedProfile(t, store, "uid-1", &tenantID)
		otherTenant := int32(2)

		require.NoError(t, svc.AssignRole(ctx, "uid-1", &tenantID, domain.RoleManager, "uid-admin"))
		require.NoError(t, svc.AssignRole(ctx, "uid-1", &otherTenant, domain.RoleEmployee, "uid-admin"))

		_, roles, err := store.Roles().ListActiveAssignments(ctx, "uid-1", &tenantID)
		require.NoError(t, err)
		require.Len(t, roles, 1)
		assert.Equal(t, domain.RoleManager, roles[0].Name)

		_, roles, err = store.Roles().ListActiveAssignments(ctx, "uid-1", &otherTenant)
		require.NoError(t, err)
		require.Len(t, roles, 1)
		assert.Equal(t, domain.RoleEmployee, roles[0].Name)
	})
}

func TestAccessService_ResolvePermissions(t *testing.T) {
	ctx := context.Background()
	tenantID := int32(1)

	t.Run("No Assignments Means Empty Set", func(t *testing.T) {
		store := newFakeStore()
		svc := NewAccessService(store)

		set, err := svc.ResolvePermissions(ctx, "uid-1", &tenantID)
		require.NoError(t, err)
		assert.Empty(t, set.Names())
		assert.False(t, set.Has("view_schedule"))
	})

	t.Run("Admin Role Implies Everything", func(t *testing.T) {
		store := newFakeStore()
		svc := NewAccessService(store)
		seedProfile(t, store, "uid-1", &tenantID)
		require.NoError(t, svc.AssignRole(ctx, "uid-1", &tenantID, domain.RoleTenantAdmin, "uid-admin"))

		set, err := svc.ResolvePermissions(ctx, "uid-1", &tenantID)
		require.NoError(t, err)
		assert.True(t, set.Has(domain.PermissionManageAll))
		// Has() falls through to manage_all even for names never granted
		// explicitly.
		assert.True(t, set.Has("approve_timesheet"))
		assert.True(t, set.Has("anything_at_all"))
	})

	t.Run("Non Admin Gets Role Permissions Only", func(t *testing.T) {
		store := newFakeStore()
		svc := NewAccessService(store)
		seedProfile(t, store, "uid-1", &tenantID)
		require.NoError(t, svc.AssignRole(ctx, "uid-1", &tenantID, domain.RoleEmployee, "uid-admin"))

		set, err := svc.ResolvePermissions(ctx, "uid-1", &tenantID)
		require.NoError(t, err)
		assert.True(t, set.Has("view_schedule"))
		assert.True(t, set.Has("submit_timesheet"))
		assert.False(t, set.Has("approve_timesheet"))
		assert.False(t, set.Has(domain.PermissionManageAll))
	})

	t.Run("Deterministic Output Order", func(t *testing.T) {
		store := newFakeStore()
		svc := NewAccessService(store)
		seedProfile(t, store, "uid-1", &tenantID)
		require.NoError(t, svc.AssignRole(ctx, "uid-1", &tenantID, domain.RoleManager, "uid-admin"))

		set, err := svc.ResolvePermissions(ctx, "uid-1", &tenantID)
		require.NoError(t, err)
		assert.Equal(t, []string{"approve_timesheet", "submit_timesheet", "view_schedule"}, set.Names())
	})
}

func TestAccessService_PrimaryRole(t *testing.T) {
	ctx := context.Background()
	tenantID := int32(1)

	t.Run("No Active Role", func(t *testing.T) {
		store := newFakeStore()
		svc := NewAccessService(store)

		role, err := svc.PrimaryRole(ctx, "uid-1", &tenantID)
		require.NoError(t, err)
		assert.Nil(t, role)
	})

	t.Run("Lowest Hierarchy Level Wins", func(t *testing.T) {
		store := newFakeStore()
		svc := NewAccessService(store)

		// Two active assignments can only coexist through direct writes;
		// the resolver still has to pick deterministically.
		manager := store.st.roles[domain.RoleManager]
		employee := store.st.roles[domain.RoleEmployee]
		store.st.assignments = append(store.st.assignments,
			domain.UserRoleAssignment{ID: 1, UserID: "uid-1", RoleID: employee.ID, TenantID: &tenantID, IsActive: true, AssignedAt: time.Now().Add(-time.Hour)},
			domain.UserRoleAssignment{ID: 2, UserID: "uid-1", RoleID: manager.ID, TenantID: &tenantID, IsActive: true, AssignedAt: time.Now()},
		)

		role, err := svc.PrimaryRole(ctx, "uid-1", &tenantID)
		require.NoError(t, err)
		require.NotNil(t, role)
		assert.Equal(t, domain.RoleManager, role.Name)
	})

	t.Run("Ties Break By Earliest Assignment", func(t *testing.T) {
		store := newFakeStore()
		svc := NewAccessService(store)

		manager := store.st.roles[domain.RoleManager]
		early := time.Now().Add(-2 * time.Hour)
		late := time.Now().Add(-time.Hour)
		store.st.assignments = append(store.st.assignments,
			domain.UserRoleAssignment{ID: 2, UserID: "uid-1", RoleID: manager.ID, TenantID: &tenantID, IsActive: true, AssignedAt: late},
			domain.UserRoleAssignment{ID: 1, UserID: "uid-1", RoleID: manager.ID, TenantID: &tenantID, IsActive: true, AssignedAt: early},
		)

		role, err := svc.PrimaryRole(ctx, "uid-1", &tenantID)
		require.NoError(t, err)
		require.NotNil(t, role)
		assert.Equal(t, domain.RoleManager, role.Name)
	})
}
