package domain

import (
	"sort"
	"time"
)

// Well-known role names. Roles with AdminRoleNames membership imply the full
// permission set regardless of their role_permissions rows.
const (
	RoleSuperAdmin  = "super_admin"
	RoleTenantAdmin = "tenant_admin"
	RoleManager     = "manager"
	RoleEmployee    = "employee"
)

// PermissionManageAll is the catch-all permission granted to administrative roles.
const PermissionManageAll = "manage_all"

// AdminRoleNames lists roles that always imply manage_all.
var AdminRoleNames = map[string]bool{
	RoleSuperAdmin:  true,
	RoleTenantAdmin: true,
}

type Role struct {
	ID             int32  `json:"id"`
	Name           string `json:"name"`
	HierarchyLevel int32  `json:"hierarchy_level"` // lower = more privileged
	IsSystemRole   bool   `json:"is_system_role"`
}

type Permission struct {
	ID       int32  `json:"id"`
	Name     string `json:"name"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

type UserRoleAssignment struct {
	ID         int32     `json:"id"`
	UserID     string    `json:"user_id"`
	RoleID     int32     `json:"role_id"`
	TenantID   *int32    `json:"tenant_id,omitempty"` // nil for global-scope assignments
	IsActive   bool      `json:"is_active"`
	AssignedBy string    `json:"assigned_by"`
	AssignedAt time.Time `json:"assigned_at"`
}

// PermissionSet is a set of permission names.
type PermissionSet map[string]bool

func NewPermissionSet(names ...string) PermissionSet {
	set := make(PermissionSet, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func (s PermissionSet) Has(name string) bool {
	return s[name] || s[PermissionManageAll]
}

func (s PermissionSet) Add(name string) {
	s[name] = true
}

// Names returns the permission names in sorted order.
func (s PermissionSet) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
