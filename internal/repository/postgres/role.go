package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tenantflow-backend/internal/domain"
	"tenantflow-backend/internal/repository"
)

type roleRepository struct {
	db dbtx
}

func NewRoleRepository(db dbtx) repository.RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	role := &domain.Role{}
	query := `SELECT id, name, hierarchy_level, is_system_role FROM roles WHERE name = $1`
	err := r.db.QueryRowContext(ctx, query, name).Scan(&role.ID, &role.Name, &role.HierarchyLevel, &role.IsSystemRole)
	if err != nil {
		return nil, err
	}
	return role, nil
}

func (r *roleRepository) EnsureRole(ctx context.Context, role *domain.Role) (*domain.Role, error) {
	existing, err := r.GetByName(ctx, role.Name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	query := `INSERT INTO roles (name, hierarchy_level, is_system_role) VALUES ($1, $2, $3)
	          ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
	          RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, role.Name, role.HierarchyLevel, role.IsSystemRole).Scan(&role.ID); err != nil {
		return nil, err
	}
	return role, nil
}

func (r *roleRepository) ListActiveAssignments(ctx context.Context, userID string, tenantID *int32) ([]domain.UserRoleAssignment, []domain.Role, error) {
	query := `SELECT ura.id, ura.user_id, ura.role_id, ura.tenant_id, ura.is_active, ura.assigned_by, ura.assigned_at,
	                 r.id, r.name, r.hierarchy_level, r.is_system_role
	          FROM user_role_assignments ura
	          JOIN roles r ON r.id = ura.role_id
	          WHERE ura.user_id = $1 AND ura.tenant_id IS NOT DISTINCT FROM $2 AND ura.is_active = TRUE`
	rows, err := r.db.QueryContext(ctx, query, userID, tenantID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var assignments []domain.UserRoleAssignment
	var roles []domain.Role
	for rows.Next() {
		var a domain.UserRoleAssignment
		var role domain.Role
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.RoleID, &a.TenantID, &a.IsActive, &a.AssignedBy, &a.AssignedAt,
			&role.ID, &role.Name, &role.HierarchyLevel, &role.IsSystemRole,
		); err != nil {
			return nil, nil, err
		}
		assignments = append(assignments, a)
		roles = append(roles, role)
	}
	return assignments, roles, rows.Err()
}

func (r *roleRepository) ListPermissions(ctx context.Context, userID string, tenantID *int32) ([]domain.Permission, error) {
	query := `SELECT DISTINCT p.id, p.name, p.resource, p.action
	          FROM permissions p
	          JOIN role_permissions rp ON rp.permission_id = p.id
	          JOIN user_role_assignments ura ON ura.role_id = rp.role_id
	          WHERE ura.user_id = $1 AND ura.tenant_id IS NOT DISTINCT FROM $2 AND ura.is_active = TRUE`
	rows, err := r.db.QueryContext(ctx, query, userID, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPermissions(rows)
}

func (r *roleRepository) ListAllPermissions(ctx context.Context) ([]domain.Permission, error) {
	query := `SELECT id, name, resource, action FROM permissions`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPermissions(rows)
}

func (r *roleRepository) DeactivateAssignments(ctx context.Context, userID string, tenantID *int32) (int64, error) {
	query := `UPDATE user_role_assignments SET is_active = FALSE
	          WHERE user_id = $1 AND tenant_id IS NOT DISTINCT FROM $2 AND is_active = TRUE`
	res, err := r.db.ExecContext(ctx, query, userID, tenantID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *roleRepository) CreateAssignment(ctx context.Context, a *domain.UserRoleAssignment) error {
	query := `INSERT INTO user_role_assignments (user_id, role_id, tenant_id, is_active, assigned_by, assigned_at)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if a.AssignedAt.IsZero() {
		a.AssignedAt = time.Now().UTC()
	}
	return r.db.QueryRowContext(ctx, query, a.UserID, a.RoleID, a.TenantID, a.IsActive, a.AssignedBy, a.AssignedAt).Scan(&a.ID)
}

func (r *roleRepository) HasActiveAssignment(ctx context.Context, userID string, tenantID *int32) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM user_role_assignments
	          WHERE user_id = $1 AND tenant_id IS NOT DISTINCT FROM $2 AND is_active = TRUE)`
	err := r.db.QueryRowContext(ctx, query, userID, tenantID).Scan(&exists)
	return exists, err
}

func scanPermissions(rows *sql.Rows) ([]domain.Permission, error) {
	var perms []domain.Permission
	for rows.Next() {
		var p domain.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Resource, &p.Action); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}
