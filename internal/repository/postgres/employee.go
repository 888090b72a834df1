package postgres

import (
	"context"
	"time"

	"tenantflow-backend/internal/domain"
	"tenantflow-backend/internal/repository"
)

type employeeRepository struct {
	db dbtx
}

func NewEmployeeRepository(db dbtx) repository.EmployeeRepository {
	return &employeeRepository{db: db}
}

func (r *employeeRepository) Create(ctx context.Context, e *domain.Employee) error {
	query := `INSERT INTO employees (employee_code, user_id, tenant_id, full_name, job_title, hire_date, status, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	e.CreatedOn = time.Now().UTC()
	if e.Status == "" {
		e.Status = domain.EmployeeStatusActive
	}
	return r.db.QueryRowContext(ctx, query, e.EmployeeCode, e.UserID, e.TenantID, e.FullName, e.JobTitle, e.HireDate, e.Status, e.CreatedOn).Scan(&e.ID)
}

func (r *employeeRepository) GetByUserID(ctx context.Context, userID string, tenantID int32) (*domain.Employee, error) {
	e := &domain.Employee{}
	query := `SELECT id, employee_code, user_id, tenant_id, full_name, job_title, hire_date, status, created_on
	          FROM employees WHERE user_id = $1 AND tenant_id = $2`
	err := r.db.QueryRowContext(ctx, query, userID, tenantID).Scan(
		&e.ID, &e.EmployeeCode, &e.UserID, &e.TenantID, &e.FullName, &e.JobTitle, &e.HireDate, &e.Status, &e.CreatedOn,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *employeeRepository) NextSequence(ctx context.Context, tenantID int32) (int32, error) {
	// Runs inside the provisioning transaction; the unique index on
	// (tenant_id, employee_code) backstops concurrent onboards.
	var next int32
	query := `SELECT COUNT(*) + 1 FROM employees WHERE tenant_id = $1`
	err := r.db.QueryRowContext(ctx, query, tenantID).Scan(&next)
	return next, err
}
