package postgres

import (
	"context"
	"time"

	"tenantflow-backend/internal/domain"
	"tenantflow-backend/internal/repository"
)

type tenantRepository struct {
	db dbtx
}

func NewTenantRepository(db dbtx) repository.TenantRepository {
	return &tenantRepository{db: db}
}

func (r *tenantRepository) Create(ctx context.Context, t *domain.Tenant) error {
	query := `INSERT INTO tenants (name, slug, status, created_on) VALUES ($1, $2, $3, $4) RETURNING id`
	t.CreatedOn = time.Now().UTC()
	if t.Status == "" {
		t.Status = domain.TenantStatusActive
	}
	return r.db.QueryRowContext(ctx, query, t.Name, t.Slug, t.Status, t.CreatedOn).Scan(&t.ID)
}

func (r *tenantRepository) GetByID(ctx context.Context, id int32) (*domain.Tenant, error) {
	t := &domain.Tenant{}
	query := `SELECT id, name, slug, status, created_on FROM tenants WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Name, &t.Slug, &t.Status, &t.CreatedOn)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *tenantRepository) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	t := &domain.Tenant{}
	query := `SELECT id, name, slug, status, created_on FROM tenants WHERE slug = $1`
	err := r.db.QueryRowContext(ctx, query, slug).Scan(&t.ID, &t.Name, &t.Slug, &t.Status, &t.CreatedOn)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *tenantRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM tenants WHERE slug = $1)`
	err := r.db.QueryRowContext(ctx, query, slug).Scan(&exists)
	return exists, err
}
