package postgres

import (
	"context"
	"time"

	"tenantflow-backend/internal/domain"
	"tenantflow-backend/internal/repository"
)

type profileRepository struct {
	db dbtx
}

func NewProfileRepository(db dbtx) repository.ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Create(ctx context.Context, p *domain.Profile) error {
	query := `INSERT INTO profiles (user_id, email, full_name, tenant_id, role, status, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	now := time.Now().UTC()
	p.CreatedOn = now
	p.UpdatedOn = now
	if p.Status == "" {
		p.Status = domain.ProfileStatusActive
	}
	_, err := r.db.ExecContext(ctx, query, p.UserID, p.Email, p.FullName, p.TenantID, p.Role, p.Status, p.CreatedOn, p.UpdatedOn)
	return err
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	p := &domain.Profile{}
	query := `SELECT user_id, email, full_name, tenant_id, role, status, created_on, updated_on FROM profiles WHERE user_id = $1`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&p.UserID, &p.Email, &p.FullName, &p.TenantID, &p.Role, &p.Status, &p.CreatedOn, &p.UpdatedOn)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	p := &domain.Profile{}
	query := `SELECT user_id, email, full_name, tenant_id, role, status, created_on, updated_on FROM profiles WHERE LOWER(email) = LOWER($1)`
	err := r.db.QueryRowContext(ctx, query, email).Scan(&p.UserID, &p.Email, &p.FullName, &p.TenantID, &p.Role, &p.Status, &p.CreatedOn, &p.UpdatedOn)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *profileRepository) UpdateRole(ctx context.Context, userID, role string) error {
	query := `UPDATE profiles SET role = $1, updated_on = $2 WHERE user_id = $3`
	_, err := r.db.ExecContext(ctx, query, role, time.Now().UTC(), userID)
	return err
}
