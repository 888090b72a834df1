package postgres

import (
	"context"
	"database/sql"
	"time"

	"tenantflow-backend/internal/domain"
	"tenantflow-backend/internal/repository"
)

type invitationRepository struct {
	db dbtx
}

func NewInvitationRepository(db dbtx) repository.InvitationRepository {
	return &invitationRepository{db: db}
}

const invitationColumns = `id, token, email, full_name, invitation_kind, target_tenant_id, role, invited_by, status, expires_on, accepted_on, created_on`

func (r *invitationRepository) Create(ctx context.Context, inv *domain.Invitation) error {
	query := `INSERT INTO invitations (token, email, full_name, invitation_kind, target_tenant_id, role, invited_by, status, expires_on, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	inv.CreatedOn = time.Now().UTC()
	inv.Status = domain.InvitationStatusPending
	return r.db.QueryRowContext(ctx, query,
		inv.Token, inv.Email, inv.FullName, inv.Kind, inv.TenantID, inv.Role,
		inv.InvitedBy, inv.Status, inv.ExpiresOn, inv.CreatedOn,
	).Scan(&inv.ID)
}

func (r *invitationRepository) GetByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE token = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, token))
}

func (r *invitationRepository) FindPending(ctx context.Context, email string, tenantID *int32) (*domain.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations
	          WHERE LOWER(email) = LOWER($1) AND target_tenant_id IS NOT DISTINCT FROM $2 AND status = $3`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email, tenantID, domain.InvitationStatusPending))
}

func (r *invitationRepository) MarkAccepted(ctx context.Context, token string, acceptedOn time.Time) (bool, error) {
	// Compare-and-set: only a PENDING row transitions. Two concurrent callers
	// racing on the same token serialize on the row lock and exactly one sees
	// rows_affected = 1.
	query := `UPDATE invitations SET status = $1, accepted_on = $2 WHERE token = $3 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, domain.InvitationStatusAccepted, acceptedOn, token, domain.InvitationStatusPending)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *invitationRepository) Revoke(ctx context.Context, token string) (bool, error) {
	query := `UPDATE invitations SET status = $1 WHERE token = $2 AND status = $3`
	res, err := r.db.ExecContext(ctx, query, domain.InvitationStatusRevoked, token, domain.InvitationStatusPending)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *invitationRepository) ListPendingByTenant(ctx context.Context, tenantID int32) ([]domain.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations
	          WHERE target_tenant_id = $1 AND status = $2 ORDER BY created_on DESC`
	rows, err := r.db.QueryContext(ctx, query, tenantID, domain.InvitationStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invs []domain.Invitation
	for rows.Next() {
		inv, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		invs = append(invs, *inv)
	}
	return invs, rows.Err()
}

func (r *invitationRepository) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE invitations SET status = $1 WHERE status = $2 AND expires_on < $3`
	res, err := r.db.ExecContext(ctx, query, domain.InvitationStatusExpired, domain.InvitationStatusPending, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *invitationRepository) scanOne(row *sql.Row) (*domain.Invitation, error) {
	return r.scanRow(row)
}

func (r *invitationRepository) scanRow(row rowScanner) (*domain.Invitation, error) {
	inv := &domain.Invitation{}
	var acceptedOn sql.NullTime
	err := row.Scan(
		&inv.ID, &inv.Token, &inv.Email, &inv.FullName, &inv.Kind, &inv.TenantID,
		&inv.Role, &inv.InvitedBy, &inv.Status, &inv.ExpiresOn, &acceptedOn, &inv.CreatedOn,
	)
	if err != nil {
		return nil, err
	}
	if acceptedOn.Valid {
		inv.AcceptedOn = &acceptedOn.Time
	}
	return inv, nil
}
