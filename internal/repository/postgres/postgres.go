package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"tenantflow-backend/internal/repository"

	_ "github.com/lib/pq"
)

// dbtx is the common surface of *sql.DB and *sql.Tx the repositories run on.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
	tx *sql.Tx

	invitations repository.InvitationRepository
	tenants     repository.TenantRepository
	profiles    repository.ProfileRepository
	employees   repository.EmployeeRepository
	roles       repository.RoleRepository
}

func NewStore(db *sql.DB) *Store {
	return newStore(db, nil)
}

func newStore(db *sql.DB, tx *sql.Tx) *Store {
	var h dbtx = db
	if tx != nil {
		h = tx
	}
	return &Store{
		db:          db,
		tx:          tx,
		invitations: NewInvitationRepository(h),
		tenants:     NewTenantRepository(h),
		profiles:    NewProfileRepository(h),
		employees:   NewEmployeeRepository(h),
		roles:       NewRoleRepository(h),
	}
}

func (s *Store) Invitations() repository.InvitationRepository { return s.invitations }
func (s *Store) Tenants() repository.TenantRepository         { return s.tenants }
func (s *Store) Profiles() repository.ProfileRepository       { return s.profiles }
func (s *Store) Employees() repository.EmployeeRepository     { return s.employees }
func (s *Store) Roles() repository.RoleRepository             { return s.roles }

// WithinTx runs fn inside a database transaction. A store that is already
// transaction-bound runs fn directly so nested calls join the outer
// transaction instead of deadlocking on a second Begin.
func (s *Store) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txStore := newStore(s.db, tx)
	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
