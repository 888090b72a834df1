package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tenantflow-backend/internal/domain"
	"tenantflow-backend/internal/identity"
	"tenantflow-backend/internal/logger"
	"tenantflow-backend/internal/repository"
)

const bootstrapActor = "bootstrap"

type bootstrapService struct {
	store    repository.Store
	provider identity.Provider
}

func NewBootstrapService(store repository.Store, provider identity.Provider) BootstrapService {
	return &bootstrapService{store: store, provider: provider}
}

func (s *bootstrapService) DiagnoseInconsistentState(ctx context.Context) ([]domain.InconsistencyReport, error) {
	confirmed, err := s.provider.ListConfirmedIdentities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list confirmed identities: %w", err)
	}

	var reports []domain.InconsistencyReport
	for _, snap := range confirmed {
		var missing []string

		profile, err := s.store.Profiles().GetByUserID(ctx, snap.ID)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("failed to look up profile for %s: %w", snap.ID, err)
			}
			missing = append(missing, domain.MissingProfile, domain.MissingEmployee, domain.MissingActiveRole)
			reports = append(reports, domain.InconsistencyReport{Identity: snap, Missing: missing})
			continue
		}

		if profile.TenantID != nil {
			if _, err := s.store.Employees().GetByUserID(ctx, snap.ID, *profile.TenantID); err != nil {
				if !errors.Is(err, sql.ErrNoRows) {
					return nil, fmt.Errorf("failed to look up employee for %s: %w", snap.ID, err)
				}
				missing = append(missing, domain.MissingEmployee)
			}
		}

		hasRole, err := s.store.Roles().HasActiveAssignment(ctx, snap.ID, profile.TenantID)
		if err != nil {
			return nil, fmt.Errorf("failed to check role assignment for %s: %w", snap.ID, err)
		}
		if !hasRole {
			missing = append(missing, domain.MissingActiveRole)
		}

		if len(missing) > 0 {
			reports = append(reports, domain.InconsistencyReport{Identity: snap, Missing: missing})
		}
	}

	// Inconsistencies are operational alerts, not silently auto-fixed.
	for _, report := range reports {
		logger.Warn("Confirmed identity with incomplete provisioning",
			"identity_id", report.Identity.ID, "email", report.Identity.Email, "missing", report.Missing)
	}
	return reports, nil
}

func (s *bootstrapService) BootstrapPrivilegedRole(ctx context.Context, userID string) error {
	snap, err := s.provider.GetIdentity(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to look up identity: %w", err)
	}

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Roles().EnsureRole(ctx, &domain.Role{
			Name:           domain.RoleSuperAdmin,
			HierarchyLevel: 0,
			IsSystemRole:   true,
		}); err != nil {
			return fmt.Errorf("ensure super admin role: %w", err)
		}

		if _, err := tx.Profiles().GetByUserID(ctx, userID); err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("look up profile: %w", err)
			}
			fullName := snap.Metadata.FullName
			if fullName == "" {
				fullName = snap.Email
			}
			profile := &domain.Profile{
				UserID:   userID,
				Email:    snap.Email,
				FullName: fullName,
				TenantID: nil, // global scope
				Role:     domain.RoleSuperAdmin,
				Status:   domain.ProfileStatusActive,
			}
			if err := tx.Profiles().Create(ctx, profile); err != nil {
				return fmt.Errorf("create profile: %w", err)
			}
		}

		if err := assignRoleTx(ctx, tx, userID, nil, domain.RoleSuperAdmin, bootstrapActor); err != nil {
			return fmt.Errorf("assign super admin role: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("Privileged role bootstrapped", "user_id", userID)
	return nil
}
