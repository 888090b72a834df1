package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"tenantflow-backend/internal/domain"
	"tenantflow-backend/internal/logger"
	"tenantflow-backend/internal/repository"
)

var ErrInviteEmailMismatch = errors.New("invitation was issued for a different email")

type provisioningService struct {
	store repository.Store
}

func NewProvisioningService(store repository.Store) ProvisioningService {
	return &provisioningService{store: store}
}

func (s *provisioningService) OnboardTenantOwner(ctx context.Context, userID, email, fullName, tenantName, slug, invitationToken string) (*domain.ProvisioningResult, error) {
	inv, err := s.validateInvitation(ctx, invitationToken, email, domain.InvitationKindTenantOwner)
	if err != nil {
		// Redelivery after a completed onboard arrives with an accepted
		// invitation; the existing state is the idempotent answer.
		if errors.Is(err, ErrInviteAccepted) {
			if result, ok, exErr := s.existingResult(ctx, s.store, userID); exErr == nil && ok {
				return result, nil
			}
		}
		return nil, err
	}

	// Idempotent short-circuit before any writes.
	if result, ok, err := s.existingResult(ctx, s.store, userID); err != nil {
		return nil, err
	} else if ok {
		return result, nil
	}

	if fullName == "" {
		fullName = inv.FullName
	}
	if tenantName == "" {
		tenantName = fullName + "'s Organization"
	}

	var result *domain.ProvisioningResult
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		// The compare-and-set on the invitation row serializes concurrent
		// onboards for the same token: exactly one transaction sees true.
		accepted, err := tx.Invitations().MarkAccepted(ctx, invitationToken, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("mark invitation accepted: %w", err)
		}
		if !accepted {
			// Lost the race; the winner has committed, so its entities are
			// visible now. Re-check closes the window between the entry
			// short-circuit and this transaction.
			existing, ok, err := s.existingResult(ctx, tx, userID)
			if err != nil {
				return err
			}
			if ok {
				result = existing
				return nil
			}
			return ErrInviteAccepted
		}

		tenant := &domain.Tenant{
			Name:   tenantName,
			Slug:   slug,
			Status: domain.TenantStatusActive,
		}
		if tenant.Slug == "" {
			tenant.Slug = Slugify(tenantName)
		}
		uniqueSlug, err := s.uniqueSlug(ctx, tx, tenant.Slug)
		if err != nil {
			return fmt.Errorf("resolve tenant slug: %w", err)
		}
		tenant.Slug = uniqueSlug
		if err := tx.Tenants().Create(ctx, tenant); err != nil {
			return fmt.Errorf("create tenant: %w", err)
		}

		r, err := s.provisionMember(ctx, tx, memberSpec{
			userID:    userID,
			email:     email,
			fullName:  fullName,
			tenantID:  tenant.ID,
			roleName:  domain.RoleTenantAdmin,
			jobTitle:  "Owner",
			invitedBy: inv.InvitedBy,
		})
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyProvisioned {
		logger.Info("Tenant owner onboarded",
			"user_id", userID, "tenant_id", result.TenantID, "employee_code", result.EmployeeCode)
	}
	return result, nil
}

func (s *provisioningService) OnboardCollaborator(ctx context.Context, userID, email, fullName, invitationToken string) (*domain.ProvisioningResult, error) {
	inv, err := s.validateInvitation(ctx, invitationToken, email, domain.InvitationKindCollaborator)
	if err != nil {
		if errors.Is(err, ErrInviteAccepted) {
			if result, ok, exErr := s.existingResult(ctx, s.store, userID); exErr == nil && ok {
				return result, nil
			}
		}
		return nil, err
	}
	if inv.TenantID == nil {
		return nil, ErrTenantRequired
	}

	if result, ok, err := s.existingResult(ctx, s.store, userID); err != nil {
		return nil, err
	} else if ok {
		return result, nil
	}

	if fullName == "" {
		fullName = inv.FullName
	}
	roleName := inv.Role
	if roleName == "" {
		roleName = domain.RoleEmployee
	}

	var result *domain.ProvisioningResult
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		accepted, err := tx.Invitations().MarkAccepted(ctx, invitationToken, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("mark invitation accepted: %w", err)
		}
		if !accepted {
			existing, ok, err := s.existingResult(ctx, tx, userID)
			if err != nil {
				return err
			}
			if ok {
				result = existing
				return nil
			}
			return ErrInviteAccepted
		}

		// Collaborators join an existing tenant; never create one here.
		if _, err := tx.Tenants().GetByID(ctx, *inv.TenantID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrTenantNotFound
			}
			return fmt.Errorf("look up tenant: %w", err)
		}

		r, err := s.provisionMember(ctx, tx, memberSpec{
			userID:    userID,
			email:     email,
			fullName:  fullName,
			tenantID:  *inv.TenantID,
			roleName:  roleName,
			invitedBy: inv.InvitedBy,
		})
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyProvisioned {
		logger.Info("Collaborator onboarded",
			"user_id", userID, "tenant_id", result.TenantID, "role", result.RoleName)
	}
	return result, nil
}

type memberSpec struct {
	userID    string
	email     string
	fullName  string
	tenantID  int32
	roleName  string
	jobTitle  string
	invitedBy string
}

// provisionMember creates the profile, employee record, and active role
// assignment as part of the surrounding transaction.
func (s *provisioningService) provisionMember(ctx context.Context, tx repository.Store, spec memberSpec) (*domain.ProvisioningResult, error) {
	profile := &domain.Profile{
		UserID:   spec.userID,
		Email:    spec.email,
		FullName: spec.fullName,
		TenantID: &spec.tenantID,
		Role:     spec.roleName,
		Status:   domain.ProfileStatusActive,
	}
	if err := tx.Profiles().Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	seq, err := tx.Employees().NextSequence(ctx, spec.tenantID)
	if err != nil {
		return nil, fmt.Errorf("generate employee code: %w", err)
	}
	employee := &domain.Employee{
		EmployeeCode: fmt.Sprintf("EMP-%05d", seq),
		UserID:       spec.userID,
		TenantID:     spec.tenantID,
		FullName:     spec.fullName,
		JobTitle:     spec.jobTitle,
		HireDate:     time.Now().UTC(),
		Status:       domain.EmployeeStatusActive,
	}
	if err := tx.Employees().Create(ctx, employee); err != nil {
		return nil, fmt.Errorf("create employee: %w", err)
	}

	assignedBy := spec.invitedBy
	if assignedBy == "" {
		assignedBy = spec.userID
	}
	if err := assignRoleTx(ctx, tx, spec.userID, &spec.tenantID, spec.roleName, assignedBy); err != nil {
		return nil, fmt.Errorf("assign role: %w", err)
	}

	return &domain.ProvisioningResult{
		TenantID:     spec.tenantID,
		ProfileID:    spec.userID,
		EmployeeID:   employee.ID,
		EmployeeCode: employee.EmployeeCode,
		RoleName:     spec.roleName,
	}, nil
}

// validateInvitation resolves and checks the invitation without mutating
// anything, so it is safe to call on every redelivery.
func (s *provisioningService) validateInvitation(ctx context.Context, token, email string, kind domain.InvitationKind) (*domain.Invitation, error) {
	inv, err := s.store.Invitations().GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("failed to look up invitation: %w", err)
	}
	if inv.Kind != kind {
		return nil, ErrInviteKindMismatch
	}
	if email != "" && !strings.EqualFold(inv.Email, email) {
		return nil, ErrInviteEmailMismatch
	}
	if err := checkAcceptable(inv, time.Now().UTC()); err != nil {
		return nil, err
	}
	return inv, nil
}

// existingResult reports the entities already provisioned for the user, if
// any. A present profile means a previous run completed; its linked entities
// are returned so duplicate deliveries resolve to the same ids.
func (s *provisioningService) existingResult(ctx context.Context, store repository.Store, userID string) (*domain.ProvisioningResult, bool, error) {
	profile, err := store.Profiles().GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to look up profile: %w", err)
	}

	result := &domain.ProvisioningResult{
		ProfileID:          profile.UserID,
		RoleName:           profile.Role,
		AlreadyProvisioned: true,
	}
	if profile.TenantID != nil {
		result.TenantID = *profile.TenantID
		employee, err := store.Employees().GetByUserID(ctx, userID, *profile.TenantID)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return nil, false, fmt.Errorf("failed to look up employee: %w", err)
			}
		} else {
			result.EmployeeID = employee.ID
			result.EmployeeCode = employee.EmployeeCode
		}
	}
	return result, true, nil
}

func (s *provisioningService) uniqueSlug(ctx context.Context, tx repository.Store, base string) (string, error) {
	if base == "" {
		base = "tenant"
	}
	slug := base
	for i := 2; ; i++ {
		exists, err := tx.Tenants().SlugExists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

// Slugify lowercases the name and collapses runs of non-alphanumerics into
// single hyphens.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true // trim leading hyphens
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteRune('-')
			lastHyphen = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
