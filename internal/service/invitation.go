package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/google/uuid"

	"tenantflow-backend/internal/domain"
	"tenantflow-backend/internal/identity"
	"tenantflow-backend/internal/logger"
	"tenantflow-backend/internal/repository"
)

var (
	ErrMissingFields          = errors.New("email and full name are required")
	ErrInvalidEmail           = errors.New("invalid email format")
	ErrEmailAlreadyRegistered = errors.New("an account for this email already exists")
	ErrDuplicateInvitation    = errors.New("a pending invitation already exists for this email")
	ErrTenantRequired         = errors.New("collaborator invitations require a target tenant")
	ErrTenantNotFound         = errors.New("target tenant not found")
	ErrUnknownInvitationKind  = errors.New("unknown invitation kind")

	ErrInviteNotFound     = errors.New("invitation not found")
	ErrInviteExpired      = errors.New("invitation has expired")
	ErrInviteAccepted     = errors.New("invitation already accepted")
	ErrInviteRevoked      = errors.New("invitation has been revoked")
	ErrInviteKindMismatch = errors.New("invitation kind does not match onboarding path")
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type invitationService struct {
	store          repository.Store
	provider       identity.Provider
	emailSvc       EmailService
	ttl            time.Duration
	confirmBaseURL string
	redirectURL    string
}

func NewInvitationService(store repository.Store, provider identity.Provider, emailSvc EmailService, ttlDays int, confirmBaseURL, redirectURL string) InvitationService {
	return &invitationService{
		store:          store,
		provider:       provider,
		emailSvc:       emailSvc,
		ttl:            time.Duration(ttlDays) * 24 * time.Hour,
		confirmBaseURL: confirmBaseURL,
		redirectURL:    redirectURL,
	}
}

func (s *invitationService) Issue(ctx context.Context, req IssueInvitationRequest) (*domain.Invitation, string, error) {
	if req.Email == "" || req.FullName == "" {
		return nil, "", ErrMissingFields
	}
	if !emailPattern.MatchString(req.Email) {
		return nil, "", ErrInvalidEmail
	}

	switch req.Kind {
	case domain.InvitationKindTenantOwner:
		// Owner invitations create their tenant at confirmation time.
	case domain.InvitationKindCollaborator:
		if req.TenantID == nil {
			return nil, "", ErrTenantRequired
		}
		if _, err := s.store.Tenants().GetByID(ctx, *req.TenantID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, "", ErrTenantNotFound
			}
			return nil, "", fmt.Errorf("failed to look up tenant: %w", err)
		}
	default:
		return nil, "", ErrUnknownInvitationKind
	}

	// An existing account means "log in instead", not a new invitation.
	if _, err := s.provider.GetIdentityByEmail(ctx, req.Email); err == nil {
		return nil, "", ErrEmailAlreadyRegistered
	} else if !errors.Is(err, identity.ErrIdentityNotFound) {
		return nil, "", fmt.Errorf("failed to check existing identity: %w", err)
	}

	if _, err := s.store.Invitations().FindPending(ctx, req.Email, req.TenantID); err == nil {
		return nil, "", ErrDuplicateInvitation
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, "", fmt.Errorf("failed to check pending invitations: %w", err)
	}

	role := req.Role
	if role == "" {
		role = domain.RoleEmployee
	}

	inv := &domain.Invitation{
		Token:     uuid.NewString(),
		Email:     req.Email,
		FullName:  req.FullName,
		Kind:      req.Kind,
		TenantID:  req.TenantID,
		Role:      role,
		InvitedBy: req.InvitedBy,
		ExpiresOn: time.Now().UTC().Add(s.ttl),
	}
	if err := s.store.Invitations().Create(ctx, inv); err != nil {
		return nil, "", fmt.Errorf("failed to create invitation: %w", err)
	}

	metadata := domain.IdentityMetadata{
		InvitationKind:  string(req.Kind),
		InvitationToken: inv.Token,
		TenantID:        req.TenantID,
		TenantName:      req.TenantName,
		FullName:        req.FullName,
	}
	if _, err := s.provider.CreateIdentity(ctx, req.Email, req.FullName, metadata); err != nil {
		// Withdraw the invitation so a retry starts clean.
		if _, revokeErr := s.store.Invitations().Revoke(ctx, inv.Token); revokeErr != nil {
			logger.Error("Failed to revoke invitation after identity creation failure", "token", inv.Token, "error", revokeErr)
		}
		return nil, "", fmt.Errorf("failed to create identity: %w", err)
	}

	link := s.buildConfirmationLink(inv.Token)

	// Email delivery is best-effort; a send failure never fails issuance.
	if err := s.emailSvc.SendInvitation(ctx, req.Email, req.FullName, link, req.TenantName); err != nil {
		logger.Warn("Failed to send invitation email", "email", req.Email, "error", err)
	}

	return inv, link, nil
}

func (s *invitationService) Validate(ctx context.Context, token string) (*domain.Invitation, error) {
	inv, err := s.store.Invitations().GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("failed to look up invitation: %w", err)
	}
	if err := checkAcceptable(inv, time.Now().UTC()); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *invitationService) Revoke(ctx context.Context, token string) error {
	revoked, err := s.store.Invitations().Revoke(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to revoke invitation: %w", err)
	}
	if !revoked {
		inv, err := s.store.Invitations().GetByToken(ctx, token)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrInviteNotFound
			}
			return fmt.Errorf("failed to look up invitation: %w", err)
		}
		switch inv.Status {
		case domain.InvitationStatusAccepted:
			return ErrInviteAccepted
		case domain.InvitationStatusRevoked:
			return nil // already revoked, idempotent
		default:
			return ErrInviteExpired
		}
	}
	return nil
}

func (s *invitationService) ListPending(ctx context.Context, tenantID int32) ([]domain.Invitation, error) {
	return s.store.Invitations().ListPendingByTenant(ctx, tenantID)
}

func (s *invitationService) ExpireStale(ctx context.Context) (int64, error) {
	count, err := s.store.Invitations().ExpirePending(ctx, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to expire invitations: %w", err)
	}
	if count > 0 {
		logger.Info("Expired stale invitations", "count", count)
	}
	return count, nil
}

func (s *invitationService) buildConfirmationLink(token string) string {
	v := url.Values{}
	v.Set("token", token)
	if s.redirectURL != "" {
		v.Set("redirect_to", s.redirectURL)
	}
	return fmt.Sprintf("%s/confirm?%s", s.confirmBaseURL, v.Encode())
}

// checkAcceptable reports the typed validation failure for an invitation that
// cannot be accepted. Expiry wins over status so a stale invitation reads as
// expired whatever state it was left in.
func checkAcceptable(inv *domain.Invitation, now time.Time) error {
	if inv.ExpiresOn.Before(now) {
		return ErrInviteExpired
	}
	switch inv.Status {
	case domain.InvitationStatusPending:
		return nil
	case domain.InvitationStatusAccepted:
		return ErrInviteAccepted
	case domain.InvitationStatusRevoked:
		return ErrInviteRevoked
	case domain.InvitationStatusExpired:
		return ErrInviteExpired
	default:
		return ErrInviteNotFound
	}
}
