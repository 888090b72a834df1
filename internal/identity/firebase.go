package identity

import (
	"context"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"tenantflow-backend/internal/config"
	"tenantflow-backend/internal/domain"
)

// Custom-claim keys carrying the invitation metadata on an identity.
const (
	claimInvitationKind  = "invitation_kind"
	claimInvitationToken = "invitation_token"
	claimTenantID        = "tenant_id"
	claimTenantName      = "tenant_name"
	claimTenantSlug      = "tenant_slug"
	claimFullName        = "full_name"
)

type firebaseProvider struct {
	client *auth.Client
}

// NewFirebaseProvider builds a Provider backed by Firebase Authentication.
func NewFirebaseProvider(ctx context.Context, cfg config.FirebaseConfig) (Provider, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase auth client: %w", err)
	}

	return &firebaseProvider{client: client}, nil
}

func (p *firebaseProvider) CreateIdentity(ctx context.Context, email, fullName string, metadata domain.IdentityMetadata) (*domain.IdentitySnapshot, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		DisplayName(fullName).
		EmailVerified(false).
		Disabled(false)

	user, err := p.client.CreateUser(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}

	if err := p.client.SetCustomUserClaims(ctx, user.UID, claimsFromMetadata(metadata)); err != nil {
		return nil, fmt.Errorf("failed to attach identity metadata: %w", err)
	}

	return &domain.IdentitySnapshot{
		ID:       user.UID,
		Email:    email,
		Metadata: metadata,
	}, nil
}

func (p *firebaseProvider) GetIdentity(ctx context.Context, id string) (*domain.IdentitySnapshot, error) {
	user, err := p.client.GetUser(ctx, id)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, fmt.Errorf("failed to look up identity: %w", err)
	}
	return snapshotFromUser(user), nil
}

func (p *firebaseProvider) GetIdentityByEmail(ctx context.Context, email string) (*domain.IdentitySnapshot, error) {
	user, err := p.client.GetUserByEmail(ctx, email)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, fmt.Errorf("failed to look up identity by email: %w", err)
	}
	return snapshotFromUser(user), nil
}

func (p *firebaseProvider) ConfirmIdentity(ctx context.Context, id string) error {
	params := (&auth.UserToUpdate{}).EmailVerified(true)
	if _, err := p.client.UpdateUser(ctx, id, params); err != nil {
		if auth.IsUserNotFound(err) {
			return ErrIdentityNotFound
		}
		return fmt.Errorf("failed to confirm identity: %w", err)
	}
	return nil
}

func (p *firebaseProvider) ListConfirmedIdentities(ctx context.Context) ([]domain.IdentitySnapshot, error) {
	var confirmed []domain.IdentitySnapshot
	it := p.client.Users(ctx, "")
	for {
		user, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list identities: %w", err)
		}
		if !user.EmailVerified {
			continue
		}
		confirmed = append(confirmed, *snapshotFromUser(user.UserRecord))
	}
	return confirmed, nil
}

func snapshotFromUser(user *auth.UserRecord) *domain.IdentitySnapshot {
	snap := &domain.IdentitySnapshot{
		ID:       user.UID,
		Email:    user.Email,
		Metadata: metadataFromClaims(user.CustomClaims),
	}
	if user.EmailVerified {
		// Firebase records no verification timestamp; the creation time is a
		// stable non-nil stand-in for confirmed_at.
		confirmedAt := time.UnixMilli(user.UserMetadata.CreationTimestamp).UTC()
		snap.ConfirmedAt = &confirmedAt
	}
	return snap
}

func claimsFromMetadata(m domain.IdentityMetadata) map[string]interface{} {
	claims := map[string]interface{}{}
	if m.InvitationKind != "" {
		claims[claimInvitationKind] = m.InvitationKind
	}
	if m.InvitationToken != "" {
		claims[claimInvitationToken] = m.InvitationToken
	}
	if m.TenantID != nil {
		claims[claimTenantID] = *m.TenantID
	}
	if m.TenantName != "" {
		claims[claimTenantName] = m.TenantName
	}
	if m.TenantSlug != "" {
		claims[claimTenantSlug] = m.TenantSlug
	}
	if m.FullName != "" {
		claims[claimFullName] = m.FullName
	}
	return claims
}

func metadataFromClaims(claims map[string]interface{}) domain.IdentityMetadata {
	var m domain.IdentityMetadata
	if claims == nil {
		return m
	}
	if v, ok := claims[claimInvitationKind].(string); ok {
		m.InvitationKind = v
	}
	if v, ok := claims[claimInvitationToken].(string); ok {
		m.InvitationToken = v
	}
	switch v := claims[claimTenantID].(type) {
	case float64:
		id := int32(v)
		m.TenantID = &id
	case int32:
		id := v
		m.TenantID = &id
	}
	if v, ok := claims[claimTenantName].(string); ok {
		m.TenantName = v
	}
	if v, ok := claims[claimTenantSlug].(string); ok {
		m.TenantSlug = v
	}
	if v, ok := claims[claimFullName].(string); ok {
		m.FullName = v
	}
	return m
}
