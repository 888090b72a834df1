package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"tenantflow-backend/internal/domain"
	"tenantflow-backend/internal/repository"
)

// MockIdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) CreateIdentity(ctx context.Context, email, fullName string, metadata domain.IdentityMetadata) (*domain.IdentitySnapshot, error) {
	args := m.Called(ctx, email, fullName, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IdentitySnapshot), args.Error(1)
}
func (m *MockIdentityProvider) GetIdentity(ctx context.Context, id string) (*domain.IdentitySnapshot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IdentitySnapshot), args.Error(1)
}
func (m *MockIdentityProvider) GetIdentityByEmail(ctx context.Context, email string) (*domain.IdentitySnapshot, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IdentitySnapshot), args.Error(1)
}
func (m *MockIdentityProvider) ConfirmIdentity(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockIdentityProvider) ListConfirmedIdentities(ctx context.Context) ([]domain.IdentitySnapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.IdentitySnapshot), args.Error(1)
}

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendInvitation(ctx context.Context, email, name, confirmationLink, tenantName string) error {
	args := m.Called(ctx, email, name, confirmationLink, tenantName)
	return args.Error(0)
}

// MockProvisioningService
type MockProvisioningService struct {
	mock.Mock
}

func (m *MockProvisioningService) OnboardTenantOwner(ctx context.Context, userID, email, fullName, tenantName, slug, invitationToken string) (*domain.ProvisioningResult, error) {
	args := m.Called(ctx, userID, email, fullName, tenantName, slug, invitationToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProvisioningResult), args.Error(1)
}
func (m *MockProvisioningService) OnboardCollaborator(ctx context.Context, userID, email, fullName, invitationToken string) (*domain.ProvisioningResult, error) {
	args := m.Called(ctx, userID, email, fullName, invitationToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProvisioningResult), args.Error(1)
}

// fakeStore is an in-memory repository.Store with real transaction semantics:
// WithinTx serializes on a mutex and restores a snapshot when fn fails, so
// atomicity and race behavior can be exercised without a database.
type fakeState struct {
	invitations map[string]domain.Invitation // keyed by token
	tenants     map[int32]domain.Tenant
	profiles    map[string]domain.Profile // keyed by user id
	employees   []domain.Employee
	roles       map[string]domain.Role
	rolePerms   map[int32][]domain.Permission
	assignments []domain.UserRoleAssignment

	nextInvitationID int32
	nextTenantID     int32
	nextEmployeeID   int32
	nextRoleID       int32
	nextAssignmentID int32

	failEmployeeCreate error
}

func newFakeStore() *fakeStore {
	st := &fakeState{
		invitations: make(map[string]domain.Invitation),
		tenants:     make(map[int32]domain.Tenant),
		profiles:    make(map[string]domain.Profile),
		roles:       make(map[string]domain.Role),
		rolePerms:   make(map[int32][]domain.Permission),
	}
	s := &fakeStore{mu: &sync.Mutex{}, st: st}
	s.seedRoles()
	return s
}

type fakeStore struct {
	mu   *sync.Mutex
	st   *fakeState
	inTx bool
}

func (s *fakeStore) seedRoles() {
	seed := []struct {
		name  string
		level int32
		perms []domain.Permission
	}{
		{domain.RoleSuperAdmin, 0, nil},
		{domain.RoleTenantAdmin, 10, nil},
		{domain.RoleManager, 20, []domain.Permission{
			{Name: "view_schedule"}, {Name: "submit_timesheet"}, {Name: "approve_timesheet"},
		}},
		{domain.RoleEmployee, 30, []domain.Permission{
			{Name: "view_schedule"}, {Name: "submit_timesheet"},
		}},
	}
	for _, r := range seed {
		s.st.nextRoleID++
		role := domain.Role{ID: s.st.nextRoleID, Name: r.name, HierarchyLevel: r.level, IsSystemRole: true}
		s.st.roles[r.name] = role
		s.st.rolePerms[role.ID] = r.perms
	}
}

func (st *fakeState) clone() *fakeState {
	c := &fakeState{
		invitations:        make(map[string]domain.Invitation, len(st.invitations)),
		tenants:            make(map[int32]domain.Tenant, len(st.tenants)),
		profiles:           make(map[string]domain.Profile, len(st.profiles)),
		employees:          append([]domain.Employee(nil), st.employees...),
		roles:              make(map[string]domain.Role, len(st.roles)),
		rolePerms:          make(map[int32][]domain.Permission, len(st.rolePerms)),
		assignments:        append([]domain.UserRoleAssignment(nil), st.assignments...),
		nextInvitationID:   st.nextInvitationID,
		nextTenantID:       st.nextTenantID,
		nextEmployeeID:     st.nextEmployeeID,
		nextRoleID:         st.nextRoleID,
		nextAssignmentID:   st.nextAssignmentID,
		failEmployeeCreate: st.failEmployeeCreate,
	}
	for k, v := range st.invitations {
		c.invitations[k] = v
	}
	for k, v := range st.tenants {
		c.tenants[k] = v
	}
	for k, v := range st.profiles {
		c.profiles[k] = v
	}
	for k, v := range st.roles {
		c.roles[k] = v
	}
	for k, v := range st.rolePerms {
		c.rolePerms[k] = v
	}
	return c
}

func (s *fakeStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *fakeStore) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.st.clone()
	if err := fn(&fakeStore{mu: s.mu, st: s.st, inTx: true}); err != nil {
		*s.st = *snapshot
		return err
	}
	return nil
}

func (s *fakeStore) Invitations() repository.InvitationRepository { return fakeInvitationRepo{s} }
func (s *fakeStore) Tenants() repository.TenantRepository         { return fakeTenantRepo{s} }
func (s *fakeStore) Profiles() repository.ProfileRepository       { return fakeProfileRepo{s} }
func (s *fakeStore) Employees() repository.EmployeeRepository     { return fakeEmployeeRepo{s} }
func (s *fakeStore) Roles() repository.RoleRepository             { return fakeRoleRepo{s} }

func tenantIDEqual(a, b *int32) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

type fakeInvitationRepo struct{ s *fakeStore }

func (r fakeInvitationRepo) Create(ctx context.Context, inv *domain.Invitation) error {
	defer r.s.lock()()
	if _, ok := r.s.st.invitations[inv.Token]; ok {
		return errors.New("duplicate invitation token")
	}
	r.s.st.nextInvitationID++
	inv.ID = r.s.st.nextInvitationID
	inv.Status = domain.InvitationStatusPending
	inv.CreatedOn = time.Now().UTC()
	r.s.st.invitations[inv.Token] = *inv
	return nil
}

func (r fakeInvitationRepo) GetByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	defer r.s.lock()()
	inv, ok := r.s.st.invitations[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &inv, nil
}

func (r fakeInvitationRepo) FindPending(ctx context.Context, email string, tenantID *int32) (*domain.Invitation, error) {
	defer r.s.lock()()
	for _, inv := range r.s.st.invitations {
		if strings.EqualFold(inv.Email, email) && tenantIDEqual(inv.TenantID, tenantID) &&
			inv.Status == domain.InvitationStatusPending {
			return &inv, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r fakeInvitationRepo) MarkAccepted(ctx context.Context, token string, acceptedOn time.Time) (bool, error) {
	defer r.s.lock()()
	inv, ok := r.s.st.invitations[token]
	if !ok || inv.Status != domain.InvitationStatusPending {
		return false, nil
	}
	inv.Status = domain.InvitationStatusAccepted
	inv.AcceptedOn = &acceptedOn
	r.s.st.invitations[token] = inv
	return true, nil
}

func (r fakeInvitationRepo) Revoke(ctx context.Context, token string) (bool, error) {
	defer r.s.lock()()
	inv, ok := r.s.st.invitations[token]
	if !ok || inv.Status != domain.InvitationStatusPending {
		return false, nil
	}
	inv.Status = domain.InvitationStatusRevoked
	r.s.st.invitations[token] = inv
	return true, nil
}

func (r fakeInvitationRepo) ListPendingByTenant(ctx context.Context, tenantID int32) ([]domain.Invitation, error) {
	defer r.s.lock()()
	var out []domain.Invitation
	for _, inv := range r.s.st.invitations {
		if inv.TenantID != nil && *inv.TenantID == tenantID && inv.Status == domain.InvitationStatusPending {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r fakeInvitationRepo) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	defer r.s.lock()()
	var count int64
	for token, inv := range r.s.st.invitations {
		if inv.Status == domain.InvitationStatusPending && inv.ExpiresOn.Before(now) {
			inv.Status = domain.InvitationStatusExpired
			r.s.st.invitations[token] = inv
			count++
		}
	}
	return count, nil
}

type fakeTenantRepo struct{ s *fakeStore }

func (r fakeTenantRepo) Create(ctx context.Context, tenant *domain.Tenant) error {
	defer r.s.lock()()
	r.s.st.nextTenantID++
	tenant.ID = r.s.st.nextTenantID
	tenant.CreatedOn = time.Now().UTC()
	r.s.st.tenants[tenant.ID] = *tenant
	return nil
}

func (r fakeTenantRepo) GetByID(ctx context.Context, id int32) (*domain.Tenant, error) {
	defer r.s.lock()()
	tenant, ok := r.s.st.tenants[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &tenant, nil
}

func (r fakeTenantRepo) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	defer r.s.lock()()
	for _, tenant := range r.s.st.tenants {
		if tenant.Slug == slug {
			return &tenant, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r fakeTenantRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	defer r.s.lock()()
	for _, tenant := range r.s.st.tenants {
		if tenant.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

type fakeProfileRepo struct{ s *fakeStore }

func (r fakeProfileRepo) Create(ctx context.Context, profile *domain.Profile) error {
	defer r.s.lock()()
	if _, ok := r.s.st.profiles[profile.UserID]; ok {
		return errors.New("duplicate profile")
	}
	profile.CreatedOn = time.Now().UTC()
	r.s.st.profiles[profile.UserID] = *profile
	return nil
}

func (r fakeProfileRepo) GetByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	defer r.s.lock()()
	profile, ok := r.s.st.profiles[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &profile, nil
}

func (r fakeProfileRepo) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	defer r.s.lock()()
	for _, profile := range r.s.st.profiles {
		if strings.EqualFold(profile.Email, email) {
			return &profile, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r fakeProfileRepo) UpdateRole(ctx context.Context, userID, role string) error {
	defer r.s.lock()()
	profile, ok := r.s.st.profiles[userID]
	if !ok {
		return sql.ErrNoRows
	}
	profile.Role = role
	r.s.st.profiles[userID] = profile
	return nil
}

type fakeEmployeeRepo struct{ s *fakeStore }

func (r fakeEmployeeRepo) Create(ctx context.Context, employee *domain.Employee) error {
	defer r.s.lock()()
	if r.s.st.failEmployeeCreate != nil {
		return r.s.st.failEmployeeCreate
	}
	r.s.st.nextEmployeeID++
	employee.ID = r.s.st.nextEmployeeID
	employee.CreatedOn = time.Now().UTC()
	r.s.st.employees = append(r.s.st.employees, *employee)
	return nil
}

func (r fakeEmployeeRepo) GetByUserID(ctx context.Context, userID string, tenantID int32) (*domain.Employee, error) {
	defer r.s.lock()()
	for _, employee := range r.s.st.employees {
		if employee.UserID == userID && employee.TenantID == tenantID {
			e := employee
			return &e, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r fakeEmployeeRepo) NextSequence(ctx context.Context, tenantID int32) (int32, error) {
	defer r.s.lock()()
	var count int32
	for _, employee := range r.s.st.employees {
		if employee.TenantID == tenantID {
			count++
		}
	}
	return count + 1, nil
}

type fakeRoleRepo struct{ s *fakeStore }

func (r fakeRoleRepo) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	defer r.s.lock()()
	role, ok := r.s.st.roles[name]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &role, nil
}

func (r fakeRoleRepo) EnsureRole(ctx context.Context, role *domain.Role) (*domain.Role, error) {
	defer r.s.lock()()
	if existing, ok := r.s.st.roles[role.Name]; ok {
		return &existing, nil
	}
	r.s.st.nextRoleID++
	role.ID = r.s.st.nextRoleID
	r.s.st.roles[role.Name] = *role
	return role, nil
}

func (r fakeRoleRepo) ListActiveAssignments(ctx context.Context, userID string, tenantID *int32) ([]domain.UserRoleAssignment, []domain.Role, error) {
	defer r.s.lock()()
	var assignments []domain.UserRoleAssignment
	var roles []domain.Role
	for _, a := range r.s.st.assignments {
		if a.UserID == userID && a.IsActive && tenantIDEqual(a.TenantID, tenantID) {
			assignments = append(assignments, a)
			roles = append(roles, r.roleByID(a.RoleID))
		}
	}
	return assignments, roles, nil
}

func (r fakeRoleRepo) roleByID(id int32) domain.Role {
	for _, role := range r.s.st.roles {
		if role.ID == id {
			return role
		}
	}
	return domain.Role{}
}

func (r fakeRoleRepo) ListPermissions(ctx context.Context, userID string, tenantID *int32) ([]domain.Permission, error) {
	defer r.s.lock()()
	seen := map[string]bool{}
	var perms []domain.Permission
	for _, a := range r.s.st.assignments {
		if a.UserID == userID && a.IsActive && tenantIDEqual(a.TenantID, tenantID) {
			for _, p := range r.s.st.rolePerms[a.RoleID] {
				if !seen[p.Name] {
					seen[p.Name] = true
					perms = append(perms, p)
				}
			}
		}
	}
	return perms, nil
}

func (r fakeRoleRepo) ListAllPermissions(ctx context.Context) ([]domain.Permission, error) {
	defer r.s.lock()()
	seen := map[string]bool{}
	var perms []domain.Permission
	for _, rp := range r.s.st.rolePerms {
		for _, p := range rp {
			if !seen[p.Name] {
				seen[p.Name] = true
				perms = append(perms, p)
			}
		}
	}
	return perms, nil
}

func (r fakeRoleRepo) DeactivateAssignments(ctx context.Context, userID string, tenantID *int32) (int64, error) {
	defer r.s.lock()()
	var count int64
	for i, a := range r.s.st.assignments {
		if a.UserID == userID && a.IsActive && tenantIDEqual(a.TenantID, tenantID) {
			r.s.st.assignments[i].IsActive = false
			count++
		}
	}
	return count, nil
}

func (r fakeRoleRepo) CreateAssignment(ctx context.Context, assignment *domain.UserRoleAssignment) error {
	defer r.s.lock()()
	r.s.st.nextAssignmentID++
	assignment.ID = r.s.st.nextAssignmentID
	if assignment.AssignedAt.IsZero() {
		assignment.AssignedAt = time.Now().UTC()
	}
	assignment.IsActive = true
	r.s.st.assignments = append(r.s.st.assignments, *assignment)
	return nil
}

func (r fakeRoleRepo) HasActiveAssignment(ctx context.Context, userID string, tenantID *int32) (bool, error) {
	defer r.s.lock()()
	for _, a := range r.s.st.assignments {
		if a.UserID == userID && a.IsActive && tenantIDEqual(a.TenantID, tenantID) {
			return true, nil
		}
	}
	return false, nil
}
