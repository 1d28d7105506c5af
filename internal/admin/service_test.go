package admin

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marvista/community-portal-backend/internal/audit"
	"github.com/marvista/community-portal-backend/internal/users"
	"github.com/marvista/community-portal-backend/pkg/db/models"
	"github.com/marvista/community-portal-backend/pkg/enums"
	pkgerrors "github.com/marvista/community-portal-backend/pkg/errors"
)

type memoryUserRepo struct {
	byID      map[uuid.UUID]*models.CommunityUser
	createErr error
}

func newMemoryUserRepo(seed ...*models.CommunityUser) *memoryUserRepo {
	repo := &memoryUserRepo{byID: map[uuid.UUID]*models.CommunityUser{}}
	for _, u := range seed {
		repo.byID[u.ID] = u
	}
	return repo
}

func (r *memoryUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.CommunityUser, error) {
	if u, ok := r.byID[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryUserRepo) FindByEmail(_ context.Context, email string) (*models.CommunityUser, error) {
	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryUserRepo) Create(_ context.Context, dto users.CreateUserDTO) (*models.CommunityUser, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	u := dto.ToModel()
	u.ID = uuid.New()
	r.byID[u.ID] = u
	return u, nil
}

func (r *memoryUserRepo) Update(_ context.Context, id uuid.UUID, dto users.UpdateUserDTO) (*models.CommunityUser, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if dto.FullName != nil {
		u.FullName = *dto.FullName
	}
	if dto.Role != nil {
		u.Role = *dto.Role
	}
	if dto.IsActive != nil {
		u.IsActive = *dto.IsActive
	}
	return u, nil
}

func (r *memoryUserRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	u, ok := r.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.IsActive = active
	return nil
}

func (r *memoryUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.byID, id)
	return nil
}

func (r *memoryUserRepo) List(_ context.Context, activeOnly bool) ([]models.CommunityUser, error) {
	var out []models.CommunityUser
	for _, u := range r.byID {
		if activeOnly && !u.IsActive {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func (r *memoryUserRepo) SetAppRole(_ context.Context, userID uuid.UUID, appName string, role enums.UserRole) (*models.UserAppRole, error) {
	u, ok := r.byID[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	for i := range u.AppRoles {
		if u.AppRoles[i].AppName == appName {
			u.AppRoles[i].Role = role.String()
			return &u.AppRoles[i], nil
		}
	}
	grant := models.UserAppRole{ID: uuid.New(), UserID: userID, AppName: appName, Role: role.String()}
	u.AppRoles = append(u.AppRoles, grant)
	return &grant, nil
}

func (r *memoryUserRepo) RemoveAppRole(_ context.Context, userID uuid.UUID, appName string) error {
	u, ok := r.byID[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	kept := u.AppRoles[:0]
	for _, grant := range u.AppRoles {
		if grant.AppName != appName {
			kept = append(kept, grant)
		}
	}
	u.AppRoles = kept
	return nil
}

type captureAuditor struct {
	actions []string
}

func (c *captureAuditor) Record(_ context.Context, entry audit.Entry) {
	c.actions = append(c.actions, entry.Action)
}

func seedUser(email string, role enums.UserRole) *models.CommunityUser {
	return &models.CommunityUser{
		ID:          uuid.New(),
		ClerkUserID: "clerk_" + email,
		Email:       email,
		FullName:    "Seeded User",
		Role:        role,
		IsActive:    true,
	}
}

func buildService(t *testing.T, repo userRepository, auditor auditRecorder) Service {
	t.Helper()
	svc, err := NewService(repo, auditor)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func TestCreateUserDefaultsAndAudit(t *testing.T) {
	repo := newMemoryUserRepo()
	auditor := &captureAuditor{}
	svc := buildService(t, repo, auditor)
	actor := uuid.New()

	dto, err := svc.CreateUser(context.Background(), actor, CreateUserRequest{
		ClerkUserID: "user_1",
		Email:       "Owner@Example.com",
		FullName:    "Maria Lopez",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.Role != enums.UserRoleHomeowner.String() {
		t.Fatalf("expected homeowner default, got %s", dto.Role)
	}
	if dto.Email != "owner@example.com" {
		t.Fatalf("expected normalized email, got %s", dto.Email)
	}
	if len(auditor.actions) != 1 || auditor.actions[0] != "user_created" {
		t.Fatalf("expected user_created audit, got %v", auditor.actions)
	}
}

func TestCreateUserMapsUniqueViolationToConflict(t *testing.T) {
	repo := newMemoryUserRepo()
	repo.createErr = errors.New(`duplicate key value violates unique constraint "idx_community_users_email"`)
	svc := buildService(t, repo, nil)

	_, err := svc.CreateUser(context.Background(), uuid.New(), CreateUserRequest{
		ClerkUserID: "user_1",
		Email:       "dup@example.com",
		FullName:    "Dup",
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateUserRejectsInvalidRole(t *testing.T) {
	svc := buildService(t, newMemoryUserRepo(), nil)

	_, err := svc.CreateUser(context.Background(), uuid.New(), CreateUserRequest{
		ClerkUserID: "user_1",
		Email:       "owner@example.com",
		FullName:    "Owner",
		Role:        "overlord",
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateUserRejectsSelfDeactivation(t *testing.T) {
	actor := seedUser("admin@example.com", enums.UserRoleSuperAdmin)
	repo := newMemoryUserRepo(actor)
	svc := buildService(t, repo, nil)

	inactive := false
	_, err := svc.UpdateUser(context.Background(), actor.ID, actor.ID, UpdateUserRequest{IsActive: &inactive})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteUserRejectsSelf(t *testing.T) {
	actor := seedUser("admin@example.com", enums.UserRoleSuperAdmin)
	svc := buildService(t, newMemoryUserRepo(actor), nil)

	err := svc.DeleteUser(context.Background(), actor.ID, actor.ID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteUserNotFound(t *testing.T) {
	svc := buildService(t, newMemoryUserRepo(), nil)

	err := svc.DeleteUser(context.Background(), uuid.New(), uuid.New())
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAssignAppRoleUpserts(t *testing.T) {
	target := seedUser("owner@example.com", enums.UserRoleHomeowner)
	repo := newMemoryUserRepo(target)
	auditor := &captureAuditor{}
	svc := buildService(t, repo, auditor)
	actor := uuid.New()

	resp, err := svc.AssignAppRole(context.Background(), actor, AssignRoleRequest{
		Email: "owner@example.com",
		App:   "qr_gate",
		Role:  "qr_scanner",
	})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if resp.Role != "qr_scanner" {
		t.Fatalf("unexpected role %s", resp.Role)
	}

	// Re-assigning replaces the grant.
	resp, err = svc.AssignAppRole(context.Background(), actor, AssignRoleRequest{
		Email: "owner@example.com",
		App:   "qr_gate",
		Role:  "qr_admin",
	})
	if err != nil {
		t.Fatalf("re-assign: %v", err)
	}
	if resp.Role != "qr_admin" {
		t.Fatalf("unexpected role %s", resp.Role)
	}
	if len(target.AppRoles) != 1 {
		t.Fatalf("expected single grant, got %d", len(target.AppRoles))
	}
}

func TestAssignAppRoleValidation(t *testing.T) {
	target := seedUser("owner@example.com", enums.UserRoleHomeowner)
	svc := buildService(t, newMemoryUserRepo(target), nil)
	actor := uuid.New()

	_, err := svc.AssignAppRole(context.Background(), actor, AssignRoleRequest{
		Email: "owner@example.com",
		App:   "unknown_app",
		Role:  "qr_scanner",
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for unknown app, got %v", err)
	}

	_, err = svc.AssignAppRole(context.Background(), actor, AssignRoleRequest{
		Email: "owner@example.com",
		App:   "arc",
		Role:  "emperor",
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for bad role, got %v", err)
	}

	_, err = svc.AssignAppRole(context.Background(), actor, AssignRoleRequest{
		Email: "ghost@example.com",
		App:   "arc",
		Role:  "arc_reviewer",
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unknown email, got %v", err)
	}
}

func TestSetUserActiveRoundTrip(t *testing.T) {
	target := seedUser("owner@example.com", enums.UserRoleHomeowner)
	svc := buildService(t, newMemoryUserRepo(target), nil)
	actor := uuid.New()

	dto, err := svc.SetUserActive(context.Background(), actor, target.ID, false)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if dto.IsActive {
		t.Fatal("expected deactivated user")
	}

	dto, err = svc.SetUserActive(context.Background(), actor, target.ID, true)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if !dto.IsActive {
		t.Fatal("expected reactivated user")
	}
}

func TestRemoveAppRole(t *testing.T) {
	target := seedUser("owner@example.com", enums.UserRoleHomeowner)
	repo := newMemoryUserRepo(target)
	svc := buildService(t, repo, nil)
	actor := uuid.New()

	if _, err := svc.AssignAppRole(context.Background(), actor, AssignRoleRequest{
		Email: "owner@example.com",
		App:   "arc",
		Role:  "arc_reviewer",
	}); err != nil {
		t.Fatalf("assign: %v", err)
	}

	if err := svc.RemoveAppRole(context.Background(), actor, RemoveRoleRequest{
		Email: "owner@example.com",
		App:   "arc",
	}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(target.AppRoles) != 0 {
		t.Fatalf("expected no grants, got %v", target.AppRoles)
	}
}
