package validation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marvista/community-portal-backend/pkg/auth"
	"github.com/marvista/community-portal-backend/pkg/config"
	"github.com/marvista/community-portal-backend/pkg/db/models"
	"github.com/marvista/community-portal-backend/pkg/enums"
	pkgerrors "github.com/marvista/community-portal-backend/pkg/errors"
)

var testJWTConfig = config.JWTConfig{
	Secret:            "validation-test-secret",
	Issuer:            "community-auth-service",
	ExpirationMinutes: 60,
}

type memoryUserRepo struct {
	byID map[uuid.UUID]*models.CommunityUser
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

func (r *memoryUserRepo) FindByClerkID(_ context.Context, clerkUserID string) (*models.CommunityUser, error) {
	for _, u := range r.byID {
		if u.ClerkUserID == clerkUserID {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func seedUser(role enums.UserRole, active bool) *models.CommunityUser {
	return &models.CommunityUser{
		ID:          uuid.New(),
		ClerkUserID: "user_" + uuid.NewString()[:8],
		Email:       "member@example.com",
		FullName:    "Member",
		Role:        role,
		IsActive:    active,
	}
}

func mintFor(t *testing.T, user *models.CommunityUser, now time.Time) string {
	t.Helper()
	token, err := auth.MintAccessToken(testJWTConfig, now, auth.AccessTokenPayload{
		UserID:      user.ID,
		ClerkUserID: user.ClerkUserID,
		Email:       user.Email,
		FullName:    user.FullName,
		Role:        user.Role,
		IsActive:    user.IsActive,
		JTI:         uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func buildService(t *testing.T, repo userRepository, serviceToken string) Service {
	t.Helper()
	svc, err := NewService(repo, testJWTConfig, serviceToken)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func TestValidateTokenSuccess(t *testing.T) {
	user := seedUser(enums.UserRoleHomeowner, true)
	svc := buildService(t, newMemoryUserRepo(user), "shared-secret")

	resp := svc.ValidateToken(context.Background(), TokenValidationRequest{
		Token:       mintFor(t, user, time.Now()),
		ServiceName: "qr_gate",
	})
	if !resp.Valid {
		t.Fatalf("expected valid, got error %q", resp.Error)
	}
	if resp.UserID == nil || *resp.UserID != user.ID {
		t.Fatalf("unexpected user id %v", resp.UserID)
	}
	if resp.Role != "homeowner" {
		t.Fatalf("unexpected role %s", resp.Role)
	}
	if len(resp.Permissions) == 0 {
		t.Fatal("expected derived permissions")
	}
}

func TestValidateTokenNeverErrors(t *testing.T) {
	user := seedUser(enums.UserRoleHomeowner, true)
	repo := newMemoryUserRepo(user)
	svc := buildService(t, repo, "shared-secret")

	cases := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"empty", ""},
		{"expired", mintFor(t, user, time.Now().Add(-48*time.Hour))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := svc.ValidateToken(context.Background(), TokenValidationRequest{
				Token:       tc.token,
				ServiceName: "qr_gate",
			})
			if resp.Valid {
				t.Fatal("expected invalid")
			}
			if resp.Error == "" {
				t.Fatal("expected error reason in body")
			}
		})
	}
}

func TestValidateTokenInactiveUser(t *testing.T) {
	user := seedUser(enums.UserRoleHomeowner, false)
	svc := buildService(t, newMemoryUserRepo(user), "shared-secret")

	resp := svc.ValidateToken(context.Background(), TokenValidationRequest{
		Token:       mintFor(t, user, time.Now()),
		ServiceName: "qr_gate",
	})
	if resp.Valid {
		t.Fatal("expected invalid for deactivated user")
	}
}

func TestValidateTokenDeletedUser(t *testing.T) {
	user := seedUser(enums.UserRoleHomeowner, true)
	svc := buildService(t, newMemoryUserRepo(), "shared-secret")

	resp := svc.ValidateToken(context.Background(), TokenValidationRequest{
		Token:       mintFor(t, user, time.Now()),
		ServiceName: "qr_gate",
	})
	if resp.Valid {
		t.Fatal("expected invalid for deleted user")
	}
}

func TestUserForServiceRequiresSharedToken(t *testing.T) {
	user := seedUser(enums.UserRoleQRScanner, true)
	svc := buildService(t, newMemoryUserRepo(user), "shared-secret")

	_, err := svc.UserForService(context.Background(), "wrong", "qr_gate", user.ID)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	// An unset shared token refuses everything instead of matching "".
	open := buildService(t, newMemoryUserRepo(user), "")
	_, err = open.UserForService(context.Background(), "", "qr_gate", user.ID)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for unset token, got %v", err)
	}
}

func TestUserForServiceLookups(t *testing.T) {
	user := seedUser(enums.UserRoleQRScanner, true)
	svc := buildService(t, newMemoryUserRepo(user), "shared-secret")

	resp, err := svc.UserForService(context.Background(), "shared-secret", "qr_gate", user.ID)
	if err != nil {
		t.Fatalf("lookup by id: %v", err)
	}
	if resp.ID != user.ID || len(resp.Permissions) == 0 {
		t.Fatalf("unexpected response %+v", resp)
	}

	resp, err = svc.UserByClerkID(context.Background(), "shared-secret", "qr_gate", user.ClerkUserID)
	if err != nil {
		t.Fatalf("lookup by clerk id: %v", err)
	}
	if resp.ClerkUserID != user.ClerkUserID {
		t.Fatalf("unexpected clerk id %s", resp.ClerkUserID)
	}

	_, err = svc.UserForService(context.Background(), "shared-secret", "qr_gate", uuid.New())
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
