package apps

import (
	"testing"

	"github.com/marvista/community-portal-backend/internal/permissions"
	"github.com/marvista/community-portal-backend/pkg/db/models"
	"github.com/marvista/community-portal-backend/pkg/enums"
)

func TestAccessibleSuperAdminReachesEveryApp(t *testing.T) {
	user := &models.CommunityUser{Role: enums.UserRoleSuperAdmin}
	accessible := Accessible(user)
	if len(accessible) != len(Registry()) {
		t.Fatalf("expected %d apps, got %d", len(Registry()), len(accessible))
	}
}

func TestAccessibleGuestReachesNothing(t *testing.T) {
	user := &models.CommunityUser{Role: enums.UserRoleGuest}
	if accessible := Accessible(user); len(accessible) != 0 {
		t.Fatalf("expected no apps for guest, got %v", accessible)
	}
}

func TestAccessibleNilUser(t *testing.T) {
	if accessible := Accessible(nil); len(accessible) != 0 {
		t.Fatalf("expected no apps for nil user, got %v", accessible)
	}
}

func TestAccessibleHomeownerReachesBothApps(t *testing.T) {
	user := &models.CommunityUser{Role: enums.UserRoleHomeowner}
	accessible := Accessible(user)
	if len(accessible) != 2 {
		t.Fatalf("expected both apps for homeowner, got %v", accessible)
	}
}

func TestAccessibleScopedAssignmentOpensSingleApp(t *testing.T) {
	user := &models.CommunityUser{
		Role: enums.UserRoleGuest,
		AppRoles: []models.UserAppRole{
			{AppName: permissions.ServiceQRGate, Role: enums.UserRoleQRScanner.String()},
		},
	}
	accessible := Accessible(user)
	if len(accessible) != 1 {
		t.Fatalf("expected exactly qr_gate, got %v", accessible)
	}
	if accessible[0].ID != permissions.ServiceQRGate {
		t.Fatalf("expected qr_gate, got %s", accessible[0].ID)
	}
}

func TestAccessibleIsIdempotent(t *testing.T) {
	user := &models.CommunityUser{Role: enums.UserRoleHomeowner}
	first := Accessible(user)
	second := Accessible(user)
	if len(first) != len(second) {
		t.Fatalf("filter not idempotent: %v vs %v", first, second)
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("filter not idempotent: %v vs %v", first, second)
		}
	}
}

func TestAutoRedirectURL(t *testing.T) {
	user := &models.CommunityUser{
		Role: enums.UserRoleGuest,
		AppRoles: []models.UserAppRole{
			{AppName: permissions.ServiceQRGate, Role: enums.UserRoleQRScanner.String()},
		},
	}
	accessible := Accessible(user)
	url, ok := AutoRedirectURL(accessible)
	if !ok {
		t.Fatal("expected auto-redirect for single app")
	}
	if url != "https://qr.brasilito.org" {
		t.Fatalf("unexpected redirect target %s", url)
	}

	if _, ok := AutoRedirectURL(nil); ok {
		t.Fatal("no redirect for zero apps")
	}
	both := Accessible(&models.CommunityUser{Role: enums.UserRoleHomeowner})
	if _, ok := AutoRedirectURL(both); ok {
		t.Fatal("no redirect for multiple apps")
	}
}

func TestRegistryLookup(t *testing.T) {
	app, ok := Lookup(permissions.ServiceARC)
	if !ok {
		t.Fatal("arc should be registered")
	}
	if app.URL != "https://mvarc.vercel.app" {
		t.Fatalf("unexpected arc url %s", app.URL)
	}
	if IsRegistered("unknown") {
		t.Fatal("unknown should not be registered")
	}
	if names := Names(); len(names) != 2 {
		t.Fatalf("expected 2 registered names, got %v", names)
	}
}
